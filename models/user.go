package models

import (
	"time"
)

// User is created on first Google sign-in. The wallet row is created in the
// same transaction, so every user always has exactly one wallet.
type User struct {
	ID string `json:"id" gorm:"primaryKey;type:uuid"`

	// Google OAuth identity
	GoogleID  string `json:"-" gorm:"uniqueIndex;not null"`
	Email     string `json:"email" gorm:"uniqueIndex;not null"`
	AvatarURL string `json:"avatar_url"`

	// Profile
	FullName string `json:"full_name"`
	Age      int    `json:"age"`
	City     string `json:"city"`
	Country  string `json:"country"`

	// WhatsApp verification
	WhatsAppNumber        string     `json:"whatsapp_number"`
	WhatsAppVerified      bool       `json:"whatsapp_verified" gorm:"default:false"`
	WhatsAppCode          string     `json:"-" gorm:"size:6"`
	WhatsAppCodeExpiresAt *time.Time `json:"-"`

	// Gaming profile
	PlayerID      string `json:"player_id"`
	PreferredGame string `json:"preferred_game"`

	// Payment preferences
	PreferredPayment   string `json:"preferred_payment" gorm:"default:'easypaisa'"`
	MobileWalletNumber string `json:"mobile_wallet_number"`

	ProfileCompleted bool `json:"profile_completed" gorm:"default:false"`
	IsActive         bool `json:"is_active" gorm:"default:true"`
	IsAdmin          bool `json:"is_admin" gorm:"default:false"`

	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	LastLogin *time.Time `json:"last_login,omitempty"`

	// Relationships (cascade on user delete)
	Wallet        *Wallet        `json:"wallet,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Transactions  []Transaction  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Registrations []Registration `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// IsProfileComplete reports whether every field required before tournament play
// is filled in, including a verified WhatsApp number.
func (u *User) IsProfileComplete() bool {
	return u.FullName != "" &&
		u.Age > 0 &&
		u.City != "" &&
		u.Country != "" &&
		u.WhatsAppNumber != "" &&
		u.WhatsAppVerified &&
		u.PlayerID != ""
}
