package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AdminUser is deliberately separate from User: admin credentials and tokens
// never mix with the OAuth user pool.
type AdminUser struct {
	ID string `json:"id" gorm:"primaryKey;type:uuid"`

	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"size:255;not null"`

	FullName string `json:"full_name" gorm:"size:255"`
	Role     string `json:"role" gorm:"size:50;default:'admin'"` // admin, superadmin

	IsActive bool `json:"is_active" gorm:"default:true"`

	LastLogin            *time.Time `json:"last_login,omitempty"`
	PasswordResetToken   string     `json:"-" gorm:"size:255"`
	PasswordResetExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (a *AdminUser) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

func (a *AdminUser) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}
