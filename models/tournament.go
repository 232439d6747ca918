package models

import (
	"time"
)

type TournamentStatus string

const (
	TournamentDraft              TournamentStatus = "draft"
	TournamentUpcoming           TournamentStatus = "upcoming"
	TournamentRegistrationOpen   TournamentStatus = "registration_open"
	TournamentRegistrationClosed TournamentStatus = "registration_closed"
	TournamentActive             TournamentStatus = "active"
	TournamentCompleted          TournamentStatus = "completed"
	TournamentCancelled          TournamentStatus = "cancelled"
)

func (s TournamentStatus) IsValid() bool {
	switch s {
	case TournamentDraft, TournamentUpcoming, TournamentRegistrationOpen,
		TournamentRegistrationClosed, TournamentActive, TournamentCompleted,
		TournamentCancelled:
		return true
	}
	return false
}

type GameType string

const (
	GameFreeFire      GameType = "freefire"
	GamePUBG          GameType = "pubg"
	GameCounterStrike GameType = "counter_strike"
	GameValorant      GameType = "valorant"
	GameCODMobile     GameType = "cod_mobile"
	GameFortnite      GameType = "fortnite"
	GameOther         GameType = "other"
)

func (g GameType) IsValid() bool {
	switch g {
	case GameFreeFire, GamePUBG, GameCounterStrike, GameValorant,
		GameCODMobile, GameFortnite, GameOther:
		return true
	}
	return false
}

// Tournament defines entry fee, prize schedule, capacity and the scheduling
// window. current_participants is bumped inside the registration transaction.
type Tournament struct {
	ID string `json:"id" gorm:"primaryKey;type:uuid"`

	Title       string   `json:"title" gorm:"size:255;not null"`
	Slug        string   `json:"slug" gorm:"size:255;uniqueIndex;not null"`
	Game        GameType `json:"game" gorm:"size:50;not null"`
	Description string   `json:"description" gorm:"type:text"`
	Rules       string   `json:"rules" gorm:"type:text"`

	// Entry and prizes (tokens)
	EntryFee          int `json:"entry_fee" gorm:"not null;default:0"`
	PrizePool         int `json:"prize_pool" gorm:"not null;default:0"`
	FirstPlaceReward  int `json:"first_place_reward" gorm:"not null;default:0"`
	SecondPlaceReward int `json:"second_place_reward" gorm:"not null;default:0"`
	ThirdPlaceReward  int `json:"third_place_reward" gorm:"not null;default:0"`
	FourthPlaceReward int `json:"fourth_place_reward" gorm:"not null;default:0"`
	FifthPlaceReward  int `json:"fifth_place_reward" gorm:"not null;default:0"`

	// Capacity
	MaxParticipants     int `json:"max_participants" gorm:"not null;default:100"`
	MinParticipants     int `json:"min_participants" gorm:"not null;default:2"`
	CurrentParticipants int `json:"current_participants" gorm:"not null;default:0"`

	// Schedule
	RegistrationStart *time.Time `json:"registration_start,omitempty"`
	RegistrationEnd   *time.Time `json:"registration_end,omitempty"`
	StartDate         time.Time  `json:"start_date" gorm:"not null"`
	EndDate           *time.Time `json:"end_date,omitempty"`

	Status TournamentStatus `json:"status" gorm:"size:30;not null;default:'draft'"`

	// Media
	BannerURL    string `json:"banner_url" gorm:"size:500"`
	ThumbnailURL string `json:"thumbnail_url" gorm:"size:500"`

	// Room details, only revealed to confirmed participants
	RoomID       string `json:"-" gorm:"size:100"`
	RoomPassword string `json:"-" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Registrations []Registration `json:"-" gorm:"foreignKey:TournamentID;constraint:OnDelete:CASCADE"`
}

// IsRegistrationOpen is computed on read, never stored.
func (t *Tournament) IsRegistrationOpen() bool {
	now := time.Now().UTC()
	if t.Status != TournamentRegistrationOpen {
		return false
	}
	if t.RegistrationStart != nil && now.Before(*t.RegistrationStart) {
		return false
	}
	if t.RegistrationEnd != nil && now.After(*t.RegistrationEnd) {
		return false
	}
	if t.CurrentParticipants >= t.MaxParticipants {
		return false
	}
	return true
}

func (t *Tournament) SlotsAvailable() int {
	if n := t.MaxParticipants - t.CurrentParticipants; n > 0 {
		return n
	}
	return 0
}

// PlacementReward returns the configured reward for a 1-based placement, zero
// for anything outside 1..5.
func (t *Tournament) PlacementReward(position int) int {
	switch position {
	case 1:
		return t.FirstPlaceReward
	case 2:
		return t.SecondPlaceReward
	case 3:
		return t.ThirdPlaceReward
	case 4:
		return t.FourthPlaceReward
	case 5:
		return t.FifthPlaceReward
	}
	return 0
}

// TokenBundle is a purchasable package of tokens (base + bonus) sold for real
// money via the mobile-wallet gateways.
type TokenBundle struct {
	ID string `json:"id" gorm:"primaryKey;type:uuid"`

	Name        string `json:"name" gorm:"size:100;not null"`
	Tokens      int    `json:"tokens" gorm:"not null"`
	BonusTokens int    `json:"bonus_tokens" gorm:"not null;default:0"`

	PricePKR float64 `json:"price_pkr" gorm:"not null"`
	PriceUSD float64 `json:"price_usd" gorm:"not null"`

	Description string `json:"description" gorm:"size:255"`
	Badge       string `json:"badge" gorm:"size:50"`
	Icon        string `json:"icon" gorm:"size:100"`
	SortOrder   int    `json:"sort_order" gorm:"default:0"`

	IsActive   bool `json:"is_active" gorm:"default:true"`
	IsFeatured bool `json:"is_featured" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TotalTokens is the credited amount on purchase completion: base plus bonus.
func (b *TokenBundle) TotalTokens() int {
	return b.Tokens + b.BonusTokens
}
