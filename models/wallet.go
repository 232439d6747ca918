package models

import (
	"time"
)

// TokenClass distinguishes the two balances a wallet holds. Purchased tokens
// were bought with real money and can never be transferred to another user;
// earned tokens come from tournament rewards and bonuses and are transferable.
type TokenClass string

const (
	TokenClassPurchased TokenClass = "purchased"
	TokenClassEarned    TokenClass = "earned"
)

func (c TokenClass) IsValid() bool {
	return c == TokenClassPurchased || c == TokenClassEarned
}

// DebitPolicy selects which balance a debit consumes first. Either way the
// total drops by exactly the requested amount and no component goes negative.
type DebitPolicy string

const (
	DebitPurchasedFirst DebitPolicy = "purchased_first"
	DebitEarnedFirst    DebitPolicy = "earned_first"
)

// Wallet holds a user's token balances, one row per user.
type Wallet struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID string `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`

	PurchasedTokens int `json:"purchased_tokens" gorm:"not null;default:0"`
	EarnedTokens    int `json:"earned_tokens" gorm:"not null;default:0"`

	// Lifetime counters
	TotalTokensPurchased int     `json:"total_tokens_purchased" gorm:"not null;default:0"`
	TotalTokensEarned    int     `json:"total_tokens_earned" gorm:"not null;default:0"`
	TotalTokensSpent     int     `json:"total_tokens_spent" gorm:"not null;default:0"`
	TotalSpentPKR        float64 `json:"total_spent_pkr" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TotalBalance is derived, never stored.
func (w *Wallet) TotalBalance() int {
	return w.PurchasedTokens + w.EarnedTokens
}

func (w *Wallet) HasSufficientBalance(amount int) bool {
	return w.TotalBalance() >= amount
}

// Deduct removes amount tokens following the given policy. It is
// all-or-nothing: on insufficient total balance no field changes and false is
// returned.
func (w *Wallet) Deduct(amount int, policy DebitPolicy) bool {
	if amount <= 0 || !w.HasSufficientBalance(amount) {
		return false
	}

	switch policy {
	case DebitEarnedFirst:
		if w.EarnedTokens >= amount {
			w.EarnedTokens -= amount
		} else {
			remaining := amount - w.EarnedTokens
			w.EarnedTokens = 0
			w.PurchasedTokens -= remaining
		}
	default: // purchased first
		if w.PurchasedTokens >= amount {
			w.PurchasedTokens -= amount
		} else {
			remaining := amount - w.PurchasedTokens
			w.PurchasedTokens = 0
			w.EarnedTokens -= remaining
		}
	}

	w.TotalTokensSpent += amount
	return true
}

// AddPurchased credits bought tokens and records the money spent on them.
func (w *Wallet) AddPurchased(amount int, amountPKR float64) {
	w.PurchasedTokens += amount
	w.TotalTokensPurchased += amount
	w.TotalSpentPKR += amountPKR
}

// AddEarned credits reward tokens.
func (w *Wallet) AddEarned(amount int) {
	w.EarnedTokens += amount
	w.TotalTokensEarned += amount
}
