package models

import (
	"time"
)

type RegistrationStatus string

const (
	RegistrationPending      RegistrationStatus = "pending"
	RegistrationConfirmed    RegistrationStatus = "confirmed"
	RegistrationCancelled    RegistrationStatus = "cancelled"
	RegistrationCheckedIn    RegistrationStatus = "checked_in"
	RegistrationNoShow       RegistrationStatus = "no_show"
	RegistrationDisqualified RegistrationStatus = "disqualified"
)

// IsTerminal reports whether the status admits no further transition.
func (s RegistrationStatus) IsTerminal() bool {
	switch s {
	case RegistrationCancelled, RegistrationNoShow, RegistrationDisqualified:
		return true
	}
	return false
}

// CanTransitionTo enforces the registration state machine:
// pending -> confirmed -> {checked_in, cancelled, no_show, disqualified}.
func (s RegistrationStatus) CanTransitionTo(next RegistrationStatus) bool {
	switch s {
	case RegistrationPending:
		return next == RegistrationConfirmed || next == RegistrationCancelled
	case RegistrationConfirmed:
		switch next {
		case RegistrationCheckedIn, RegistrationCancelled,
			RegistrationNoShow, RegistrationDisqualified:
			return true
		}
	case RegistrationCheckedIn:
		// Only the referee can still pull someone after check-in.
		return next == RegistrationNoShow || next == RegistrationDisqualified
	}
	return false
}

// Registration binds a user to a tournament. tokens_paid snapshots the entry
// fee at registration time and never changes, even if the tournament's fee is
// later edited.
//
// ActiveKey is "" while the registration is live and is overwritten with the
// row ID on cancellation, so the unique index on (user, tournament, active_key)
// allows exactly one non-cancelled registration per pair at the storage layer.
type Registration struct {
	ID           string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID       string `json:"user_id" gorm:"type:uuid;not null;index;uniqueIndex:uniq_active_registration"`
	TournamentID string `json:"tournament_id" gorm:"type:uuid;not null;index;uniqueIndex:uniq_active_registration"`
	ActiveKey    string `json:"-" gorm:"size:36;not null;default:'';uniqueIndex:uniq_active_registration"`

	Status     RegistrationStatus `json:"status" gorm:"size:20;not null;default:'confirmed'"`
	TokensPaid int                `json:"tokens_paid" gorm:"not null"`

	// Link to the entry-fee ledger row
	TransactionID string `json:"transaction_id,omitempty" gorm:"type:uuid"`

	// Game details
	PlayerID string `json:"player_id,omitempty" gorm:"size:100"`
	TeamName string `json:"team_name,omitempty" gorm:"size:100"`

	// Results, set only at settlement
	Position            int    `json:"position,omitempty"`
	RewardEarned        int    `json:"reward_earned" gorm:"not null;default:0"`
	RewardTransactionID string `json:"reward_transaction_id,omitempty" gorm:"type:uuid"`

	// Check-in
	CheckedIn   bool       `json:"checked_in" gorm:"default:false"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`

	RegisteredAt time.Time `json:"registered_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// CheckIn marks the player present. Caller validates the transition first.
func (r *Registration) CheckIn() {
	now := time.Now().UTC()
	r.CheckedIn = true
	r.CheckedInAt = &now
	r.Status = RegistrationCheckedIn
}

// Cancel flips the status and releases the active-registration slot.
func (r *Registration) Cancel() {
	r.Status = RegistrationCancelled
	r.ActiveKey = r.ID
}

// SetResult records the final placement at settlement time.
func (r *Registration) SetResult(position, reward int) {
	r.Position = position
	r.RewardEarned = reward
}
