package models

import (
	"time"
)

type TransactionType string

const (
	TransactionTypePurchase     TransactionType = "purchase"
	TransactionTypeEntry        TransactionType = "tournament_entry"
	TransactionTypeReward       TransactionType = "tournament_reward"
	TransactionTypeTransferOut  TransactionType = "transfer_out"
	TransactionTypeTransferIn   TransactionType = "transfer_in"
	TransactionTypeRefund       TransactionType = "refund"
	TransactionTypeBonus        TransactionType = "bonus"
	TransactionTypeSubscription TransactionType = "subscription"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypePurchase, TransactionTypeEntry, TransactionTypeReward,
		TransactionTypeTransferOut, TransactionTypeTransferIn,
		TransactionTypeRefund, TransactionTypeBonus, TransactionTypeSubscription:
		return true
	}
	return false
}

// IsCredit reports whether a completed transaction of this type increases the
// wallet balance. For completed rows, balance_after - balance_before equals
// +amount for credits and -amount for debits.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypePurchase, TransactionTypeReward, TransactionTypeTransferIn,
		TransactionTypeRefund, TransactionTypeBonus:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "pending"
	TransactionProcessing TransactionStatus = "processing"
	TransactionCompleted  TransactionStatus = "completed"
	TransactionFailed     TransactionStatus = "failed"
	TransactionCancelled  TransactionStatus = "cancelled"
	TransactionRefunded   TransactionStatus = "refunded"
)

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionPending, TransactionProcessing, TransactionCompleted,
		TransactionFailed, TransactionCancelled, TransactionRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transition. Gateway
// callbacks against a terminal transaction are no-ops.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionCompleted, TransactionFailed, TransactionCancelled, TransactionRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentEasypaisa PaymentMethod = "easypaisa"
	PaymentJazzCash  PaymentMethod = "jazzcash"
	PaymentInternal  PaymentMethod = "internal"
)

// Transaction is one row in the append-mostly ledger: every balance-affecting
// event writes exactly one per wallet touched. Financial fields (amounts,
// balance snapshots) are never edited after creation; only status, notes and
// completed_at advance with the associated process.
type Transaction struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID string `json:"user_id" gorm:"type:uuid;not null;index"`

	Type   TransactionType   `json:"type" gorm:"size:30;not null"`
	Status TransactionStatus `json:"status" gorm:"size:20;not null;default:'pending'"`

	TokenAmount int        `json:"token_amount" gorm:"not null"`
	TokenClass  TokenClass `json:"token_class" gorm:"size:20;not null;default:'purchased'"`

	// Money details (purchases only)
	PaymentMethod PaymentMethod `json:"payment_method,omitempty" gorm:"size:20"`
	AmountPKR     float64       `json:"amount_pkr,omitempty"`
	AmountUSD     float64       `json:"amount_usd,omitempty"`

	// External references
	PaymentReference string `json:"payment_reference,omitempty" gorm:"size:255"`
	ExternalTxnID    string `json:"external_transaction_id,omitempty" gorm:"size:255;index"`

	// Links
	TournamentID    string `json:"tournament_id,omitempty" gorm:"type:uuid;index"`
	BundleID        string `json:"bundle_id,omitempty" gorm:"type:uuid"`
	RecipientUserID string `json:"recipient_user_id,omitempty" gorm:"type:uuid"`
	SenderUserID    string `json:"sender_user_id,omitempty" gorm:"type:uuid"`

	Description string `json:"description,omitempty" gorm:"size:500"`
	Notes       string `json:"notes,omitempty" gorm:"type:text"`

	// Wallet snapshot for audit
	BalanceBefore int `json:"balance_before"`
	BalanceAfter  int `json:"balance_after"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (t *Transaction) MarkCompleted() {
	now := time.Now().UTC()
	t.Status = TransactionCompleted
	t.CompletedAt = &now
}

func (t *Transaction) MarkFailed(reason string) {
	t.Status = TransactionFailed
	if reason != "" {
		t.Notes = reason
	}
}
