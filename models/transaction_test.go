package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionStatusTerminal(t *testing.T) {
	terminal := []TransactionStatus{
		TransactionCompleted, TransactionFailed, TransactionCancelled, TransactionRefunded,
	}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s", s)
	}
	assert.False(t, TransactionPending.IsTerminal())
	assert.False(t, TransactionProcessing.IsTerminal())
}

func TestTransactionStatusValid(t *testing.T) {
	valid := []TransactionStatus{
		TransactionPending, TransactionProcessing, TransactionCompleted,
		TransactionFailed, TransactionCancelled, TransactionRefunded,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "%s", s)
	}
	assert.False(t, TransactionStatus("done").IsValid())
	assert.False(t, TransactionStatus("").IsValid())
}

func TestTransactionTypeDirection(t *testing.T) {
	credits := []TransactionType{
		TransactionTypePurchase, TransactionTypeReward, TransactionTypeTransferIn,
		TransactionTypeRefund, TransactionTypeBonus,
	}
	debits := []TransactionType{
		TransactionTypeEntry, TransactionTypeTransferOut, TransactionTypeSubscription,
	}
	for _, tt := range credits {
		assert.True(t, tt.IsCredit(), "%s", tt)
	}
	for _, tt := range debits {
		assert.False(t, tt.IsCredit(), "%s", tt)
	}
}

func TestMarkCompletedAndFailed(t *testing.T) {
	txn := &Transaction{Status: TransactionProcessing}
	txn.MarkCompleted()
	assert.Equal(t, TransactionCompleted, txn.Status)
	assert.NotNil(t, txn.CompletedAt)

	failed := &Transaction{Status: TransactionProcessing}
	failed.MarkFailed("gateway timeout")
	assert.Equal(t, TransactionFailed, failed.Status)
	assert.Equal(t, "gateway timeout", failed.Notes)
}
