package services

import (
	"testing"

	"gan-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDebitPurchasedFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewWalletService(db)
	user := createTestUser(t, db, "player@test.com", 30, 20)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, _, err := svc.Debit(tx, user.ID, 40, models.DebitPurchasedFirst, DebitOptions{})
		return err
	})
	require.NoError(t, err)

	wallet := getWallet(t, db, user.ID)
	assert.Equal(t, 0, wallet.PurchasedTokens)
	assert.Equal(t, 10, wallet.EarnedTokens)
	assert.Equal(t, 40, wallet.TotalTokensSpent)
}

func TestDebitEarnedFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewWalletService(db)
	user := createTestUser(t, db, "player@test.com", 30, 20)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, _, err := svc.Debit(tx, user.ID, 40, models.DebitEarnedFirst, DebitOptions{})
		return err
	})
	require.NoError(t, err)

	wallet := getWallet(t, db, user.ID)
	assert.Equal(t, 10, wallet.PurchasedTokens)
	assert.Equal(t, 0, wallet.EarnedTokens)
}

func TestDebitInsufficientBalanceIsAllOrNothing(t *testing.T) {
	db := newTestDB(t)
	svc := NewWalletService(db)
	user := createTestUser(t, db, "player@test.com", 30, 20)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, _, err := svc.Debit(tx, user.ID, 51, models.DebitPurchasedFirst, DebitOptions{})
		return err
	})
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 51, insufficient.Required)
	assert.Equal(t, 50, insufficient.Available)

	// Nothing moved, nothing logged.
	wallet := getWallet(t, db, user.ID)
	assert.Equal(t, 30, wallet.PurchasedTokens)
	assert.Equal(t, 20, wallet.EarnedTokens)

	var count int64
	db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
}

func TestCreditWritesBalancedLedgerRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewWalletService(db)
	user := createTestUser(t, db, "player@test.com", 100, 0)

	var txn *models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		_, txn, err = svc.Credit(tx, user.ID, 250, models.TokenClassEarned, CreditOptions{
			Type:        models.TransactionTypeReward,
			Description: "Prize for Weekend Cup - position #1",
		})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, models.TransactionCompleted, txn.Status)
	assert.Equal(t, 100, txn.BalanceBefore)
	assert.Equal(t, 350, txn.BalanceAfter)
	assert.Equal(t, txn.TokenAmount, txn.BalanceAfter-txn.BalanceBefore)
	require.NotNil(t, txn.CompletedAt)

	wallet := getWallet(t, db, user.ID)
	assert.Equal(t, 250, wallet.EarnedTokens)
	assert.Equal(t, 250, wallet.TotalTokensEarned)
}

func TestCreditCreatesMissingWallet(t *testing.T) {
	db := newTestDB(t)
	svc := NewWalletService(db)

	user := &models.User{ID: "u-no-wallet", GoogleID: "g1", Email: "nowallet@test.com"}
	require.NoError(t, db.Create(user).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, _, err := svc.Credit(tx, user.ID, 50, models.TokenClassEarned, CreditOptions{
			Type: models.TransactionTypeBonus,
		})
		return err
	})
	require.NoError(t, err)

	wallet := getWallet(t, db, user.ID)
	assert.Equal(t, 50, wallet.EarnedTokens)
}

func TestTransferRejectsPurchasedClass(t *testing.T) {
	db := newTestDB(t)
	svc := NewWalletService(db)
	sender := createTestUser(t, db, "sender@test.com", 100, 50)
	recipient := createTestUser(t, db, "recipient@test.com", 0, 0)

	_, err := svc.Transfer(sender.ID, recipient.ID, 10, models.TokenClassPurchased)
	assert.ErrorIs(t, err, ErrTransferRestricted)
}

func TestTransferRejectsSelf(t *testing.T) {
	db := newTestDB(t)
	svc := NewWalletService(db)
	sender := createTestUser(t, db, "sender@test.com", 0, 50)

	_, err := svc.Transfer(sender.ID, sender.ID, 10, models.TokenClassEarned)
	assert.ErrorIs(t, err, ErrSelfTransfer)
}

func TestTransferOnlySpendsEarnedTokens(t *testing.T) {
	db := newTestDB(t)
	svc := NewWalletService(db)
	// Plenty of purchased tokens, but only 5 earned.
	sender := createTestUser(t, db, "sender@test.com", 1000, 5)
	recipient := createTestUser(t, db, "recipient@test.com", 0, 0)

	_, err := svc.Transfer(sender.ID, recipient.ID, 10, models.TokenClassEarned)
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Available)

	wallet := getWallet(t, db, sender.ID)
	assert.Equal(t, 1000, wallet.PurchasedTokens)
	assert.Equal(t, 5, wallet.EarnedTokens)
}

func TestTransferWritesBothLegs(t *testing.T) {
	db := newTestDB(t)
	svc := NewWalletService(db)
	sender := createTestUser(t, db, "sender@test.com", 100, 50)
	recipient := createTestUser(t, db, "recipient@test.com", 20, 0)

	out, err := svc.Transfer(sender.ID, recipient.ID, 30, models.TokenClassEarned)
	require.NoError(t, err)

	assert.Equal(t, models.TransactionTypeTransferOut, out.Type)
	assert.Equal(t, recipient.ID, out.RecipientUserID)
	assert.Equal(t, 150, out.BalanceBefore)
	assert.Equal(t, 120, out.BalanceAfter)

	var in models.Transaction
	require.NoError(t, db.Where("user_id = ? AND type = ?", recipient.ID, models.TransactionTypeTransferIn).First(&in).Error)
	assert.Equal(t, sender.ID, in.SenderUserID)
	assert.Equal(t, 30, in.TokenAmount)
	assert.Equal(t, 20, in.BalanceBefore)
	assert.Equal(t, 50, in.BalanceAfter)

	assert.Equal(t, 20, getWallet(t, db, sender.ID).EarnedTokens)
	assert.Equal(t, 30, getWallet(t, db, recipient.ID).EarnedTokens)
	// Purchased balances untouched on both sides.
	assert.Equal(t, 100, getWallet(t, db, sender.ID).PurchasedTokens)
	assert.Equal(t, 20, getWallet(t, db, recipient.ID).PurchasedTokens)
}
