package workers

import (
	"fmt"
	"testing"
	"time"

	"gan-backend/models"
	"gan-backend/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newWorkerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Transaction{},
	))
	return db
}

func createStalePurchase(t *testing.T, db *gorm.DB, status models.TransactionStatus, age time.Duration) *models.Transaction {
	t.Helper()

	user := &models.User{
		ID:       uuid.NewString(),
		GoogleID: "g-" + uuid.NewString(),
		Email:    uuid.NewString()[:8] + "@test.dev",
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.Wallet{ID: uuid.NewString(), UserID: user.ID}).Error)

	txn := &models.Transaction{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Type:          models.TransactionTypePurchase,
		Status:        status,
		TokenAmount:   100,
		TokenClass:    models.TokenClassPurchased,
		PaymentMethod: models.PaymentEasypaisa,
		AmountPKR:     1399,
	}
	require.NoError(t, db.Create(txn).Error)
	require.NoError(t, db.Model(txn).Update("created_at", time.Now().UTC().Add(-age)).Error)
	return txn
}

func TestSweepExpiresStalePurchases(t *testing.T) {
	db := newWorkerTestDB(t)
	payments := &services.PaymentService{DB: db, Wallets: services.NewWalletService(db)}
	worker := NewPaymentReconcileWorker(db, payments)

	stale := createStalePurchase(t, db, models.TransactionProcessing, time.Hour)
	fresh := createStalePurchase(t, db, models.TransactionProcessing, time.Minute)

	require.NoError(t, worker.sweep())

	var expired models.Transaction
	require.NoError(t, db.First(&expired, "id = ?", stale.ID).Error)
	assert.Equal(t, models.TransactionFailed, expired.Status)
	assert.Contains(t, expired.Notes, "expired")

	// Anything inside the cutoff is left alone.
	var untouched models.Transaction
	require.NoError(t, db.First(&untouched, "id = ?", fresh.ID).Error)
	assert.Equal(t, models.TransactionProcessing, untouched.Status)
}

func TestSweepToleratesAlreadySettledPurchases(t *testing.T) {
	db := newWorkerTestDB(t)
	payments := &services.PaymentService{DB: db, Wallets: services.NewWalletService(db)}
	worker := NewPaymentReconcileWorker(db, payments)

	txn := createStalePurchase(t, db, models.TransactionProcessing, time.Hour)

	// A callback lands between the sweep's query and its settle call.
	require.NoError(t, payments.SettlePurchase(txn.ID, true, "EP-REF-1", ""))
	require.NoError(t, worker.sweep())

	var settled models.Transaction
	require.NoError(t, db.First(&settled, "id = ?", txn.ID).Error)
	assert.Equal(t, models.TransactionCompleted, settled.Status)
}
