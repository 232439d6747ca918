package services

import (
	"fmt"
	"testing"

	"gan-backend/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.AdminUser{},
		&models.Wallet{},
		&models.Transaction{},
		&models.Tournament{},
		&models.TokenBundle{},
		&models.Registration{},
		&models.Product{},
		&models.SiteSetting{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// createTestUser inserts a user with a wallet holding the given balances.
func createTestUser(t *testing.T, db *gorm.DB, email string, purchased, earned int) *models.User {
	t.Helper()

	user := &models.User{
		ID:       uuid.NewString(),
		GoogleID: "g-" + uuid.NewString(),
		Email:    email,
		FullName: "Test Player",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	wallet := &models.Wallet{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		PurchasedTokens: purchased,
		EarnedTokens:    earned,
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	return user
}

func getWallet(t *testing.T, db *gorm.DB, userID string) *models.Wallet {
	t.Helper()
	var wallet models.Wallet
	if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		t.Fatalf("load wallet for %s: %v", userID, err)
	}
	return &wallet
}
