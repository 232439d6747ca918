package services

import (
	"testing"

	"gan-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestAdmin(t *testing.T, db *gorm.DB, email, password string) *models.AdminUser {
	t.Helper()
	admin := &models.AdminUser{
		ID:       uuid.NewString(),
		Email:    email,
		Role:     "superadmin",
		IsActive: true,
	}
	require.NoError(t, admin.SetPassword(password))
	require.NoError(t, db.Create(admin).Error)
	return admin
}

func TestParsePlacement(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"1st", 1, false},
		{"2nd", 2, false},
		{"3rd", 3, false},
		{"4th", 4, false},
		{"5TH", 5, false},
		{"6th", 0, true},
		{"0", 0, true},
		{"first", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := parsePlacement(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestGrantTokensWritesBonusLedgerRow(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	user := createTestUser(t, db, "player@test.com", 0, 0)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, _, err := wallets.Credit(tx, user.ID, 100, models.TokenClassEarned, CreditOptions{
			Type:        models.TransactionTypeBonus,
			Description: "Admin token grant",
		})
		return err
	})
	require.NoError(t, err)

	var txn models.Transaction
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&txn).Error)
	assert.Equal(t, models.TransactionTypeBonus, txn.Type)
	assert.Equal(t, models.TransactionCompleted, txn.Status)
	assert.Equal(t, 100, getWallet(t, db, user.ID).EarnedTokens)
}

func TestMaintenanceSettingsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdminService(db, NewWalletService(db), nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.setSetting(tx, models.SettingMaintenanceEnabled, "true"); err != nil {
			return err
		}
		return svc.setSetting(tx, models.SettingMaintenanceMessage, "back soon")
	})
	require.NoError(t, err)

	assert.Equal(t, "true", svc.getSetting(models.SettingMaintenanceEnabled))
	assert.Equal(t, "back soon", svc.getSetting(models.SettingMaintenanceMessage))

	// Overwrite, not duplicate.
	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.setSetting(tx, models.SettingMaintenanceEnabled, "false")
	})
	require.NoError(t, err)
	assert.Equal(t, "false", svc.getSetting(models.SettingMaintenanceEnabled))

	var count int64
	db.Model(&models.SiteSetting{}).Where("key = ?", models.SettingMaintenanceEnabled).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAdminPasswordHashing(t *testing.T) {
	db := newTestDB(t)
	admin := createTestAdmin(t, db, "admin@test.com", "hunter2secret")

	assert.True(t, admin.CheckPassword("hunter2secret"))
	assert.False(t, admin.CheckPassword("wrong"))
	assert.NotContains(t, admin.PasswordHash, "hunter2secret")
}
