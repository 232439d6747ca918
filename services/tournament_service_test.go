package services

import (
	"testing"
	"time"

	"gan-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTournamentService(db *gorm.DB) *TournamentService {
	wallets := NewWalletService(db)
	whatsapp := &WhatsAppService{DB: db, DevMode: true}
	return NewTournamentService(db, wallets, whatsapp)
}

func createOpenTournament(t *testing.T, db *gorm.DB, entryFee int) *models.Tournament {
	t.Helper()

	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)
	tournament := &models.Tournament{
		ID:                uuid.NewString(),
		Title:             "Weekend Cup",
		Slug:              "weekend-cup-" + uuid.NewString()[:8],
		Game:              models.GamePUBG,
		EntryFee:          entryFee,
		PrizePool:         1000,
		FirstPlaceReward:  500,
		SecondPlaceReward: 300,
		ThirdPlaceReward:  100,
		MaxParticipants:   10,
		MinParticipants:   2,
		RegistrationStart: &start,
		RegistrationEnd:   &end,
		StartDate:         time.Now().UTC().Add(2 * time.Hour),
		Status:            models.TournamentRegistrationOpen,
	}
	require.NoError(t, db.Create(tournament).Error)
	return tournament
}

func TestRegisterDebitsEntryFee(t *testing.T) {
	db := newTestDB(t)
	svc := newTournamentService(db)
	user := createTestUser(t, db, "player@test.com", 100, 0)
	tournament := createOpenTournament(t, db, 60)

	reg, err := svc.Register(user.ID, tournament.ID, "PLAYER123", "")
	require.NoError(t, err)

	assert.Equal(t, models.RegistrationConfirmed, reg.Status)
	assert.Equal(t, 60, reg.TokensPaid)
	require.NotEmpty(t, reg.TransactionID)

	var txn models.Transaction
	require.NoError(t, db.First(&txn, "id = ?", reg.TransactionID).Error)
	assert.Equal(t, models.TransactionTypeEntry, txn.Type)
	assert.Equal(t, tournament.ID, txn.TournamentID)

	assert.Equal(t, 40, getWallet(t, db, user.ID).PurchasedTokens)

	var updated models.Tournament
	require.NoError(t, db.First(&updated, "id = ?", tournament.ID).Error)
	assert.Equal(t, 1, updated.CurrentParticipants)
}

func TestRegisterFreeTournamentSkipsDebit(t *testing.T) {
	db := newTestDB(t)
	svc := newTournamentService(db)
	user := createTestUser(t, db, "player@test.com", 0, 0)
	tournament := createOpenTournament(t, db, 0)

	reg, err := svc.Register(user.ID, tournament.ID, "PLAYER123", "")
	require.NoError(t, err)
	assert.Empty(t, reg.TransactionID)
	assert.Zero(t, reg.TokensPaid)
}

func TestRegisterInsufficientBalanceLeavesNothingBehind(t *testing.T) {
	db := newTestDB(t)
	svc := newTournamentService(db)
	user := createTestUser(t, db, "broke@test.com", 10, 5)
	tournament := createOpenTournament(t, db, 60)

	_, err := svc.Register(user.ID, tournament.ID, "PLAYER123", "")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// The whole registration rolled back: no registration row, no ledger row,
	// participant count unchanged, wallet untouched.
	var regCount, txnCount int64
	db.Model(&models.Registration{}).Where("user_id = ?", user.ID).Count(&regCount)
	db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&txnCount)
	assert.Zero(t, regCount)
	assert.Zero(t, txnCount)

	var updated models.Tournament
	require.NoError(t, db.First(&updated, "id = ?", tournament.ID).Error)
	assert.Zero(t, updated.CurrentParticipants)
	assert.Equal(t, 10, getWallet(t, db, user.ID).PurchasedTokens)
}

func TestRegisterTwiceRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newTournamentService(db)
	user := createTestUser(t, db, "player@test.com", 200, 0)
	tournament := createOpenTournament(t, db, 50)

	_, err := svc.Register(user.ID, tournament.ID, "PLAYER123", "")
	require.NoError(t, err)

	_, err = svc.Register(user.ID, tournament.ID, "PLAYER123", "")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	// The second attempt must not charge the wallet again.
	assert.Equal(t, 150, getWallet(t, db, user.ID).PurchasedTokens)
}

func TestRegisterAgainAfterCancellation(t *testing.T) {
	db := newTestDB(t)
	svc := newTournamentService(db)
	user := createTestUser(t, db, "player@test.com", 200, 0)
	tournament := createOpenTournament(t, db, 50)

	reg, err := svc.Register(user.ID, tournament.ID, "PLAYER123", "")
	require.NoError(t, err)

	reg.Cancel()
	require.NoError(t, db.Save(reg).Error)

	_, err = svc.Register(user.ID, tournament.ID, "PLAYER123", "")
	require.NoError(t, err)
}

func TestActiveRegistrationUniqueIndex(t *testing.T) {
	// Concurrent registrations can both pass the read check; the composite
	// unique index on (user_id, tournament_id, active_key) is what guarantees
	// only one of them commits. Insert the second row directly to exercise
	// the constraint without the read check in the way.
	db := newTestDB(t)
	svc := newTournamentService(db)
	user := createTestUser(t, db, "player@test.com", 200, 0)
	tournament := createOpenTournament(t, db, 50)

	reg, err := svc.Register(user.ID, tournament.ID, "PLAYER123", "")
	require.NoError(t, err)

	duplicate := &models.Registration{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		TournamentID: tournament.ID,
		Status:       models.RegistrationConfirmed,
	}
	err = db.Create(duplicate).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Cancelling rewrites active_key with the row id, freeing the slot.
	reg.Cancel()
	require.NoError(t, db.Save(reg).Error)
	require.NoError(t, db.Create(duplicate).Error)
}

func TestRegisterClosedTournament(t *testing.T) {
	db := newTestDB(t)
	svc := newTournamentService(db)
	user := createTestUser(t, db, "player@test.com", 200, 0)

	tournament := createOpenTournament(t, db, 50)
	require.NoError(t, db.Model(tournament).Update("status", models.TournamentDraft).Error)

	_, err := svc.Register(user.ID, tournament.ID, "PLAYER123", "")
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterFullTournament(t *testing.T) {
	db := newTestDB(t)
	svc := newTournamentService(db)
	user := createTestUser(t, db, "player@test.com", 200, 0)

	tournament := createOpenTournament(t, db, 50)
	require.NoError(t, db.Model(tournament).Update("current_participants", tournament.MaxParticipants).Error)

	_, err := svc.Register(user.ID, tournament.ID, "PLAYER123", "")
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestDistributeRewards(t *testing.T) {
	db := newTestDB(t)
	svc := newTournamentService(db)
	tournament := createOpenTournament(t, db, 50)

	winner := createTestUser(t, db, "winner@test.com", 100, 0)
	runnerUp := createTestUser(t, db, "runnerup@test.com", 100, 0)
	for _, u := range []*models.User{winner, runnerUp} {
		_, err := svc.Register(u.ID, tournament.ID, "P-"+u.ID[:8], "")
		require.NoError(t, err)
	}

	// Third place left unfilled on purpose.
	err := svc.DistributeRewards(tournament.ID, map[int]string{
		1: winner.ID,
		2: runnerUp.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, 500, getWallet(t, db, winner.ID).EarnedTokens)
	assert.Equal(t, 300, getWallet(t, db, runnerUp.ID).EarnedTokens)

	var reg models.Registration
	require.NoError(t, db.Where("user_id = ? AND tournament_id = ?", winner.ID, tournament.ID).First(&reg).Error)
	assert.Equal(t, 1, reg.Position)
	assert.Equal(t, 500, reg.RewardEarned)
	assert.NotEmpty(t, reg.RewardTransactionID)

	var rewardTxn models.Transaction
	require.NoError(t, db.First(&rewardTxn, "id = ?", reg.RewardTransactionID).Error)
	assert.Equal(t, models.TransactionTypeReward, rewardTxn.Type)
	assert.Equal(t, models.TokenClassEarned, rewardTxn.TokenClass)

	var updated models.Tournament
	require.NoError(t, db.First(&updated, "id = ?", tournament.ID).Error)
	assert.Equal(t, models.TournamentCompleted, updated.Status)
}

func TestDistributeRewardsUnknownTournament(t *testing.T) {
	db := newTestDB(t)
	svc := newTournamentService(db)

	err := svc.DistributeRewards(uuid.NewString(), map[int]string{})
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestAdvanceTournamentsLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := newTournamentService(db)

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	opening := &models.Tournament{
		ID: uuid.NewString(), Title: "Opening", Slug: "opening",
		Game: models.GameFreeFire, Status: models.TournamentUpcoming,
		RegistrationStart: &past, RegistrationEnd: &future,
		StartDate: future, MaxParticipants: 10, MinParticipants: 2,
	}
	closing := &models.Tournament{
		ID: uuid.NewString(), Title: "Closing", Slug: "closing",
		Game: models.GameFreeFire, Status: models.TournamentRegistrationOpen,
		RegistrationEnd: &past,
		StartDate:       future, MaxParticipants: 10, MinParticipants: 2,
	}
	starting := &models.Tournament{
		ID: uuid.NewString(), Title: "Starting", Slug: "starting",
		Game: models.GameFreeFire, Status: models.TournamentRegistrationClosed,
		StartDate: past, MaxParticipants: 10, MinParticipants: 2,
	}
	require.NoError(t, db.Create([]*models.Tournament{opening, closing, starting}).Error)

	svc.advanceTournaments()

	statusOf := func(id string) models.TournamentStatus {
		var tt models.Tournament
		require.NoError(t, db.First(&tt, "id = ?", id).Error)
		return tt.Status
	}
	assert.Equal(t, models.TournamentRegistrationOpen, statusOf(opening.ID))
	assert.Equal(t, models.TournamentRegistrationClosed, statusOf(closing.ID))
	assert.Equal(t, models.TournamentActive, statusOf(starting.ID))
}
