package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gan-backend/models"
	"gan-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newRouteTestApp(t *testing.T) (*fiber.App, *gorm.DB, *services.AuthService) {
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
		&models.Tournament{},
		&models.Registration{},
	))

	auth := &services.AuthService{DB: db, JWTSecret: "route-test-secret", TokenTTL: time.Hour}
	wallets := services.NewWalletService(db)
	tournaments := services.NewTournamentService(db, wallets, &services.WhatsAppService{DevMode: true})

	app := fiber.New()
	SetupTournamentRoutes(app, auth, tournaments)
	return app, db, auth
}

func getTournamentDetail(t *testing.T, app *fiber.App, tournamentID, token string) map[string]interface{} {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/tournaments/"+tournamentID, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestTournamentDetailRevealsRoomToRegisteredUser(t *testing.T) {
	app, db, auth := newRouteTestApp(t)

	user := &models.User{
		ID:       uuid.NewString(),
		GoogleID: "g-" + uuid.NewString(),
		Email:    "player@test.dev",
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)

	tournament := &models.Tournament{
		ID:              uuid.NewString(),
		Title:           "Room Reveal Cup",
		Slug:            "room-reveal-cup",
		Game:            models.GameFreeFire,
		Status:          models.TournamentActive,
		StartDate:       time.Now().UTC(),
		MaxParticipants: 10,
		RoomID:          "ROOM42",
		RoomPassword:    "pw-1234",
	}
	require.NoError(t, db.Create(tournament).Error)

	registration := &models.Registration{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		TournamentID: tournament.ID,
		Status:       models.RegistrationConfirmed,
	}
	require.NoError(t, db.Create(registration).Error)

	token, err := auth.IssueToken(user.ID, user.Email)
	require.NoError(t, err)

	body := getTournamentDetail(t, app, tournament.ID, token)
	assert.Equal(t, true, body["is_registered"])
	assert.Equal(t, "ROOM42", body["room_id"])
	assert.Equal(t, "pw-1234", body["room_password"])
}

func TestTournamentDetailHidesRoomFromAnonymousAndUnregistered(t *testing.T) {
	app, db, auth := newRouteTestApp(t)

	tournament := &models.Tournament{
		ID:              uuid.NewString(),
		Title:           "Closed Room Cup",
		Slug:            "closed-room-cup",
		Game:            models.GamePUBG,
		Status:          models.TournamentActive,
		StartDate:       time.Now().UTC(),
		MaxParticipants: 10,
		RoomID:          "ROOM42",
		RoomPassword:    "pw-1234",
	}
	require.NoError(t, db.Create(tournament).Error)

	// Anonymous caller
	body := getTournamentDetail(t, app, tournament.ID, "")
	assert.NotContains(t, body, "room_id")
	assert.NotContains(t, body, "room_password")
	assert.NotContains(t, body, "is_registered")

	// Authenticated but not registered
	bystander := &models.User{
		ID:       uuid.NewString(),
		GoogleID: "g-" + uuid.NewString(),
		Email:    "bystander@test.dev",
		IsActive: true,
	}
	require.NoError(t, db.Create(bystander).Error)
	token, err := auth.IssueToken(bystander.ID, bystander.Email)
	require.NoError(t, err)

	body = getTournamentDetail(t, app, tournament.ID, token)
	assert.NotContains(t, body, "room_id")
	assert.NotContains(t, body, "room_password")
}

func TestTournamentDetailIgnoresInvalidToken(t *testing.T) {
	app, db, _ := newRouteTestApp(t)

	tournament := &models.Tournament{
		ID:              uuid.NewString(),
		Title:           "Open Browse Cup",
		Slug:            "open-browse-cup",
		Game:            models.GameValorant,
		Status:          models.TournamentActive,
		StartDate:       time.Now().UTC(),
		MaxParticipants: 10,
	}
	require.NoError(t, db.Create(tournament).Error)

	// A garbage token must not turn the public detail route into a 401.
	body := getTournamentDetail(t, app, tournament.ID, "not-a-jwt")
	assert.Equal(t, tournament.Slug, body["slug"])
	assert.NotContains(t, body, "is_registered")
}
