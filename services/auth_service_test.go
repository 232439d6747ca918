package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	svc := &AuthService{JWTSecret: "test-secret", TokenTTL: time.Hour}

	token, err := svc.IssueToken("user-1", "player@test.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	issuer := &AuthService{JWTSecret: "secret-a", TokenTTL: time.Hour}
	verifier := &AuthService{JWTSecret: "secret-b", TokenTTL: time.Hour}

	token, err := issuer.IssueToken("user-1", "player@test.com")
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestSessionTokenExpired(t *testing.T) {
	svc := &AuthService{JWTSecret: "test-secret", TokenTTL: -time.Hour}

	token, err := svc.IssueToken("user-1", "player@test.com")
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAdminTokenRejectedByUserParser(t *testing.T) {
	db := newTestDB(t)
	userAuth := &AuthService{JWTSecret: "user-secret", TokenTTL: time.Hour}
	adminSvc := NewAdminService(db, NewWalletService(db), nil)
	adminSvc.JWTSecret = "admin-secret"

	admin := createTestAdmin(t, db, "admin@test.com", "hunter2secret")
	token, err := adminSvc.IssueToken(admin)
	require.NoError(t, err)

	_, err = userAuth.ParseToken(token)
	assert.Error(t, err)

	adminID, role, err := adminSvc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, adminID)
	assert.Equal(t, "superadmin", role)
}
