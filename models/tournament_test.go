package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRegistrationOpen(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	base := Tournament{
		Status:            TournamentRegistrationOpen,
		RegistrationStart: &past,
		RegistrationEnd:   &future,
		MaxParticipants:   10,
	}

	open := base
	assert.True(t, open.IsRegistrationOpen())

	wrongStatus := base
	wrongStatus.Status = TournamentDraft
	assert.False(t, wrongStatus.IsRegistrationOpen())

	notStarted := base
	notStarted.RegistrationStart = &future
	assert.False(t, notStarted.IsRegistrationOpen())

	ended := base
	ended.RegistrationEnd = &past
	assert.False(t, ended.IsRegistrationOpen())

	full := base
	full.CurrentParticipants = 10
	assert.False(t, full.IsRegistrationOpen())

	// Missing window bounds do not block an open tournament.
	noWindow := base
	noWindow.RegistrationStart = nil
	noWindow.RegistrationEnd = nil
	assert.True(t, noWindow.IsRegistrationOpen())
}

func TestSlotsAvailable(t *testing.T) {
	tt := Tournament{MaxParticipants: 10, CurrentParticipants: 7}
	assert.Equal(t, 3, tt.SlotsAvailable())

	tt.CurrentParticipants = 12
	assert.Equal(t, 0, tt.SlotsAvailable())
}

func TestPlacementReward(t *testing.T) {
	tt := Tournament{
		FirstPlaceReward:  500,
		SecondPlaceReward: 300,
		ThirdPlaceReward:  100,
		FourthPlaceReward: 50,
		FifthPlaceReward:  25,
	}
	assert.Equal(t, 500, tt.PlacementReward(1))
	assert.Equal(t, 25, tt.PlacementReward(5))
	assert.Zero(t, tt.PlacementReward(0))
	assert.Zero(t, tt.PlacementReward(6))
}

func TestBundleTotalTokens(t *testing.T) {
	b := TokenBundle{Tokens: 200, BonusTokens: 10}
	assert.Equal(t, 210, b.TotalTokens())
}
