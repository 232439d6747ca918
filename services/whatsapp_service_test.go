package services

import (
	"testing"
	"time"

	"gan-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatInternational(t *testing.T) {
	cases := map[string]string{
		"03001234567":     "923001234567",
		"+923001234567":   "923001234567",
		"923001234567":    "923001234567",
		"0300 123-4567":   "923001234567",
		"+92 300 1234567": "923001234567",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatInternational(in), "input %q", in)
	}
}

func TestCheckCode(t *testing.T) {
	svc := &WhatsAppService{DevMode: true}

	future := time.Now().UTC().Add(10 * time.Minute)
	past := time.Now().UTC().Add(-time.Minute)

	user := &models.User{WhatsAppCode: "123456", WhatsAppCodeExpiresAt: &future}
	assert.NoError(t, svc.checkCode(user, "123456"))
	assert.ErrorIs(t, svc.checkCode(user, "654321"), ErrCodeMismatch)

	expired := &models.User{WhatsAppCode: "123456", WhatsAppCodeExpiresAt: &past}
	assert.ErrorIs(t, svc.checkCode(expired, "123456"), ErrCodeExpired)

	blank := &models.User{}
	assert.ErrorIs(t, svc.checkCode(blank, "123456"), ErrCodeMismatch)
}
