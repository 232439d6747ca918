package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPKR(t *testing.T) {
	assert.Equal(t, "Rs. 1,399", FormatPKR(1399))
	assert.Equal(t, "Rs. 19,599", FormatPKR(19599))
	assert.Equal(t, "Rs. 0", FormatPKR(0))
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$17.99", FormatUSD(17.99))
	assert.Equal(t, "$4.99", FormatUSD(4.99))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "+9230***4567", MaskPhone("+923001234567"))
	assert.Equal(t, "1234", MaskPhone("1234"))
}

func TestGenerateNumericCode(t *testing.T) {
	code := GenerateNumericCode(6)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}

func TestGenerateRoomID(t *testing.T) {
	id := GenerateRoomID(8)
	assert.Len(t, id, 8)
	for _, r := range id {
		ok := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		assert.True(t, ok, "unexpected character %q", r)
	}
}
