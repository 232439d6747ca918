package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

// UniqueSlug builds a URL slug from the title and suffixes a counter until no
// row of the given table claims it.
func UniqueSlug(db *gorm.DB, table, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "tournament"
	}

	candidate := base
	for i := 1; ; i++ {
		var count int64
		if err := db.Table(table).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

const roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRoomID returns a random uppercase alphanumeric room identifier.
func GenerateRoomID(length int) string {
	return randomString(roomIDAlphabet, length)
}

// GenerateNumericCode returns a random digit string, used for room passwords
// and WhatsApp verification codes.
func GenerateNumericCode(length int) string {
	return randomString("0123456789", length)
}

func randomString(alphabet string, length int) string {
	var b strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String()
}

var pkrPrinter = message.NewPrinter(language.English)

// FormatPKR renders an amount as "Rs. 1,399" for receipts and notifications.
func FormatPKR(amount float64) string {
	return pkrPrinter.Sprintf("Rs. %.0f", amount)
}

// FormatUSD renders an amount as "$17.99".
func FormatUSD(amount float64) string {
	return pkrPrinter.Sprintf("$%.2f", amount)
}

// MaskPhone hides the middle of a phone number for logs:
// +923001234567 -> +9230***4567.
func MaskPhone(phone string) string {
	if len(phone) < 8 {
		return phone
	}
	return phone[:5] + "***" + phone[len(phone)-4:]
}
