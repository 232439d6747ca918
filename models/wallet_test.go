package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeductPolicies(t *testing.T) {
	cases := []struct {
		name          string
		policy        DebitPolicy
		amount        int
		ok            bool
		wantPurchased int
		wantEarned    int
	}{
		{"purchased first covers from purchased", DebitPurchasedFirst, 20, true, 10, 20},
		{"purchased first spills into earned", DebitPurchasedFirst, 40, true, 0, 10},
		{"earned first covers from earned", DebitEarnedFirst, 15, true, 30, 5},
		{"earned first spills into purchased", DebitEarnedFirst, 40, true, 10, 0},
		{"exact total balance", DebitPurchasedFirst, 50, true, 0, 0},
		{"over total balance", DebitPurchasedFirst, 51, false, 30, 20},
		{"zero amount", DebitPurchasedFirst, 0, false, 30, 20},
		{"negative amount", DebitEarnedFirst, -5, false, 30, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := &Wallet{PurchasedTokens: 30, EarnedTokens: 20}
			ok := w.Deduct(tc.amount, tc.policy)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.wantPurchased, w.PurchasedTokens)
			assert.Equal(t, tc.wantEarned, w.EarnedTokens)
			if tc.ok {
				assert.Equal(t, tc.amount, w.TotalTokensSpent)
			} else {
				assert.Zero(t, w.TotalTokensSpent)
			}
		})
	}
}

func TestWalletLifetimeCounters(t *testing.T) {
	w := &Wallet{}

	w.AddPurchased(100, 1399)
	w.AddPurchased(200, 2239)
	w.AddEarned(50)

	assert.Equal(t, 300, w.PurchasedTokens)
	assert.Equal(t, 50, w.EarnedTokens)
	assert.Equal(t, 350, w.TotalBalance())
	assert.Equal(t, 300, w.TotalTokensPurchased)
	assert.Equal(t, 50, w.TotalTokensEarned)
	assert.Equal(t, 3638.0, w.TotalSpentPKR)

	// Spending does not shrink the lifetime counters.
	assert.True(t, w.Deduct(350, DebitPurchasedFirst))
	assert.Equal(t, 300, w.TotalTokensPurchased)
	assert.Equal(t, 50, w.TotalTokensEarned)
}
