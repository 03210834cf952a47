package notify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"walletwatch/internal/core"
)

func TestRenderAlertMessage(t *testing.T) {
	s := core.BudgetSummary{
		BudgetAmount:   decimal.NewFromInt(1000),
		TotalSpent:     decimal.RequireFromString("809.00"),
		Remaining:      decimal.RequireFromString("191.00"),
		PercentageUsed: decimal.RequireFromString("80.9"),
	}

	got := RenderAlertMessage(s)
	want := "WalletWatch Alert: You've used 81% of your monthly budget. Spent: $809.00, Remaining: $191.00"
	assert.Equal(t, want, got)

	// Deterministic for identical input.
	assert.Equal(t, got, RenderAlertMessage(s))
}

func TestRenderAlertMessageOverspend(t *testing.T) {
	s := core.BudgetSummary{
		BudgetAmount:   decimal.NewFromInt(100),
		TotalSpent:     decimal.RequireFromString("150.5"),
		Remaining:      decimal.RequireFromString("-50.5"),
		PercentageUsed: decimal.RequireFromString("150.5"),
	}

	got := RenderAlertMessage(s)
	assert.Contains(t, got, "151%")
	assert.Contains(t, got, "Spent: $150.50")
	assert.Contains(t, got, "Remaining: $-50.50")
}

func TestTwilioConfigConfigured(t *testing.T) {
	assert.False(t, TwilioConfig{}.Configured())
	assert.False(t, TwilioConfig{AccountSID: "AC123", AuthToken: "tok"}.Configured())
	assert.True(t, TwilioConfig{AccountSID: "AC123", AuthToken: "tok", FromNumber: "+15550000000"}.Configured())
}

func TestNewTwilioSenderUnconfigured(t *testing.T) {
	s, err := NewTwilioSender(TwilioConfig{})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
