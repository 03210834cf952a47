package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Amount:   decimal.NewFromFloat(12.50),
		Category: "food",
		Date:     time.Now(),
	}
	assert.NoError(t, good.Validate())

	cases := []struct {
		name string
		e    Expense
		want error
	}{
		{"zero amount", Expense{Amount: decimal.Zero, Category: "food"}, ErrInvalidAmount},
		{"negative amount", Expense{Amount: decimal.NewFromInt(-5), Category: "food"}, ErrInvalidAmount},
		{"missing category", Expense{Amount: decimal.NewFromInt(5)}, ErrEmptyCategory},
		{"blank category", Expense{Amount: decimal.NewFromInt(5), Category: "   "}, ErrEmptyCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.e.Validate(), tc.want)
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{Amount: decimal.NewFromInt(1000), Month: 6, Year: 2025}
	assert.NoError(t, good.Validate())

	cases := []struct {
		name string
		b    Budget
		want error
	}{
		{"zero amount", Budget{Month: 6, Year: 2025}, ErrInvalidAmount},
		{"month too low", Budget{Amount: decimal.NewFromInt(1), Month: 0, Year: 2025}, ErrInvalidMonth},
		{"month too high", Budget{Amount: decimal.NewFromInt(1), Month: 13, Year: 2025}, ErrInvalidMonth},
		{"year below floor", Budget{Amount: decimal.NewFromInt(1), Month: 6, Year: 1999}, ErrInvalidYear},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.b.Validate(), tc.want)
		})
	}
}

func TestAlertStatusValidate(t *testing.T) {
	for _, s := range []AlertStatus{AlertSent, AlertFailed, AlertPending} {
		assert.NoError(t, s.Validate())
	}
	assert.ErrorIs(t, AlertStatus("delivered").Validate(), ErrInvalidStatus)
}

func TestPeriodContains(t *testing.T) {
	p := Period{Month: 3, Year: 2025}

	assert.True(t, p.Contains(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
}

func TestCurrentPeriod(t *testing.T) {
	clock := Clock(func() time.Time {
		return time.Date(2025, 11, 14, 8, 30, 0, 0, time.UTC)
	})
	assert.Equal(t, Period{Month: 11, Year: 2025}, CurrentPeriod(clock))
}

func TestAlertLatch(t *testing.T) {
	assert.False(t, LatchArmed.Fired())
	assert.True(t, LatchFired.Fired())
	assert.Equal(t, "armed", LatchArmed.String())
	assert.Equal(t, "fired", LatchFired.String())
}
