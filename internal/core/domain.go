package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MinBudgetYear is the earliest calendar year a budget may be created for.
const MinBudgetYear = 2000

const (
	AlertSent    AlertStatus = "sent"
	AlertFailed  AlertStatus = "failed"
	AlertPending AlertStatus = "pending"
)

type (
	// AlertStatus is the recorded outcome of one notification attempt.
	AlertStatus string

	// AlertLatch is the one-shot state of a budget period: once fired, no
	// further alerts go out until the budget is re-armed by an upsert.
	AlertLatch uint8

	// Clock supplies "now". The orchestrator derives the current budget
	// period from a single injected Clock so every step agrees on the time.
	Clock func() time.Time

	// Period identifies one budget cycle. Month is 1-indexed (1-12)
	// everywhere in this codebase; Year is the four-digit calendar year.
	Period struct {
		Month int
		Year  int
	}

	Expense struct {
		ID          int64
		Amount      decimal.Decimal
		Category    string
		Description string
		Date        time.Time
	}

	Budget struct {
		ID     int64
		Amount decimal.Decimal
		Month  int
		Year   int
		Latch  AlertLatch
	}

	// Alert is an append-only record of one notification attempt, with the
	// budget/spend snapshot that triggered the decision.
	Alert struct {
		ID           int64
		Message      string
		Recipient    string
		Status       AlertStatus
		Timestamp    time.Time
		BudgetAmount decimal.Decimal
		SpentAmount  decimal.Decimal
	}
)

const (
	LatchArmed AlertLatch = iota
	LatchFired
)

var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrEmptyCategory = errors.New("category is required")
	ErrEmptyMessage  = errors.New("message is required")
	ErrInvalidMonth  = errors.New("month must be between 1 and 12")
	ErrInvalidYear   = errors.New("year is too far in the past")
	ErrInvalidStatus = errors.New("invalid alert status")
)

// SystemClock is the wall-clock Clock used outside tests.
var SystemClock Clock = time.Now

func (s AlertStatus) Validate() error {
	switch s {
	case AlertSent, AlertFailed, AlertPending:
		return nil
	}
	return ErrInvalidStatus
}

// Fired reports whether the latch has already fired for this period.
func (l AlertLatch) Fired() bool { return l == LatchFired }

func (l AlertLatch) String() string {
	if l == LatchFired {
		return "fired"
	}
	return "armed"
}

// PeriodOf returns the budget period the given instant falls into.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// CurrentPeriod derives the active budget period from the clock.
func CurrentPeriod(clock Clock) Period {
	return PeriodOf(clock())
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < MinBudgetYear {
		return ErrInvalidYear
	}
	return nil
}

// Contains reports whether t falls within this calendar month.
func (p Period) Contains(t time.Time) bool {
	return int(t.Month()) == p.Month && t.Year() == p.Year
}

func (e Expense) Validate() error {
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return b.Period().Validate()
}

func (b Budget) Period() Period {
	return Period{Month: b.Month, Year: b.Year}
}
