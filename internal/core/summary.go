// Package core holds the budget domain model and the pure calculation and
// threshold logic. Nothing in this package performs I/O.
package core

import "github.com/shopspring/decimal"

// BudgetSummary is the month-to-date picture for one budget period.
// All amounts are rounded to 2 decimal places, half away from zero.
type BudgetSummary struct {
	BudgetAmount   decimal.Decimal
	TotalSpent     decimal.Decimal
	Remaining      decimal.Decimal
	PercentageUsed decimal.Decimal
}

// Summarize computes spend-vs-budget figures for the given period over the
// full expense collection. Expenses outside the period are ignored. Remaining
// may go negative when overspent; PercentageUsed is 0 whenever the budget
// amount is not positive, so a missing or zero budget never divides by zero.
func Summarize(budgetAmount decimal.Decimal, expenses []Expense, p Period) BudgetSummary {
	total := decimal.Zero
	for _, e := range expenses {
		if p.Contains(e.Date) {
			total = total.Add(e.Amount)
		}
	}

	pct := decimal.Zero
	if budgetAmount.GreaterThan(decimal.Zero) {
		pct = total.Div(budgetAmount).Mul(decimal.NewFromInt(100))
	}

	return BudgetSummary{
		BudgetAmount:   budgetAmount.Round(2),
		TotalSpent:     total.Round(2),
		Remaining:      budgetAmount.Sub(total).Round(2),
		PercentageUsed: pct.Round(2),
	}
}
