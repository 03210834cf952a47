package core

import "github.com/shopspring/decimal"

// AlertThreshold is the fraction of the budget at which the alert fires.
// Fixed at 80% in this version; making it configurable is a known limitation.
var AlertThreshold = decimal.NewFromFloat(0.8)

// ShouldAlert decides whether a threshold alert is due. It is deterministic
// and side-effect free: the decision holds only for the snapshot it was given.
//
// The latch makes the alert one-shot per budget period: once fired, no spend
// value re-triggers it until the budget is upserted and the latch re-armed.
func ShouldAlert(b *Budget, totalSpent decimal.Decimal) bool {
	if b == nil || b.Amount.LessThanOrEqual(decimal.Zero) {
		return false
	}
	if b.Latch.Fired() {
		return false
	}
	return totalSpent.GreaterThanOrEqual(b.Amount.Mul(AlertThreshold))
}
