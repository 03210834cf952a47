package notify

import (
	"fmt"

	"walletwatch/internal/core"
)

// RenderAlertMessage builds the alert text from a budget summary. The
// percentage is rounded to the nearest integer, money values are formatted to
// two decimals. Same inputs always produce the same text.
func RenderAlertMessage(s core.BudgetSummary) string {
	return fmt.Sprintf(
		"WalletWatch Alert: You've used %s%% of your monthly budget. Spent: $%s, Remaining: $%s",
		s.PercentageUsed.Round(0).String(),
		s.TotalSpent.StringFixed(2),
		s.Remaining.StringFixed(2),
	)
}
