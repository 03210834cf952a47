package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"walletwatch/internal/core"
	"walletwatch/internal/log"
)

type upsertBudgetRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type budgetResponse struct {
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	BudgetAmount   decimal.Decimal `json:"budgetAmount"`
	TotalSpent     decimal.Decimal `json:"totalSpent"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed decimal.Decimal `json:"percentageUsed"`
	AlertSent      bool            `json:"alertSent"`
}

func toBudgetResponse(p core.Period, summary core.BudgetSummary, latch core.AlertLatch) budgetResponse {
	return budgetResponse{
		Month:          p.Month,
		Year:           p.Year,
		BudgetAmount:   summary.BudgetAmount,
		TotalSpent:     summary.TotalSpent,
		Remaining:      summary.Remaining,
		PercentageUsed: summary.PercentageUsed,
		AlertSent:      latch.Fired(),
	}
}

// summarizePeriod loads expenses and computes the month-to-date picture for
// the given budget amount.
func (s *Server) summarizePeriod(r *http.Request, p core.Period, budgetAmount decimal.Decimal) (core.BudgetSummary, error) {
	expenses, err := s.store.ListExpenses(r.Context())
	if err != nil {
		return core.BudgetSummary{}, err
	}
	return core.Summarize(budgetAmount, expenses, p), nil
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req upsertBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	period := core.CurrentPeriod(s.clock)
	budget := core.Budget{Amount: req.Amount, Month: period.Month, Year: period.Year}
	if err := budget.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Upserting re-arms the alert latch for the period.
	saved, err := s.store.UpsertBudget(r.Context(), period, req.Amount)
	if err != nil {
		log.FromContext(r.Context()).Error("Failed to save budget", log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "Failed to save budget")
		return
	}

	summary, err := s.summarizePeriod(r, period, saved.Amount)
	if err != nil {
		log.FromContext(r.Context()).Error("Failed to summarize budget", log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "Failed to save budget")
		return
	}

	respondData(w, http.StatusOK, toBudgetResponse(period, summary, saved.Latch), "Budget saved")
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	period := core.CurrentPeriod(s.clock)

	budget, err := s.store.FindBudget(r.Context(), period)
	if err != nil {
		log.FromContext(r.Context()).Error("Failed to load budget", log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch budget")
		return
	}

	if budget == nil {
		// No budget for the period: report an all-zero summary rather
		// than a 404 so clients can render the status unconditionally.
		summary := core.Summarize(decimal.Zero, nil, period)
		respondData(w, http.StatusOK, toBudgetResponse(period, summary, core.LatchArmed), "No budget set for current month")
		return
	}

	summary, err := s.summarizePeriod(r, period, budget.Amount)
	if err != nil {
		log.FromContext(r.Context()).Error("Failed to summarize budget", log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch budget")
		return
	}

	respondData(w, http.StatusOK, toBudgetResponse(period, summary, budget.Latch), "")
}
