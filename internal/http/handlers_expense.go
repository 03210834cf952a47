package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"walletwatch/internal/core"
	"walletwatch/internal/log"
	"walletwatch/internal/storage"
)

type createExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

type expenseResponse struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date,
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	date := s.clock()
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = parsed
	}

	expense := core.Expense{
		Amount:      req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Date:        date,
	}
	if err := expense.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.expenses.CreateExpense(r.Context(), expense)
	if err != nil {
		log.FromContext(r.Context()).Error("Failed to create expense", log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "Failed to create expense")
		return
	}

	respondData(w, http.StatusCreated, toExpenseResponse(created), "")
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.store.ListExpenses(r.Context())
	if err != nil {
		log.FromContext(r.Context()).Error("Failed to list expenses", log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch expenses")
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	respondList(w, out, len(out))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid expense ID")
		return
	}

	// Read first so the deleted record can be echoed back.
	expense, err := s.store.FindExpense(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Expense not found")
			return
		}
		log.FromContext(r.Context()).Error("Failed to load expense", log.FieldError, err, log.FieldExpenseID, id)
		respondError(w, http.StatusInternalServerError, "Failed to delete expense")
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Expense not found")
			return
		}
		log.FromContext(r.Context()).Error("Failed to delete expense", log.FieldError, err, log.FieldExpenseID, id)
		respondError(w, http.StatusInternalServerError, "Failed to delete expense")
		return
	}

	respondData(w, http.StatusOK, toExpenseResponse(expense), "Expense deleted")
}
