package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"walletwatch/internal/core"
	"walletwatch/internal/log"
	"walletwatch/internal/services"
)

type sendAlertRequest struct {
	Message   string `json:"message"`
	Recipient string `json:"recipient"`
}

type alertResponse struct {
	ID           int64            `json:"id"`
	Message      string           `json:"message"`
	Recipient    string           `json:"recipient"`
	Status       core.AlertStatus `json:"status"`
	Timestamp    time.Time        `json:"timestamp"`
	BudgetAmount decimal.Decimal  `json:"budgetAmount"`
	SpentAmount  decimal.Decimal  `json:"spentAmount"`
}

func toAlertResponse(a core.Alert) alertResponse {
	return alertResponse{
		ID:           a.ID,
		Message:      a.Message,
		Recipient:    a.Recipient,
		Status:       a.Status,
		Timestamp:    a.Timestamp,
		BudgetAmount: a.BudgetAmount,
		SpentAmount:  a.SpentAmount,
	}
}

func (s *Server) handleSendAlert(w http.ResponseWriter, r *http.Request) {
	var req sendAlertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondError(w, http.StatusBadRequest, core.ErrEmptyMessage.Error())
		return
	}

	alert, result, err := s.alerts.ManualSend(r.Context(), strings.TrimSpace(req.Recipient), message, decimal.Zero, decimal.Zero)
	if err != nil {
		if errors.Is(err, services.ErrNoRecipient) {
			respondError(w, http.StatusBadRequest, "No recipient configured")
			return
		}
		log.FromContext(r.Context()).Error("Failed to record alert", log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "Failed to send alert")
		return
	}

	if !result.Success {
		// The failed attempt is in the log either way.
		writeJSON(w, http.StatusBadGateway, envelope{
			Success: false,
			Data:    toAlertResponse(alert),
			Error:   "Failed to send alert",
			Message: result.Detail,
		})
		return
	}

	respondData(w, http.StatusOK, toAlertResponse(alert), "Alert sent")
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.ListAlerts(r.Context())
	if err != nil {
		log.FromContext(r.Context()).Error("Failed to list alerts", log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch alert logs")
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertResponse(a))
	}
	respondList(w, out, len(out))
}
