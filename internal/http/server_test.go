package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletwatch/internal/core"
	"walletwatch/internal/log"
	"walletwatch/internal/services"
	"walletwatch/internal/storage"
)

const testAPIKey = "test-api-key"

type fakeSender struct {
	calls []sentMessage
	err   error
}

type sentMessage struct {
	recipient string
	body      string
}

func (f *fakeSender) Send(_ context.Context, recipient, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, sentMessage{recipient: recipient, body: body})
	return fmt.Sprintf("SM%04d", len(f.calls)), nil
}

type testEnv struct {
	server *Server
	sender *fakeSender
	repo   *storage.SQLiteRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "walletwatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	clock := core.Clock(func() time.Time {
		return time.Date(2025, time.May, 15, 12, 0, 0, 0, time.UTC)
	})

	sender := &fakeSender{}
	alerts := services.NewAlertService(repo, sender, "+15559876543", nil, clock, logger)
	expenses := services.NewExpenseService(repo, alerts, nil, logger)

	srv := NewServer(":0", testAPIKey, repo, expenses, alerts, clock, logger)
	t.Cleanup(func() { srv.rateLimiter.stop() })

	return &testEnv{server: srv, sender: sender, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestHealthIsUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "WalletWatch API is running")
}

func TestAPIKeyRequired(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	rec := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "API key is required", decodeEnvelope(t, rec).Error)
}

func TestAPIKeyMismatch(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	rec := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid API key", decodeEnvelope(t, rec).Error)
}

func TestAPIKeyViaAuthorizationHeader(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.Header.Set("Authorization", testAPIKey)
	rec := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyUnconfiguredServer(t *testing.T) {
	env := newTestEnv(t)
	env.server.apiKey = ""

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "API authentication not properly configured", decodeEnvelope(t, rec).Error)
}

func TestCreateAndListExpenses(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/expenses", map[string]any{
		"amount":   "42.50",
		"category": "groceries",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	env0 := decodeEnvelope(t, rec)
	assert.True(t, env0.Success)

	rec = env.do(t, http.MethodGet, "/api/expenses", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	listEnv := decodeEnvelope(t, rec)
	require.NotNil(t, listEnv.Count)
	assert.Equal(t, 1, *listEnv.Count)
}

func TestCreateExpenseValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"zero amount", map[string]any{"amount": "0", "category": "x"}, core.ErrInvalidAmount.Error()},
		{"missing category", map[string]any{"amount": "10"}, core.ErrEmptyCategory.Error()},
		{"bad date", map[string]any{"amount": "10", "category": "x", "date": "not-a-date"}, "invalid date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/expenses", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeEnvelope(t, rec).Error, tt.want)
		})
	}
}

func TestCreateExpenseEmptyBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/expenses", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteExpense(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/expenses", map[string]any{
		"amount":   "10.00",
		"category": "misc",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/expenses/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Expense deleted", decodeEnvelope(t, rec).Message)

	rec = env.do(t, http.MethodDelete, "/api/expenses/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/expenses/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBudgetWhenUnset(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/budget", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	respEnv := decodeEnvelope(t, rec)
	assert.True(t, respEnv.Success)
	assert.Equal(t, "No budget set for current month", respEnv.Message)

	data := respEnv.Data.(map[string]any)
	assert.Equal(t, "0", data["budgetAmount"])
	assert.Equal(t, float64(5), data["month"])
	assert.Equal(t, float64(2025), data["year"])
}

func TestUpsertBudgetReturnsSummary(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/expenses", map[string]any{
		"amount":   "250.00",
		"category": "rent",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/budget", map[string]any{"amount": "1000"})
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, "1000", data["budgetAmount"])
	assert.Equal(t, "250", data["totalSpent"])
	assert.Equal(t, "750", data["remaining"])
	assert.Equal(t, "25", data["percentageUsed"])
	assert.Equal(t, false, data["alertSent"])
}

func TestUpsertBudgetValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/budget", map[string]any{"amount": "-5"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpenseOverThresholdSendsAlert(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/budget", map[string]any{"amount": "1000"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/expenses", map[string]any{
		"amount":   "850.00",
		"category": "travel",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, env.sender.calls, 1)
	assert.Equal(t, "+15559876543", env.sender.calls[0].recipient)
	assert.Contains(t, env.sender.calls[0].body, "WalletWatch Alert")

	rec = env.do(t, http.MethodGet, "/api/budget", nil)
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, true, data["alertSent"])

	rec = env.do(t, http.MethodGet, "/api/alerts/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logsEnv := decodeEnvelope(t, rec)
	require.NotNil(t, logsEnv.Count)
	assert.Equal(t, 1, *logsEnv.Count)
}

func TestManualSendAlert(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/alerts/send", map[string]any{
		"message": "Reminder: review your spending",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alert sent", decodeEnvelope(t, rec).Message)
	require.Len(t, env.sender.calls, 1)
	assert.Equal(t, "+15559876543", env.sender.calls[0].recipient)
}

func TestManualSendAlertRequiresMessage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/alerts/send", map[string]any{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManualSendAlertCustomRecipient(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/alerts/send", map[string]any{
		"message":   "custom",
		"recipient": "+15550001111",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.sender.calls, 1)
	assert.Equal(t, "+15550001111", env.sender.calls[0].recipient)
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/expenses", nil)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/expenses", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRateLimiterBlocksBursts(t *testing.T) {
	rl := newRateLimiter(3)
	defer rl.stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow("10.0.0.1"))
	}
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"))
}
