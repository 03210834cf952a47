package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"walletwatch/internal/core"
	"walletwatch/internal/log"
	"walletwatch/internal/services"
)

const defaultRateLimit = 60 // requests per minute per client

// Store is the read-side storage surface the HTTP handlers need. Writes go
// through the services so the alert pipeline runs on every expense mutation.
type Store interface {
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	FindExpense(ctx context.Context, id int64) (core.Expense, error)
	FindBudget(ctx context.Context, p core.Period) (*core.Budget, error)
	UpsertBudget(ctx context.Context, p core.Period, amount decimal.Decimal) (*core.Budget, error)
	ListAlerts(ctx context.Context) ([]core.Alert, error)
}

type Server struct {
	http.Server
	apiKey      string
	store       Store
	expenses    *services.ExpenseService
	alerts      *services.AlertService
	clock       core.Clock
	logger      *log.Logger
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

func NewServer(addr, apiKey string, store Store, expenses *services.ExpenseService, alerts *services.AlertService, clock core.Clock, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	if clock == nil {
		clock = core.SystemClock
	}

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		apiKey:      apiKey,
		store:       store,
		expenses:    expenses,
		alerts:      alerts,
		clock:       clock,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(defaultRateLimit),
	}

	// Health is unauthenticated so load balancers can probe it.
	mux.HandleFunc("GET /health", s.wrap(s.handleHealth))

	mux.HandleFunc("POST /api/expenses", s.wrapAuth(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses", s.wrapAuth(s.handleListExpenses))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.wrapAuth(s.handleDeleteExpense))

	mux.HandleFunc("POST /api/budget", s.wrapAuth(s.handleUpsertBudget))
	mux.HandleFunc("GET /api/budget", s.wrapAuth(s.handleGetBudget))

	mux.HandleFunc("POST /api/alerts/send", s.wrapAuth(s.handleSendAlert))
	mux.HandleFunc("GET /api/alerts/logs", s.wrapAuth(s.handleListAlerts))

	return s
}

// wrap applies the middleware common to every route.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return s.withSecurityHeaders(s.withTracing(s.withRateLimit(next)))
}

// wrapAuth additionally gates the route behind the API key.
func (s *Server) wrapAuth(next http.HandlerFunc) http.HandlerFunc {
	return s.wrap(s.requireAPIKey(next))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "WalletWatch API is running",
	})
}

// Shutdown stops the HTTP server and background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// WithTimeouts sets conservative server timeouts.
func (s *Server) WithTimeouts() *Server {
	s.ReadHeaderTimeout = 5 * time.Second
	s.ReadTimeout = 15 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s
}
