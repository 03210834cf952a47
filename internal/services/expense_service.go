package services

import (
	"context"
	"fmt"

	"walletwatch/internal/amqp"
	"walletwatch/internal/core"
	"walletwatch/internal/log"
)

// ExpenseStore is the persistence surface for expense writes.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
}

// ExpenseService owns the expense write path: persist first, then run the
// detached side effects (event feed, threshold evaluation).
type ExpenseService struct {
	store     ExpenseStore
	alerts    *AlertService
	publisher Publisher
	logger    *log.Logger
}

func NewExpenseService(store ExpenseStore, alerts *AlertService, publisher Publisher, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		store:     store,
		alerts:    alerts,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentApp),
	}
}

// CreateExpense persists the expense and then triggers the threshold check.
// The check and the event publish are best-effort: once the row is stored,
// nothing downstream can fail this call.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishEvent(ctx, amqp.NewExpenseCreated(created.ID))

	if s.alerts != nil {
		if err := s.alerts.CheckBudget(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Budget alert check failed",
				log.FieldError, err,
				log.FieldExpenseID, created.ID)
		}
	}

	return created, nil
}

// DeleteExpense removes the expense. Deletion never touches alerts and never
// re-evaluates the threshold.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}

	s.publishEvent(ctx, amqp.NewExpenseDeleted(id))
	return nil
}

func (s *ExpenseService) publishEvent(ctx context.Context, event *amqp.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			log.FieldError, err,
			log.FieldEventType, event.Type)
	}
}
