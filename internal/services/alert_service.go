// Package services wires the budget-threshold pipeline: recompute month
// spend, evaluate the threshold, dispatch the notification and record the
// outcome. Alerting is a best-effort side effect of the expense write and
// must never fail it.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"walletwatch/internal/amqp"
	"walletwatch/internal/core"
	"walletwatch/internal/log"
	"walletwatch/internal/notify"
)

// ErrNoRecipient is returned by ManualSend when neither the request nor the
// configuration names a destination.
var ErrNoRecipient = errors.New("no recipient configured")

// Store is the persistence surface the alert pipeline needs.
type Store interface {
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	FindBudget(ctx context.Context, p core.Period) (*core.Budget, error)
	MarkAlertSent(ctx context.Context, p core.Period) (bool, error)
	AppendAlert(ctx context.Context, a core.Alert) (core.Alert, error)
}

// Publisher emits post-commit events. A nil Publisher disables the feed.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.Event) error
}

// DispatchResult is the normalized outcome of one channel call. The channel's
// failure never propagates as an error: the orchestrator always proceeds to
// the ledger with whatever status came back.
type DispatchResult struct {
	Success bool
	Status  core.AlertStatus
	Detail  string
}

// AlertService runs threshold evaluation and notification dispatch.
type AlertService struct {
	store     Store
	sender    notify.Sender // nil when the SMS channel is not configured
	recipient string
	publisher Publisher
	clock     core.Clock
	logger    *log.Logger
}

func NewAlertService(store Store, sender notify.Sender, recipient string, publisher Publisher, clock core.Clock, logger *log.Logger) *AlertService {
	if clock == nil {
		clock = core.SystemClock
	}
	return &AlertService{
		store:     store,
		sender:    sender,
		recipient: recipient,
		publisher: publisher,
		clock:     clock,
		logger:    logger.WithComponent(log.ComponentAlerts),
	}
}

// Dispatch sends one message over the channel and normalizes the outcome.
// An unconfigured channel short-circuits to a failed result without a call,
// so the attempt is still recordable.
func (s *AlertService) Dispatch(ctx context.Context, recipient, message string) DispatchResult {
	if s.sender == nil {
		s.logger.WarnContext(ctx, "SMS channel not configured, alert will be logged but not sent")
		return DispatchResult{Status: core.AlertFailed, Detail: "sms channel not configured"}
	}

	sid, err := s.sender.Send(ctx, recipient, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to send SMS",
			log.FieldError, err,
			log.FieldRecipient, recipient)
		return DispatchResult{Status: core.AlertFailed, Detail: err.Error()}
	}

	s.logger.InfoContext(ctx, "SMS sent", log.FieldMessageSID, sid, log.FieldRecipient, recipient)
	return DispatchResult{Success: true, Status: core.AlertSent, Detail: sid}
}

// DispatchAndRecord performs one dispatch attempt and appends exactly one
// ledger entry carrying the attempt's actual status. A ledger write failure
// is returned to the caller: "notification failed" and "we couldn't even log
// that we tried" are different failure classes.
func (s *AlertService) DispatchAndRecord(ctx context.Context, recipient, message string, budgetAmount, spentAmount decimal.Decimal) (core.Alert, DispatchResult, error) {
	result := s.Dispatch(ctx, recipient, message)

	alert, err := s.store.AppendAlert(ctx, core.Alert{
		Message:      message,
		Recipient:    recipient,
		Status:       result.Status,
		Timestamp:    s.clock(),
		BudgetAmount: budgetAmount,
		SpentAmount:  spentAmount,
	})
	if err != nil {
		return core.Alert{}, result, fmt.Errorf("record alert: %w", err)
	}

	s.publishEvent(ctx, amqp.NewAlertDispatched(alert.ID, string(result.Status)))

	return alert, result, nil
}

// ManualSend is the operator-initiated dispatch+log path, outside the
// automatic trigger. Snapshot amounts may be zero when the operator supplies
// none.
func (s *AlertService) ManualSend(ctx context.Context, recipient, message string, budgetAmount, spentAmount decimal.Decimal) (core.Alert, DispatchResult, error) {
	if recipient == "" {
		recipient = s.recipient
	}
	if recipient == "" {
		return core.Alert{}, DispatchResult{}, ErrNoRecipient
	}
	return s.DispatchAndRecord(ctx, recipient, message, budgetAmount, spentAmount)
}

// CheckBudget is the per-expense-write orchestration: recompute the current
// period's spend, evaluate the threshold, dispatch, record, and fire the
// latch. The period comes from the clock, not the expense's own date, so a
// backdated expense is still evaluated against today's budget.
//
// Every failure in here is terminal but non-fatal: the caller logs the
// returned error and the originating expense write succeeds regardless.
func (s *AlertService) CheckBudget(ctx context.Context) error {
	period := core.CurrentPeriod(s.clock)

	budget, err := s.store.FindBudget(ctx, period)
	if err != nil {
		return fmt.Errorf("find budget: %w", err)
	}
	if budget == nil {
		// Nothing to evaluate against; not an error.
		return nil
	}

	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	summary := core.Summarize(budget.Amount, expenses, period)
	if !core.ShouldAlert(budget, summary.TotalSpent) {
		return nil
	}

	message := notify.RenderAlertMessage(summary)
	alert, result, err := s.DispatchAndRecord(ctx, s.recipient, message, summary.BudgetAmount, summary.TotalSpent)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Budget threshold alert dispatched",
		log.FieldAlertStatus, string(result.Status),
		log.FieldBudgetAmount, summary.BudgetAmount.String(),
		log.FieldSpentAmount, summary.TotalSpent.String(),
		log.FieldMonth, period.Month,
		log.FieldYear, period.Year)

	if !result.Success {
		// Latch stays armed so the next expense re-triggers evaluation.
		return nil
	}

	flipped, err := s.store.MarkAlertSent(ctx, period)
	if err != nil {
		// Tolerated: the alert went out and was logged, but the latch did not
		// flip. Worst case is one duplicate alert on the next write.
		s.logger.ErrorContext(ctx, "Failed to fire alert latch after send",
			log.FieldError, err,
			log.FieldMonth, period.Month,
			log.FieldYear, period.Year,
			"alert_id", alert.ID)
		return nil
	}
	if !flipped {
		s.logger.DebugContext(ctx, "Alert latch already fired by a concurrent write",
			log.FieldMonth, period.Month,
			log.FieldYear, period.Year)
	}

	return nil
}

func (s *AlertService) publishEvent(ctx context.Context, event *amqp.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			log.FieldError, err,
			log.FieldEventType, event.Type)
	}
}
