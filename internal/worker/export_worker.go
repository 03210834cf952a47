// Package worker consumes the event feed and mirrors created expenses into
// the Google Sheets export.
package worker

import (
	"context"
	"errors"
	"fmt"

	"walletwatch/internal/amqp"
	"walletwatch/internal/core"
	"walletwatch/internal/log"
	"walletwatch/internal/storage"
)

// ExpenseFinder loads the full expense record behind an event's ID.
type ExpenseFinder interface {
	FindExpense(ctx context.Context, id int64) (core.Expense, error)
}

// RowAppender writes one expense row to the export destination.
type RowAppender interface {
	AppendExpenseRow(ctx context.Context, e core.Expense) error
}

type ExportWorker struct {
	finder   ExpenseFinder
	appender RowAppender
	logger   *log.Logger
}

func NewExportWorker(finder ExpenseFinder, appender RowAppender, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		finder:   finder,
		appender: appender,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Handle processes one event from the feed. A returned error requeues the
// event, so errors are reserved for transient failures worth retrying.
func (w *ExportWorker) Handle(ctx context.Context, event *amqp.Event) error {
	switch event.Type {
	case amqp.EventExpenseCreated:
		return w.exportExpense(ctx, event.ExpenseID)
	case amqp.EventExpenseDeleted:
		// The export is append-only; deletions stay in the sheet.
		w.logger.Debug("Skipping deleted expense", log.FieldExpenseID, event.ExpenseID)
		return nil
	case amqp.EventAlertDispatched:
		w.logger.Info("Alert dispatched",
			log.FieldEventType, event.Type,
			log.FieldAlertStatus, event.Status,
		)
		return nil
	default:
		w.logger.Warn("Unknown event type", log.FieldEventType, event.Type)
		return nil
	}
}

func (w *ExportWorker) exportExpense(ctx context.Context, id int64) error {
	expense, err := w.finder.FindExpense(ctx, id)
	if err != nil {
		// Deleted before the worker got to it: nothing to export.
		if errors.Is(err, storage.ErrNotFound) {
			w.logger.Warn("Expense vanished before export", log.FieldExpenseID, id)
			return nil
		}
		return fmt.Errorf("load expense %d: %w", id, err)
	}

	if err := w.appender.AppendExpenseRow(ctx, expense); err != nil {
		return fmt.Errorf("append expense %d: %w", id, err)
	}

	w.logger.Info("Exported expense",
		log.FieldExpenseID, id,
		log.FieldCategory, expense.Category,
	)
	return nil
}
