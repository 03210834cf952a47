// Package storage persists expenses, budgets and the alert ledger in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"walletwatch/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at dbPath and applies
// migrations. The connection pool is capped at one connection: SQLite has a
// single writer anyway, and this keeps ":memory:" databases coherent.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateExpense appends a new expense and returns it with its assigned ID.
// Expenses are immutable once created; there is no update path.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (amount, category, description, date) VALUES (?, ?, ?, ?)`,
		e.Amount.String(), e.Category, e.Description, e.Date.UTC(),
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}
	e.ID = id
	return e, nil
}

// ListExpenses returns every expense, newest first. The threshold pipeline
// recomputes month totals over this full scan rather than a cached figure.
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, category, description, date FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Amount, &e.Category, &e.Description, &e.Date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// DeleteExpense removes one expense. Returns ErrNotFound when no row matched.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindBudget returns the budget for the period, or (nil, nil) when none is
// configured. Absence is a normal state, not an error.
func (r *SQLiteRepository) FindBudget(ctx context.Context, p core.Period) (*core.Budget, error) {
	var (
		b         core.Budget
		alertSent int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, amount, month, year, alert_sent FROM budgets WHERE month = ? AND year = ?`,
		p.Month, p.Year,
	).Scan(&b.ID, &b.Amount, &b.Month, &b.Year, &alertSent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find budget %d/%d: %w", p.Month, p.Year, err)
	}
	if alertSent != 0 {
		b.Latch = core.LatchFired
	}
	return &b, nil
}

// UpsertBudget creates or overwrites the single budget for the period.
// Overwriting re-arms the alert latch for the new ceiling. The UNIQUE
// (month, year) constraint plus ON CONFLICT makes concurrent upserts collapse
// into one row instead of surfacing as corruption.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, p core.Period, amount decimal.Decimal) (*core.Budget, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO budgets (amount, month, year, alert_sent)
		 VALUES (?, ?, ?, 0)
		 ON CONFLICT (month, year) DO UPDATE
		 SET amount = excluded.amount, alert_sent = 0, updated_at = CURRENT_TIMESTAMP
		 RETURNING id`,
		amount.String(), p.Month, p.Year,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("upsert budget %d/%d: %w", p.Month, p.Year, err)
	}

	return &core.Budget{
		ID:     id,
		Amount: amount,
		Month:  p.Month,
		Year:   p.Year,
		Latch:  core.LatchArmed,
	}, nil
}

// MarkAlertSent fires the one-shot latch with a compare-and-set: the update
// only lands when the latch is still armed, so concurrent winners collapse to
// one. Returns false when another writer fired the latch first.
func (r *SQLiteRepository) MarkAlertSent(ctx context.Context, p core.Period) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET alert_sent = 1, updated_at = CURRENT_TIMESTAMP
		 WHERE month = ? AND year = ? AND alert_sent = 0`,
		p.Month, p.Year,
	)
	if err != nil {
		return false, fmt.Errorf("mark alert sent %d/%d: %w", p.Month, p.Year, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark alert sent rows: %w", err)
	}
	return n > 0, nil
}

// AppendAlert records one notification attempt in the append-only ledger.
func (r *SQLiteRepository) AppendAlert(ctx context.Context, a core.Alert) (core.Alert, error) {
	if err := a.Status.Validate(); err != nil {
		return core.Alert{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (message, recipient, status, timestamp, budget_amount, spent_amount)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.Message, a.Recipient, string(a.Status), a.Timestamp.UTC(),
		a.BudgetAmount.String(), a.SpentAmount.String(),
	)
	if err != nil {
		return core.Alert{}, fmt.Errorf("insert alert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Alert{}, fmt.Errorf("alert insert id: %w", err)
	}
	a.ID = id
	return a, nil
}

// ListAlerts returns the full alert history, newest first.
func (r *SQLiteRepository) ListAlerts(ctx context.Context) ([]core.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, message, recipient, status, timestamp, budget_amount, spent_amount
		 FROM alerts ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []core.Alert
	for rows.Next() {
		var (
			a      core.Alert
			status string
		)
		if err := rows.Scan(&a.ID, &a.Message, &a.Recipient, &status, &a.Timestamp,
			&a.BudgetAmount, &a.SpentAmount); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Status = core.AlertStatus(status)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return alerts, nil
}

// FindExpense returns one expense by ID, or ErrNotFound.
func (r *SQLiteRepository) FindExpense(ctx context.Context, id int64) (core.Expense, error) {
	var e core.Expense
	err := r.db.QueryRowContext(ctx,
		`SELECT id, amount, category, description, date FROM expenses WHERE id = ?`,
		id,
	).Scan(&e.ID, &e.Amount, &e.Category, &e.Description, &e.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("find expense %d: %w", id, err)
	}
	return e, nil
}
