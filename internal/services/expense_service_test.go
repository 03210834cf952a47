package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletwatch/internal/amqp"
	"walletwatch/internal/core"
	"walletwatch/internal/storage"
)

type fakePublisher struct {
	events []*amqp.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event *amqp.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func TestCreateExpenseTriggersCheck(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	sender := &fakeSender{}
	clock := testClock()
	alerts := NewAlertService(repo, sender, "+15550001111", nil, clock, testLogger())
	svc := NewExpenseService(repo, alerts, nil, testLogger())

	_, err := repo.UpsertBudget(ctx, core.Period{Month: 5, Year: 2025}, decimal.NewFromInt(100))
	require.NoError(t, err)

	created, err := svc.CreateExpense(ctx, core.Expense{
		Amount:   decimal.RequireFromString("90.00"),
		Category: "food",
		Date:     clock(),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	// 90% >= 80%: the write itself triggered the dispatch.
	assert.Len(t, sender.calls, 1)
}

func TestCreateExpensePublishesEvents(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	pub := &fakePublisher{}
	alerts := NewAlertService(repo, &fakeSender{}, "", pub, testClock(), testLogger())
	svc := NewExpenseService(repo, alerts, pub, testLogger())

	created, err := svc.CreateExpense(ctx, core.Expense{
		Amount:   decimal.NewFromInt(10),
		Category: "misc",
		Date:     time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NotEmpty(t, pub.events)
	assert.Equal(t, amqp.EventExpenseCreated, pub.events[0].Type)
	assert.Equal(t, created.ID, pub.events[0].ExpenseID)

	require.NoError(t, svc.DeleteExpense(ctx, created.ID))
	last := pub.events[len(pub.events)-1]
	assert.Equal(t, amqp.EventExpenseDeleted, last.Type)
}

func TestCreateExpenseSurvivesBrokenPublisher(t *testing.T) {
	repo := newRepo(t)
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewExpenseService(repo, nil, pub, testLogger())

	_, err := svc.CreateExpense(context.Background(), core.Expense{
		Amount:   decimal.NewFromInt(5),
		Category: "misc",
		Date:     time.Now().UTC(),
	})
	assert.NoError(t, err)
}

func TestDeleteExpenseNeverTouchesAlerts(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	sender := &fakeSender{}
	clock := testClock()
	alerts := NewAlertService(repo, sender, "+15550001111", nil, clock, testLogger())
	svc := NewExpenseService(repo, alerts, nil, testLogger())

	_, err := repo.UpsertBudget(ctx, core.Period{Month: 5, Year: 2025}, decimal.NewFromInt(100))
	require.NoError(t, err)

	created, err := svc.CreateExpense(ctx, core.Expense{
		Amount:   decimal.RequireFromString("90.00"),
		Category: "food",
		Date:     clock(),
	})
	require.NoError(t, err)
	require.Len(t, sender.calls, 1)

	before, err := repo.ListAlerts(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteExpense(ctx, created.ID))

	after, err := repo.ListAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
	assert.Len(t, sender.calls, 1, "deletion must not re-evaluate the threshold")

	assert.ErrorIs(t, svc.DeleteExpense(ctx, created.ID), storage.ErrNotFound)
}
