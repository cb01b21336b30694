package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensedesk/internal/core"
	"expensedesk/internal/events"
	"expensedesk/internal/storage"
)

type recordingPublisher struct {
	published []events.EventType
	ids       []int64
	err       error
}

func (p *recordingPublisher) PublishExpenseEvent(_ context.Context, t events.EventType, id int64) error {
	p.published = append(p.published, t)
	p.ids = append(p.ids, id)
	return p.err
}

func newTestService(t *testing.T, pub EventPublisher) *ExpenseService {
	t.Helper()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewExpenseService(store, pub)
}

func sample() core.Expense {
	return core.Expense{
		Amount:       core.Money{Cents: 50000},
		Purpose:      core.PurposeBooks,
		PurchaseDate: core.NewDate(2024, 1, 15),
	}
}

func TestAddExpensePublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(t, pub)

	inserted, err := svc.AddExpense(context.Background(), sample())
	require.NoError(t, err)
	assert.Positive(t, inserted.ID)

	require.Len(t, pub.published, 1)
	assert.Equal(t, events.ExpenseCreated, pub.published[0])
	assert.Equal(t, inserted.ID, pub.ids[0])
}

func TestAddExpenseSurvivesPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(t, pub)

	inserted, err := svc.AddExpense(context.Background(), sample())
	require.NoError(t, err, "publish failure must not fail the write")

	got, err := svc.GetExpense(context.Background(), inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, got.ID)
}

func TestAddExpenseWithoutPublisher(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.AddExpense(context.Background(), sample())
	assert.NoError(t, err)
}

func TestModifyAndDeletePublishEvents(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	inserted, err := svc.AddExpense(ctx, sample())
	require.NoError(t, err)

	updated := inserted
	updated.Purpose = core.PurposeTravel
	require.NoError(t, svc.ModifyExpense(ctx, updated))
	require.NoError(t, svc.DeleteExpense(ctx, inserted.ID))

	assert.Equal(t, []events.EventType{
		events.ExpenseCreated,
		events.ExpenseUpdated,
		events.ExpenseDeleted,
	}, pub.published)
}

func TestModifyMissingExpense(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(t, pub)

	e := sample()
	e.ID = 404
	err := svc.ModifyExpense(context.Background(), e)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, pub.published, "failed writes are never announced")
}

func TestDashboard(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		e := sample()
		if i%2 == 0 {
			e.Purpose = core.PurposeTravel
		}
		_, err := svc.AddExpense(ctx, e)
		require.NoError(t, err)
	}

	summary, recent, err := svc.Dashboard(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, summary.Count)
	assert.Equal(t, int64(7*50000), summary.Total.Cents)
	assert.Len(t, recent, 5)
	assert.Len(t, summary.ByPurpose, 2)
}
