// Package worker mirrors expense changes into a spreadsheet, driven by
// events from the broker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"expensedesk/internal/events"
	"expensedesk/internal/sheets"
	"expensedesk/internal/storage"
)

// MirrorWorker consumes expense events and appends the current database row
// to the configured spreadsheet. Deletions and updates are recorded as fresh
// rows; the database stays the source of truth.
//
// A high-water mark of the largest mirrored ID lets the periodic catch-up
// sweep pick up rows created while the broker was unreachable.
type MirrorWorker struct {
	store    *storage.Store
	appender sheets.RowAppender

	mu           sync.Mutex
	lastMirrored int64
}

func NewMirrorWorker(store *storage.Store, appender sheets.RowAppender) *MirrorWorker {
	return &MirrorWorker{store: store, appender: appender}
}

// HandleEvent processes one expense event. Events for rows that no longer
// exist are acknowledged without mirroring.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *events.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"type", string(event.Type),
		"expense_id", event.ExpenseID)

	if event.Type == events.ExpenseDeleted {
		slog.InfoContext(ctx, "Expense deleted, nothing to mirror",
			"expense_id", event.ExpenseID)
		return nil
	}

	expense, err := w.store.GetExpense(ctx, event.ExpenseID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Expense gone before mirroring, dropping event",
			"expense_id", event.ExpenseID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load expense %d: %w", event.ExpenseID, err)
	}

	if err := w.appender.AppendExpense(ctx, expense); err != nil {
		return fmt.Errorf("mirror expense %d: %w", event.ExpenseID, err)
	}
	w.advanceWatermark(expense.ID)

	slog.InfoContext(ctx, "Mirrored expense",
		"expense_id", event.ExpenseID,
		"purpose", string(expense.Purpose))
	return nil
}

// CatchUp mirrors up to batchSize rows above the current watermark. It
// covers expenses written while the broker connection was down.
func (w *MirrorWorker) CatchUp(ctx context.Context, batchSize int) error {
	all, err := w.store.ListExpenses(ctx)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	watermark := w.watermark()
	mirrored := 0
	for _, e := range all {
		if e.ID <= watermark {
			continue
		}
		if mirrored >= batchSize {
			break
		}
		if err := w.appender.AppendExpense(ctx, e); err != nil {
			return fmt.Errorf("mirror expense %d: %w", e.ID, err)
		}
		w.advanceWatermark(e.ID)
		mirrored++
	}

	if mirrored > 0 {
		slog.InfoContext(ctx, "Catch-up sweep mirrored expenses", "count", mirrored)
	}
	return nil
}

func (w *MirrorWorker) watermark() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastMirrored
}

func (w *MirrorWorker) advanceWatermark(id int64) {
	w.mu.Lock()
	if id > w.lastMirrored {
		w.lastMirrored = id
	}
	w.mu.Unlock()
}
