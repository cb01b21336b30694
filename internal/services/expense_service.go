// Package services orchestrates the storage layer with the optional event
// publisher. Handlers call a service; the service decides what persists and
// what gets announced.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"expensedesk/internal/core"
	"expensedesk/internal/events"
	"expensedesk/internal/storage"
)

// EventPublisher is what the service needs from the AMQP client. A nil
// publisher disables event publishing without branching at every call site
// beyond the nil check in publish.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, eventType events.EventType, expenseID int64) error
}

// ExpenseService coordinates expense writes across SQLite and AMQP.
type ExpenseService struct {
	store     *storage.Store
	publisher EventPublisher
}

func NewExpenseService(store *storage.Store, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{store: store, publisher: publisher}
}

// AddExpense validates and persists a new expense, then announces it.
// Publish failures are logged, never surfaced: the expense is already safe
// in SQLite.
func (s *ExpenseService) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	inserted, err := s.store.InsertExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}

	s.publish(ctx, events.ExpenseCreated, inserted.ID)
	return inserted, nil
}

// ModifyExpense replaces the stored record identified by e.ID with e.
func (s *ExpenseService) ModifyExpense(ctx context.Context, e core.Expense) error {
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("modify expense %d: %w", e.ID, err)
	}

	s.publish(ctx, events.ExpenseUpdated, e.ID)
	return nil
}

// DeleteExpense removes an expense. A missing identifier is not an error.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	s.publish(ctx, events.ExpenseDeleted, id)
	return nil
}

// GetExpense loads a single expense by identifier.
func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// ListExpenses returns every stored expense in insertion order.
func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx)
}

// SearchExpenses returns the expenses matching filter.
func (s *ExpenseService) SearchExpenses(ctx context.Context, filter storage.ExpenseFilter) ([]core.Expense, error) {
	return s.store.SearchExpenses(ctx, filter)
}

// Dashboard aggregates the full expense history plus the most recent
// entries for the landing page.
func (s *ExpenseService) Dashboard(ctx context.Context, recent int) (core.DashboardSummary, []core.Expense, error) {
	all, err := s.store.ListExpenses(ctx)
	if err != nil {
		return core.DashboardSummary{}, nil, fmt.Errorf("load expenses: %w", err)
	}

	latest, err := s.store.ListRecentExpenses(ctx, recent)
	if err != nil {
		return core.DashboardSummary{}, nil, fmt.Errorf("load recent expenses: %w", err)
	}

	return core.Summarize(all), latest, nil
}

func (s *ExpenseService) publish(ctx context.Context, t events.EventType, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, t, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", string(t), "expense_id", id, "error", err)
	}
}
