// Package memory is an in-process RowAppender used in tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"sync"

	"expensedesk/internal/core"
	"expensedesk/internal/sheets"
)

type Appender struct {
	mu   sync.Mutex
	rows []core.Expense
}

var _ sheets.RowAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

func (a *Appender) AppendExpense(_ context.Context, e core.Expense) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, e)
	return nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []core.Expense {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Expense, len(a.rows))
	copy(out, a.rows)
	return out
}
