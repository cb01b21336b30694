// Package sheets defines the outbound port for mirroring expenses to a
// spreadsheet.
package sheets

import (
	"context"

	"expensedesk/internal/core"
)

// RowAppender appends one expense as a spreadsheet row. Receipt images are
// binary and never leave the database; implementations mirror only the
// textual columns.
type RowAppender interface {
	AppendExpense(ctx context.Context, e core.Expense) error
}
