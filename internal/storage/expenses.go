package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expensedesk/internal/core"
)

// expenseColumns is the canonical projection used by every read.
const expenseColumns = "id, created_at, amount_cents, purpose, description, bill_image, purchase_date, company_name, contact_details"

// ExpenseFilter is a structured search predicate. Nil fields mean "no
// constraint"; set fields combine with AND. Date bounds are inclusive.
type ExpenseFilter struct {
	Purpose *core.Purpose
	From    *core.Date
	To      *core.Date
}

func (f ExpenseFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.Purpose != nil {
		conds = append(conds, "purpose = ?")
		args = append(args, string(*f.Purpose))
	}
	if f.From != nil {
		conds = append(conds, "purchase_date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		conds = append(conds, "purchase_date <= ?")
		args = append(args, f.To.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// InsertExpense stores a new expense and returns it with the assigned ID and
// creation timestamp. The timestamp is server-local and assigned here, never
// by the caller.
func (s *Store) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validate expense: %w", err)
	}

	e.CreatedAt = time.Now().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (created_at, amount_cents, purpose, description, bill_image, purchase_date, company_name, contact_details)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(e.CreatedAt), e.Amount.Cents, string(e.Purpose), e.Description,
		e.Receipt, e.PurchaseDate.String(), e.CompanyName, e.ContactDetails,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense stored",
		"expense_id", e.ID,
		"purpose", string(e.Purpose),
		"amount_cents", e.Amount.Cents)

	return e, nil
}

// UpdateExpense replaces every mutable field of the row identified by e.ID.
// The caller must supply the full record; there is no partial patch. The
// creation timestamp is immutable and not touched.
func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validate expense: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses
		 SET amount_cents = ?, purpose = ?, description = ?, bill_image = ?, purchase_date = ?, company_name = ?, contact_details = ?
		 WHERE id = ?`,
		e.Amount.Cents, string(e.Purpose), e.Description, e.Receipt,
		e.PurchaseDate.String(), e.CompanyName, e.ContactDetails, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update expense %d: %w", e.ID, ErrNotFound)
	}
	return nil
}

// DeleteExpense removes the row by identifier. Deleting a missing identifier
// is a no-op, not a failure.
func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// GetExpense returns a single expense by identifier.
func (s *Store) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns every expense, oldest identifier first.
func (s *Store) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses ORDER BY id")
}

// ListRecentExpenses returns the n most recently created expenses,
// newest first by creation timestamp.
func (s *Store) ListRecentExpenses(ctx context.Context, n int) ([]core.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses ORDER BY created_at DESC, id DESC LIMIT ?", n)
}

// SearchExpenses returns the expenses matching the filter, oldest identifier
// first. An empty filter matches everything.
func (s *Store) SearchExpenses(ctx context.Context, filter ExpenseFilter) ([]core.Expense, error) {
	where, args := filter.where()
	return s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses"+where+" ORDER BY id", args...)
}

func (s *Store) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (core.Expense, error) {
	var (
		e            core.Expense
		createdAt    string
		purpose      string
		purchaseDate string
	)
	if err := row.Scan(&e.ID, &createdAt, &e.Amount.Cents, &purpose,
		&e.Description, &e.Receipt, &purchaseDate, &e.CompanyName, &e.ContactDetails); err != nil {
		return core.Expense{}, err
	}

	// A stored value the layer itself wrote should always parse; failing
	// loudly here is how a corrupted row becomes visible.
	ts, err := parseTime(createdAt)
	if err != nil {
		return core.Expense{}, err
	}
	e.CreatedAt = ts
	e.Purpose = core.Purpose(purpose)
	d, err := core.ParseDate(purchaseDate)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse purchase date %q: %w", purchaseDate, err)
	}
	e.PurchaseDate = d
	return e, nil
}
