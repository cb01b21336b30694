package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"expensedesk/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

func sha256hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// StoreTestSuite runs every storage test against a fresh in-memory database.
type StoreTestSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	store, err := Open(":memory:")
	require.NoError(s.T(), err, "failed to open test database")
	s.store = store
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) sampleExpense() core.Expense {
	return core.Expense{
		Amount:         core.Money{Cents: 50000},
		Purpose:        core.PurposeBooks,
		Description:    "reference books for the library",
		PurchaseDate:   core.NewDate(2024, 1, 15),
		Receipt:        []byte{0xff, 0xd8, 0xff, 0xe0, 0x01, 0x02},
		CompanyName:    "City Bookstore",
		ContactDetails: "books@example.com",
	}
}

func (s *StoreTestSuite) TestInsertAndListExpense() {
	want := s.sampleExpense()
	inserted, err := s.store.InsertExpense(s.ctx, want)
	require.NoError(s.T(), err)
	assert.Positive(s.T(), inserted.ID)
	assert.False(s.T(), inserted.CreatedAt.IsZero(), "creation timestamp is assigned at insert")

	all, err := s.store.ListExpenses(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 1)

	got := all[0]
	assert.Equal(s.T(), inserted.ID, got.ID)
	assert.Equal(s.T(), want.Amount, got.Amount)
	assert.Equal(s.T(), want.Purpose, got.Purpose)
	assert.Equal(s.T(), want.Description, got.Description)
	assert.Equal(s.T(), "2024-01-15", got.PurchaseDate.String())
	assert.Equal(s.T(), want.Receipt, got.Receipt, "image bytes must round-trip exactly")
	assert.Equal(s.T(), want.CompanyName, got.CompanyName)
	assert.Equal(s.T(), want.ContactDetails, got.ContactDetails)
}

func (s *StoreTestSuite) TestInsertRejectsInvalidExpense() {
	e := s.sampleExpense()
	e.Amount = core.Money{}
	_, err := s.store.InsertExpense(s.ctx, e)
	assert.ErrorIs(s.T(), err, core.ErrInvalidAmount)

	e = s.sampleExpense()
	e.Purpose = ""
	_, err = s.store.InsertExpense(s.ctx, e)
	assert.ErrorIs(s.T(), err, core.ErrEmptyPurpose)

	all, err := s.store.ListExpenses(s.ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), all, "invalid expenses never reach the store")
}

func (s *StoreTestSuite) TestUpdateReplacesEveryMutableField() {
	inserted, err := s.store.InsertExpense(s.ctx, s.sampleExpense())
	require.NoError(s.T(), err)

	replacement := core.Expense{
		ID:             inserted.ID,
		Amount:         core.Money{Cents: 123456},
		Purpose:        core.PurposeTravel,
		Description:    "train tickets",
		PurchaseDate:   core.NewDate(2024, 2, 2),
		Receipt:        nil, // receipt may be cleared
		CompanyName:    "Rail Co",
		ContactDetails: "+91 98765 43210",
	}
	require.NoError(s.T(), s.store.UpdateExpense(s.ctx, replacement))

	got, err := s.store.GetExpense(s.ctx, inserted.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), replacement.Amount, got.Amount)
	assert.Equal(s.T(), replacement.Purpose, got.Purpose)
	assert.Equal(s.T(), replacement.Description, got.Description)
	assert.Equal(s.T(), "2024-02-02", got.PurchaseDate.String())
	assert.Empty(s.T(), got.Receipt)
	assert.Equal(s.T(), replacement.CompanyName, got.CompanyName)
	assert.Equal(s.T(), replacement.ContactDetails, got.ContactDetails)
	assert.Equal(s.T(), inserted.CreatedAt, got.CreatedAt, "creation timestamp is immutable")
}

func (s *StoreTestSuite) TestUpdateRejectsPartialRecord() {
	inserted, err := s.store.InsertExpense(s.ctx, s.sampleExpense())
	require.NoError(s.T(), err)

	// A partial-looking update (zero amount, no purpose) fails validation
	// before any SQL runs; callers must carry every field forward.
	err = s.store.UpdateExpense(s.ctx, core.Expense{ID: inserted.ID, Description: "only this"})
	assert.Error(s.T(), err)

	got, err := s.store.GetExpense(s.ctx, inserted.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.PurposeBooks, got.Purpose, "row must be untouched")
}

func (s *StoreTestSuite) TestUpdateMissingExpense() {
	e := s.sampleExpense()
	e.ID = 9999
	err := s.store.UpdateExpense(s.ctx, e)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *StoreTestSuite) TestDeleteExpense() {
	first, err := s.store.InsertExpense(s.ctx, s.sampleExpense())
	require.NoError(s.T(), err)
	second, err := s.store.InsertExpense(s.ctx, s.sampleExpense())
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.store.DeleteExpense(s.ctx, first.ID))

	all, err := s.store.ListExpenses(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 1)
	assert.Equal(s.T(), second.ID, all[0].ID)

	// Deleting a non-existent identifier is a no-op, not a failure.
	assert.NoError(s.T(), s.store.DeleteExpense(s.ctx, 9999))
}

func (s *StoreTestSuite) TestListRecentExpenses() {
	for i := 0; i < 7; i++ {
		_, err := s.store.InsertExpense(s.ctx, s.sampleExpense())
		require.NoError(s.T(), err)
	}

	recent, err := s.store.ListRecentExpenses(s.ctx, 5)
	require.NoError(s.T(), err)
	require.Len(s.T(), recent, 5)

	// Newest first; identical timestamps fall back to descending ID.
	for i := 1; i < len(recent); i++ {
		prev, cur := recent[i-1], recent[i]
		assert.False(s.T(), prev.CreatedAt.Before(cur.CreatedAt))
		if prev.CreatedAt.Equal(cur.CreatedAt) {
			assert.Greater(s.T(), prev.ID, cur.ID)
		}
	}
}

func (s *StoreTestSuite) insertOn(day core.Date, purpose core.Purpose) core.Expense {
	e := s.sampleExpense()
	e.PurchaseDate = day
	e.Purpose = purpose
	inserted, err := s.store.InsertExpense(s.ctx, e)
	require.NoError(s.T(), err)
	return inserted
}

func (s *StoreTestSuite) TestSearchByDateRangeInclusiveBounds() {
	before := s.insertOn(core.NewDate(2023, 12, 31), core.PurposeBooks)
	onStart := s.insertOn(core.NewDate(2024, 1, 1), core.PurposeBooks)
	middle := s.insertOn(core.NewDate(2024, 1, 15), core.PurposeBooks)
	onEnd := s.insertOn(core.NewDate(2024, 1, 31), core.PurposeBooks)
	after := s.insertOn(core.NewDate(2024, 2, 1), core.PurposeBooks)

	from := core.NewDate(2024, 1, 1)
	to := core.NewDate(2024, 1, 31)
	got, err := s.store.SearchExpenses(s.ctx, ExpenseFilter{From: &from, To: &to})
	require.NoError(s.T(), err)

	ids := make([]int64, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(s.T(), []int64{onStart.ID, middle.ID, onEnd.ID}, ids)
	assert.NotContains(s.T(), ids, before.ID)
	assert.NotContains(s.T(), ids, after.ID)
}

func (s *StoreTestSuite) TestSearchByPurposeAndDateRange() {
	books := s.insertOn(core.NewDate(2024, 1, 10), core.PurposeBooks)
	s.insertOn(core.NewDate(2024, 1, 10), core.PurposeTravel)
	s.insertOn(core.NewDate(2024, 3, 10), core.PurposeBooks)

	purpose := core.PurposeBooks
	from := core.NewDate(2024, 1, 1)
	to := core.NewDate(2024, 1, 31)
	got, err := s.store.SearchExpenses(s.ctx, ExpenseFilter{Purpose: &purpose, From: &from, To: &to})
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1)
	assert.Equal(s.T(), books.ID, got[0].ID)
}

func (s *StoreTestSuite) TestSearchWithEmptyFilterMatchesEverything() {
	s.insertOn(core.NewDate(2024, 1, 1), core.PurposeBooks)
	s.insertOn(core.NewDate(2025, 6, 1), core.PurposeEvent)

	got, err := s.store.SearchExpenses(s.ctx, ExpenseFilter{})
	require.NoError(s.T(), err)
	assert.Len(s.T(), got, 2, "missing filter means no constraint, not match-empty")
}

func (s *StoreTestSuite) TestSearchNoMatches() {
	s.insertOn(core.NewDate(2024, 1, 1), core.PurposeBooks)

	from := core.NewDate(2030, 1, 1)
	to := core.NewDate(2030, 12, 31)
	got, err := s.store.SearchExpenses(s.ctx, ExpenseFilter{From: &from, To: &to})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), got)
}

// TestConcurrentAccessSharesOneDatabase guards the in-memory pool setup:
// every statement must land on the connection that ran the migrations, so
// concurrent writers and readers all see the same schema and rows.
func (s *StoreTestSuite) TestConcurrentAccessSharesOneDatabase() {
	const workers = 4

	g, ctx := errgroup.WithContext(s.ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			if _, err := s.store.InsertExpense(ctx, s.sampleExpense()); err != nil {
				return err
			}
			_, err := s.store.ListExpenses(ctx)
			return err
		})
	}
	require.NoError(s.T(), g.Wait())

	all, err := s.store.ListExpenses(s.ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, workers)
}

func (s *StoreTestSuite) TestQueryAfterTransactionalWrite() {
	// CreateUser holds a transaction internally; follow-up reads on the
	// plain handle must still find the shared schema.
	require.NoError(s.T(), s.store.CreateUser(s.ctx, core.User{
		Username:     "meera",
		PasswordHash: sha256hex("pw"),
		Role:         core.RoleEmployee,
	}))

	_, err := s.store.InsertExpense(s.ctx, s.sampleExpense())
	require.NoError(s.T(), err)
	all, err := s.store.ListExpenses(s.ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 1)
}

func (s *StoreTestSuite) TestCorruptedPurchaseDateSurfacesError() {
	inserted, err := s.store.InsertExpense(s.ctx, s.sampleExpense())
	require.NoError(s.T(), err)

	_, err = s.store.db.ExecContext(s.ctx,
		"UPDATE expenses SET purchase_date = 'not-a-date' WHERE id = ?", inserted.ID)
	require.NoError(s.T(), err)

	_, err = s.store.GetExpense(s.ctx, inserted.ID)
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "purchase date")
}

func (s *StoreTestSuite) TestCorruptedTimestampSurfacesError() {
	inserted, err := s.store.InsertExpense(s.ctx, s.sampleExpense())
	require.NoError(s.T(), err)

	_, err = s.store.db.ExecContext(s.ctx,
		"UPDATE expenses SET created_at = 'garbage' WHERE id = ?", inserted.ID)
	require.NoError(s.T(), err)

	_, err = s.store.GetExpense(s.ctx, inserted.ID)
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "parse timestamp")
}

func (s *StoreTestSuite) TestCreateUserAndGetRole() {
	u := core.User{Username: "meera", PasswordHash: sha256hex("pw"), Role: core.RoleEmployee}
	require.NoError(s.T(), s.store.CreateUser(s.ctx, u))

	role, err := s.store.GetUserRole(s.ctx, "meera", sha256hex("pw"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.RoleEmployee, role)

	_, err = s.store.GetUserRole(s.ctx, "meera", sha256hex("wrong"))
	assert.ErrorIs(s.T(), err, ErrNoMatch)
	_, err = s.store.GetUserRole(s.ctx, "ghost", sha256hex("pw"))
	assert.ErrorIs(s.T(), err, ErrNoMatch)
}

func (s *StoreTestSuite) TestCreateUserDuplicate() {
	u := core.User{Username: "meera", PasswordHash: sha256hex("pw"), Role: core.RoleEmployee}
	require.NoError(s.T(), s.store.CreateUser(s.ctx, u))

	err := s.store.CreateUser(s.ctx, u)
	assert.ErrorIs(s.T(), err, ErrUsernameTaken)

	count, err := s.store.UserCount(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, count)
}

func (s *StoreTestSuite) TestSeedAdminIsIdempotent() {
	admin := core.User{Username: "radha", PasswordHash: sha256hex("kalki"), Role: core.RoleAdmin}
	require.NoError(s.T(), s.store.SeedAdmin(s.ctx, admin))
	require.NoError(s.T(), s.store.SeedAdmin(s.ctx, admin))

	count, err := s.store.UserCount(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, count)

	role, err := s.store.GetUserRole(s.ctx, "radha", sha256hex("kalki"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.RoleAdmin, role)
}

// TestEndToEndScenario walks the seeded-admin flow from the functional
// checklist: seed, authenticate both ways, insert, then find by date range.
func (s *StoreTestSuite) TestEndToEndScenario() {
	require.NoError(s.T(), s.store.SeedAdmin(s.ctx, core.User{
		Username:     "radha",
		PasswordHash: sha256hex("kalki"),
		Role:         core.RoleAdmin,
	}))

	role, err := s.store.GetUserRole(s.ctx, "radha", sha256hex("kalki"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.RoleAdmin, role)

	_, err = s.store.GetUserRole(s.ctx, "radha", sha256hex("wrong"))
	assert.ErrorIs(s.T(), err, ErrNoMatch)

	inserted, err := s.store.InsertExpense(s.ctx, core.Expense{
		Amount:       core.Money{Cents: 50000},
		Purpose:      core.PurposeBooks,
		PurchaseDate: core.NewDate(2024, 1, 15),
	})
	require.NoError(s.T(), err)

	from := core.NewDate(2024, 1, 1)
	to := core.NewDate(2024, 1, 31)
	got, err := s.store.SearchExpenses(s.ctx, ExpenseFilter{From: &from, To: &to})
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1)
	assert.Equal(s.T(), inserted.ID, got[0].ID)
	assert.Equal(s.T(), int64(50000), got[0].Amount.Cents)
}
