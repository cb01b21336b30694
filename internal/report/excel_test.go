package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"expensedesk/internal/core"
)

func TestExcelEmpty(t *testing.T) {
	_, err := Excel(nil)
	assert.ErrorIs(t, err, ErrNoExpenses)
	_, err = Excel([]core.Expense{})
	assert.ErrorIs(t, err, ErrNoExpenses)
}

func TestExcel(t *testing.T) {
	expenses := []core.Expense{
		{
			ID:             1,
			CreatedAt:      time.Date(2024, 1, 15, 9, 30, 0, 0, time.Local),
			Amount:         core.Money{Cents: 50000},
			Purpose:        core.PurposeBooks,
			Description:    "reference books",
			PurchaseDate:   core.NewDate(2024, 1, 15),
			Receipt:        []byte{0x01, 0x02, 0x03},
			CompanyName:    "City Bookstore",
			ContactDetails: "books@example.com",
		},
		{
			ID:           2,
			CreatedAt:    time.Date(2024, 2, 1, 12, 0, 0, 0, time.Local),
			Amount:       core.Money{Cents: 1999},
			Purpose:      core.PurposeTravel,
			PurchaseDate: core.NewDate(2024, 2, 1),
		},
	}

	data, err := Excel(expenses)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per expense")

	assert.Equal(t, headers, rows[0])
	assert.NotContains(t, rows[0], "Receipt", "binary receipt column is excluded")

	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "2024-01-15 09:30:00", rows[1][1])
	assert.Equal(t, "500.00", rows[1][2])
	assert.Equal(t, "Books", rows[1][3])
	assert.Equal(t, "reference books", rows[1][4])
	assert.Equal(t, "2024-01-15", rows[1][5])
	assert.Equal(t, "City Bookstore", rows[1][6])
	assert.Equal(t, "books@example.com", rows[1][7])

	assert.Equal(t, "19.99", rows[2][2])
	assert.Equal(t, "Travel", rows[2][3])
}
