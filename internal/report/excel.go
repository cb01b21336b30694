// Package report renders expense lists as downloadable xlsx workbooks.
package report

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"expensedesk/internal/core"
)

// ErrNoExpenses is returned when there is nothing to export. Callers show a
// "nothing found" message instead of serving an empty workbook.
var ErrNoExpenses = errors.New("no expenses to export")

const sheetName = "Expenses"

// headers is the fixed column order of the export. Receipt images are
// binary and are deliberately left out of the workbook.
var headers = []string{
	"ID",
	"Date",
	"Amount",
	"Purpose",
	"Description",
	"Purchase Date",
	"Company Name",
	"Contact Details",
}

// Excel builds an xlsx workbook from expenses and returns the file bytes.
func Excel(expenses []core.Expense) ([]byte, error) {
	if len(expenses) == 0 {
		return nil, ErrNoExpenses
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}

	for i, e := range expenses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		row := []interface{}{
			e.ID,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Amount.Decimal(),
			string(e.Purpose),
			e.Description,
			e.PurchaseDate.String(),
			e.CompanyName,
			e.ContactDetails,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
