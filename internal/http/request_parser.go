package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"expensedesk/internal/core"
)

// maxReceiptBytes bounds uploaded bill images (and the whole multipart
// body) at 10 MiB.
const maxReceiptBytes = 10 << 20

var validate = validator.New()

// expenseForm is the raw expense submission before domain conversion.
// Validator tags catch shape problems; core.Expense.Validate enforces the
// domain invariants afterwards.
type expenseForm struct {
	Amount         string `validate:"required"`
	Purpose        string `validate:"required"`
	Description    string `validate:"max=500"`
	PurchaseDate   string `validate:"required,datetime=2006-01-02"`
	CompanyName    string `validate:"max=200"`
	ContactDetails string `validate:"max=200"`
}

type credentialsForm struct {
	Username string `validate:"required,min=1,max=64"`
	Password string `validate:"required,min=1,max=128"`
}

type registerForm struct {
	Username string `validate:"required,min=1,max=64"`
	Password string `validate:"required,min=4,max=128"`
	Role     string `validate:"required,oneof=Employee Developer"`
}

// parseExpenseForm reads the (multipart) expense form into a core.Expense.
// The receipt file part is optional; an absent part yields a nil receipt so
// callers can decide whether to carry an existing image forward.
func parseExpenseForm(r *http.Request) (core.Expense, error) {
	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		return core.Expense{}, fmt.Errorf("parse form: %w", err)
	}

	form := expenseForm{
		Amount:         sanitizeInput(r.FormValue("amount")),
		Purpose:        sanitizeInput(r.FormValue("purpose")),
		Description:    sanitizeInput(r.FormValue("description")),
		PurchaseDate:   sanitizeInput(r.FormValue("purchase_date")),
		CompanyName:    sanitizeInput(r.FormValue("company_name")),
		ContactDetails: sanitizeInput(r.FormValue("contact_details")),
	}
	if err := validate.Struct(form); err != nil {
		return core.Expense{}, fmt.Errorf("invalid expense form: %w", err)
	}

	cents, err := core.ParseDecimalToCents(form.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(form.PurchaseDate)
	if err != nil {
		return core.Expense{}, fmt.Errorf("invalid purchase date: %w", err)
	}

	receipt, err := readReceipt(r)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		Amount:         core.Money{Cents: cents},
		Purpose:        core.Purpose(form.Purpose),
		Description:    form.Description,
		PurchaseDate:   date,
		Receipt:        receipt,
		CompanyName:    form.CompanyName,
		ContactDetails: form.ContactDetails,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// readReceipt returns the uploaded bill image bytes, or nil when the part
// is absent or empty.
func readReceipt(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("receipt")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxReceiptBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	if len(data) > maxReceiptBytes {
		return nil, fmt.Errorf("receipt larger than %d bytes", maxReceiptBytes)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

// parseCredentials reads the login form.
func parseCredentials(r *http.Request) (username, password string, err error) {
	if err := r.ParseForm(); err != nil {
		return "", "", fmt.Errorf("parse form: %w", err)
	}
	form := credentialsForm{
		Username: sanitizeInput(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
	if err := validate.Struct(form); err != nil {
		return "", "", fmt.Errorf("invalid credentials form: %w", err)
	}
	return form.Username, form.Password, nil
}

// parseRegistration reads the registration form. Only the self-service
// roles pass validation here.
func parseRegistration(r *http.Request) (username, password string, role core.Role, err error) {
	if err := r.ParseForm(); err != nil {
		return "", "", "", fmt.Errorf("parse form: %w", err)
	}
	form := registerForm{
		Username: sanitizeInput(r.FormValue("username")),
		Password: r.FormValue("password"),
		Role:     sanitizeInput(r.FormValue("role")),
	}
	if err := validate.Struct(form); err != nil {
		return "", "", "", fmt.Errorf("invalid registration form: %w", err)
	}
	return form.Username, form.Password, core.Role(form.Role), nil
}

// parseExpenseID reads an expense identifier from a form or query value.
func parseExpenseID(value string) (int64, error) {
	id, err := strconv.ParseInt(sanitizeInput(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid expense id %q", value)
	}
	return id, nil
}
