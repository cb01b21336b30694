package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensedesk/internal/core"
)

func multipartRequest(t *testing.T, fields map[string]string, receipt []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if receipt != nil {
		part, err := w.CreateFormFile("receipt", "bill.png")
		require.NoError(t, err)
		_, err = part.Write(receipt)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/expenses/add", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"amount":          "500.00",
		"purpose":         "Books",
		"description":     "library restock",
		"purchase_date":   "2024-01-15",
		"company_name":    "City Bookstore",
		"contact_details": "books@example.com",
	}
}

func TestParseExpenseForm(t *testing.T) {
	receipt := []byte{0x89, 0x50, 0x4e, 0x47}
	req := multipartRequest(t, validFields(), receipt)

	e, err := parseExpenseForm(req)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), e.Amount.Cents)
	assert.Equal(t, core.PurposeBooks, e.Purpose)
	assert.Equal(t, "library restock", e.Description)
	assert.Equal(t, "2024-01-15", e.PurchaseDate.String())
	assert.Equal(t, receipt, e.Receipt)
	assert.Equal(t, "City Bookstore", e.CompanyName)
	assert.Equal(t, "books@example.com", e.ContactDetails)
}

func TestParseExpenseFormWithoutReceipt(t *testing.T) {
	req := multipartRequest(t, validFields(), nil)

	e, err := parseExpenseForm(req)
	require.NoError(t, err)
	assert.Nil(t, e.Receipt, "absent file part means nil receipt")
}

func TestParseExpenseFormErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing amount", func(f map[string]string) { delete(f, "amount") }},
		{"zero amount", func(f map[string]string) { f["amount"] = "0" }},
		{"negative amount", func(f map[string]string) { f["amount"] = "-3.50" }},
		{"non-numeric amount", func(f map[string]string) { f["amount"] = "abc" }},
		{"missing purpose", func(f map[string]string) { delete(f, "purpose") }},
		{"unknown purpose", func(f map[string]string) { f["purpose"] = "Gambling" }},
		{"missing date", func(f map[string]string) { delete(f, "purchase_date") }},
		{"malformed date", func(f map[string]string) { f["purchase_date"] = "15/01/2024" }},
		{"oversized description", func(f map[string]string) { f["description"] = strings.Repeat("x", 501) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			tt.mutate(fields)
			_, err := parseExpenseForm(multipartRequest(t, fields, nil))
			assert.Error(t, err)
		})
	}
}

func TestParseExpenseFormAcceptsCommaDecimal(t *testing.T) {
	fields := validFields()
	fields["amount"] = "12,34"
	e, err := parseExpenseForm(multipartRequest(t, fields, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1234), e.Amount.Cents)
}

func TestParseRegistrationRoles(t *testing.T) {
	for role, wantErr := range map[string]bool{
		"Employee":  false,
		"Developer": false,
		"admin":     true,
		"root":      true,
		"":          true,
	} {
		form := url.Values{"username": {"u"}, "password": {"s3cret"}, "role": {role}}
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		_, _, _, err := parseRegistration(req)
		if wantErr {
			assert.Error(t, err, role)
		} else {
			assert.NoError(t, err, role)
		}
	}
}

func TestParseExpenseID(t *testing.T) {
	id, err := parseExpenseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := parseExpenseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello", sanitizeInput("  hello  "))
	assert.Equal(t, "ab", sanitizeInput("a\x00b"))
	assert.Equal(t, "a\tb", sanitizeInput("a\tb"))
}
