package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"expensedesk/internal/auth"
	"expensedesk/internal/core"
	"expensedesk/internal/storage"
)

type expensePageData struct {
	Session  auth.Session
	Purposes []core.Purpose
	Expense  core.Expense
	Error    string
	Message  string
}

type searchPageData struct {
	Session   auth.Session
	Purposes  []core.Purpose
	Purpose   string
	From      string
	To        string
	Results   []core.Expense
	Searched  bool
	CanDelete bool
	Error     string
	Message   string
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if d := auth.Authorize(sess.Role, auth.ActionAddExpense); !d.Allowed {
		http.Error(w, d.Reason, http.StatusForbidden)
		return
	}

	data := expensePageData{Session: sess, Purposes: core.AllPurposes()}

	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("created") == "1" {
			data.Message = "Expense recorded."
		}
		s.render(w, r, "expense_form.html", data)
	case http.MethodPost:
		expense, err := parseExpenseForm(r)
		if err != nil {
			data.Error = "Invalid expense: " + userFacing(err)
			w.WriteHeader(http.StatusUnprocessableEntity)
			s.render(w, r, "expense_form.html", data)
			return
		}

		inserted, err := s.expenses.AddExpense(r.Context(), expense)
		if err != nil {
			slog.ErrorContext(r.Context(), "Add expense failed", "error", err)
			data.Error = "Could not save the expense. Please try again."
			w.WriteHeader(http.StatusInternalServerError)
			s.render(w, r, "expense_form.html", data)
			return
		}

		slog.InfoContext(r.Context(), "Expense added",
			"expense_id", inserted.ID,
			"purpose", string(inserted.Purpose),
			"username", sess.Username)
		// Redirect so a browser refresh re-fetches the empty form instead
		// of resubmitting the expense.
		http.Redirect(w, r, "/expenses/add?created=1", http.StatusSeeOther)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSearchExpenses(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if d := auth.Authorize(sess.Role, auth.ActionSearchExpenses); !d.Allowed {
		http.Error(w, d.Reason, http.StatusForbidden)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	data := searchPageData{
		Session:   sess,
		Purposes:  core.AllPurposes(),
		Purpose:   sanitizeInput(q.Get("purpose")),
		From:      sanitizeInput(q.Get("from")),
		To:        sanitizeInput(q.Get("to")),
		CanDelete: auth.Authorize(sess.Role, auth.ActionDeleteExpense).Allowed,
	}

	// First visit: just show the form.
	if len(q) == 0 {
		s.render(w, r, "search.html", data)
		return
	}

	filter, err := buildFilter(q)
	if err != nil {
		data.Error = "Invalid search: " + userFacing(err)
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "search.html", data)
		return
	}

	results, err := s.expenses.SearchExpenses(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Search failed", "error", err)
		data.Error = "Search failed. Please try again."
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, "search.html", data)
		return
	}

	data.Searched = true
	data.Results = results
	if len(results) == 0 {
		data.Message = "No expenses found for this filter."
	}
	s.render(w, r, "search.html", data)
}

// buildFilter converts query parameters into a structured filter. The
// literal purpose "All" (or an empty value) means no purpose constraint.
func buildFilter(q url.Values) (storage.ExpenseFilter, error) {
	var filter storage.ExpenseFilter

	if p := sanitizeInput(q.Get("purpose")); p != "" && p != "All" {
		purpose := core.Purpose(p)
		if err := purpose.Validate(); err != nil {
			return storage.ExpenseFilter{}, err
		}
		filter.Purpose = &purpose
	}
	if v := sanitizeInput(q.Get("from")); v != "" {
		from, err := core.ParseDate(v)
		if err != nil {
			return storage.ExpenseFilter{}, err
		}
		filter.From = &from
	}
	if v := sanitizeInput(q.Get("to")); v != "" {
		to, err := core.ParseDate(v)
		if err != nil {
			return storage.ExpenseFilter{}, err
		}
		filter.To = &to
	}
	return filter, nil
}

func (s *Server) handleModifyExpense(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if d := auth.Authorize(sess.Role, auth.ActionModifyExpense); !d.Allowed {
		http.Error(w, d.Reason, http.StatusForbidden)
		return
	}

	data := expensePageData{Session: sess, Purposes: core.AllPurposes()}

	switch r.Method {
	case http.MethodGet:
		id, err := parseExpenseID(r.URL.Query().Get("id"))
		if err != nil {
			http.Error(w, "invalid expense id", http.StatusBadRequest)
			return
		}
		expense, err := s.expenses.GetExpense(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Load expense failed", "error", err, "expense_id", id)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		data.Expense = expense
		s.render(w, r, "expense_form.html", data)
	case http.MethodPost:
		id, err := parseExpenseID(r.FormValue("id"))
		if err != nil {
			http.Error(w, "invalid expense id", http.StatusBadRequest)
			return
		}

		existing, err := s.expenses.GetExpense(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Load expense failed", "error", err, "expense_id", id)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		updated, err := parseExpenseForm(r)
		if err != nil {
			data.Expense = existing
			data.Error = "Invalid expense: " + userFacing(err)
			w.WriteHeader(http.StatusUnprocessableEntity)
			s.render(w, r, "expense_form.html", data)
			return
		}

		updated.ID = id
		// No replacement image submitted: keep the stored one.
		if updated.Receipt == nil {
			updated.Receipt = existing.Receipt
		}

		if err := s.expenses.ModifyExpense(r.Context(), updated); err != nil {
			slog.ErrorContext(r.Context(), "Modify expense failed", "error", err, "expense_id", id)
			data.Expense = existing
			data.Error = "Could not update the expense. Please try again."
			w.WriteHeader(http.StatusInternalServerError)
			s.render(w, r, "expense_form.html", data)
			return
		}

		slog.InfoContext(r.Context(), "Expense modified",
			"expense_id", id, "username", sess.Username)
		data.Expense = updated
		data.Message = "Expense updated."
		s.render(w, r, "expense_form.html", data)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if d := auth.Authorize(sess.Role, auth.ActionDeleteExpense); !d.Allowed {
		slog.WarnContext(r.Context(), "Delete denied",
			"username", sess.Username, "role", string(sess.Role), "reason", d.Reason)
		http.Error(w, d.Reason, http.StatusForbidden)
		return
	}

	id, err := parseExpenseID(r.FormValue("id"))
	if err != nil {
		http.Error(w, "invalid expense id", http.StatusBadRequest)
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete expense failed", "error", err, "expense_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Expense deleted",
		"expense_id", id, "username", sess.Username)
	http.Redirect(w, r, "/expenses/search", http.StatusSeeOther)
}

// userFacing strips wrapping noise from validation errors before they reach
// a page. Domain sentinels already read well; everything else gets a
// generic phrasing.
func userFacing(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "the amount must be a positive number."
	case errors.Is(err, core.ErrEmptyPurpose), errors.Is(err, core.ErrUnknownPurpose):
		return "please pick a purpose from the list."
	case errors.Is(err, core.ErrMissingDate):
		return "the purchase date is required."
	case errors.Is(err, core.ErrDescriptionTooLong):
		return "the description is too long."
	default:
		return "please check the submitted fields."
	}
}
