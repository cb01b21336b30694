package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"expensedesk/internal/auth"
	"expensedesk/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type reportPageData struct {
	Session auth.Session
	From    string
	To      string
	Error   string
	Message string
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if d := auth.Authorize(sess.Role, auth.ActionDownloadReport); !d.Allowed {
		http.Error(w, d.Reason, http.StatusForbidden)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.render(w, r, "report.html", reportPageData{Session: sess})
}

func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if d := auth.Authorize(sess.Role, auth.ActionDownloadReport); !d.Allowed {
		http.Error(w, d.Reason, http.StatusForbidden)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	data := reportPageData{
		Session: sess,
		From:    sanitizeInput(r.URL.Query().Get("from")),
		To:      sanitizeInput(r.URL.Query().Get("to")),
	}

	filter, err := buildFilter(r.URL.Query())
	if err != nil {
		data.Error = "Invalid date range: " + userFacing(err)
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "report.html", data)
		return
	}

	expenses, err := s.expenses.SearchExpenses(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Report query failed", "error", err)
		data.Error = "Could not build the report. Please try again."
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, "report.html", data)
		return
	}

	workbook, err := report.Excel(expenses)
	if errors.Is(err, report.ErrNoExpenses) {
		data.Message = "No expenses found for this period."
		s.render(w, r, "report.html", data)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Report build failed", "error", err)
		data.Error = "Could not build the report. Please try again."
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, "report.html", data)
		return
	}

	filename := fmt.Sprintf("expenses_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(workbook)))

	if _, err := w.Write(workbook); err != nil {
		slog.ErrorContext(r.Context(), "Report write failed", "error", err)
		return
	}

	slog.InfoContext(r.Context(), "Report downloaded",
		"username", sess.Username, "rows", len(expenses))
}
