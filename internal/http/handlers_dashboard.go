package http

import (
	"log/slog"
	"net/http"

	"expensedesk/internal/auth"
	"expensedesk/internal/core"
)

const recentExpenseCount = 5

type dashboardPageData struct {
	Session auth.Session
	Summary core.DashboardSummary
	Recent  []core.Expense
	Empty   bool
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if d := auth.Authorize(sess.Role, auth.ActionViewDashboard); !d.Allowed {
		http.Error(w, d.Reason, http.StatusForbidden)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	summary, recent, err := s.expenses.Dashboard(r.Context(), recentExpenseCount)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard load failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "dashboard.html", dashboardPageData{
		Session: sess,
		Summary: summary,
		Recent:  recent,
		Empty:   summary.Count == 0,
	})
}
