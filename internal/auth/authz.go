package auth

import "expensedesk/internal/core"

// Action names every role-gated operation in the application. Handlers ask
// Authorize once per action instead of comparing role strings inline.
type Action string

const (
	ActionViewDashboard  Action = "view_dashboard"
	ActionAddExpense     Action = "add_expense"
	ActionSearchExpenses Action = "search_expenses"
	ActionModifyExpense  Action = "modify_expense"
	ActionDeleteExpense  Action = "delete_expense"
	ActionDownloadReport Action = "download_report"
)

// Decision is an explicit allow/deny with the reason for the denial.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorize is the single place role gating happens. Every signed-in role
// may use the application; deleting expenses is reserved for admins.
func Authorize(role core.Role, action Action) Decision {
	if err := role.Validate(); err != nil {
		return deny("unknown role")
	}

	switch action {
	case ActionViewDashboard, ActionAddExpense, ActionSearchExpenses,
		ActionModifyExpense, ActionDownloadReport:
		return allow()
	case ActionDeleteExpense:
		if role == core.RoleAdmin {
			return allow()
		}
		return deny("deleting expenses requires the admin role")
	}
	return deny("unknown action")
}
