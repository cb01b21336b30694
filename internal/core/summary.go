package core

import "sort"

// PurposeTotal is an amount aggregated under one purpose.
type PurposeTotal struct {
	Purpose Purpose
	Total   Money
}

// MonthTotal is an amount aggregated under one creation year+month bucket.
type MonthTotal struct {
	Year  int
	Month int // 1-12
	Total Money
}

// DashboardSummary is the aggregate view rendered on the home page.
type DashboardSummary struct {
	Total     Money
	Count     int
	Average   Money
	ByPurpose []PurposeTotal
	ByMonth   []MonthTotal
}

// Summarize computes the dashboard aggregates from a list of expenses.
// Purpose buckets are ordered by descending total, month buckets
// chronologically. Average is zero when the list is empty.
func Summarize(expenses []Expense) DashboardSummary {
	s := DashboardSummary{Count: len(expenses)}
	if len(expenses) == 0 {
		return s
	}

	byPurpose := make(map[Purpose]int64)
	type ym struct{ year, month int }
	byMonth := make(map[ym]int64)

	for _, e := range expenses {
		s.Total.Cents += e.Amount.Cents
		byPurpose[e.Purpose] += e.Amount.Cents
		key := ym{e.CreatedAt.Year(), int(e.CreatedAt.Month())}
		byMonth[key] += e.Amount.Cents
	}
	s.Average = Money{Cents: s.Total.Cents / int64(len(expenses))}

	for p, cents := range byPurpose {
		s.ByPurpose = append(s.ByPurpose, PurposeTotal{Purpose: p, Total: Money{Cents: cents}})
	}
	sort.Slice(s.ByPurpose, func(i, j int) bool {
		if s.ByPurpose[i].Total.Cents != s.ByPurpose[j].Total.Cents {
			return s.ByPurpose[i].Total.Cents > s.ByPurpose[j].Total.Cents
		}
		return s.ByPurpose[i].Purpose < s.ByPurpose[j].Purpose
	})

	for k, cents := range byMonth {
		s.ByMonth = append(s.ByMonth, MonthTotal{Year: k.year, Month: k.month, Total: Money{Cents: cents}})
	}
	sort.Slice(s.ByMonth, func(i, j int) bool {
		if s.ByMonth[i].Year != s.ByMonth[j].Year {
			return s.ByMonth[i].Year < s.ByMonth[j].Year
		}
		return s.ByMonth[i].Month < s.ByMonth[j].Month
	})

	return s
}
