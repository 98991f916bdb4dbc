// Package query derives read-only filtered views over the entity
// collections. Everything here is a pure filter/reduce; callers pass
// snapshots and nothing is cached.
package query

import (
	"sort"

	"budgetboard/internal/core"
)

// ExpenseFilter narrows the expense ledger. Zero values mean "no filter";
// set filters compose with logical AND.
type ExpenseFilter struct {
	Category core.Category
	Month    core.Month
	MemberID string
}

// Members returns members with the given role, or all when role is empty.
func Members(members []core.Member, role core.Role) []core.Member {
	if role == "" {
		return append([]core.Member(nil), members...)
	}
	out := make([]core.Member, 0, len(members))
	for _, m := range members {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

// Expenses applies the filter to the ledger.
func Expenses(expenses []core.Expense, f ExpenseFilter) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.Month != "" && e.Date.MonthKey() != f.Month {
			continue
		}
		if f.MemberID != "" && e.MemberID != f.MemberID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Months returns the distinct YYYY-MM keys present in the ledger, most
// recent first. Used to populate month-selection options.
func Months(expenses []core.Expense) []core.Month {
	seen := map[core.Month]struct{}{}
	var out []core.Month
	for _, e := range expenses {
		key := e.Date.MonthKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Before(out[i]) })
	return out
}
