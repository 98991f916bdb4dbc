package query

import (
	"strings"
	"time"

	"budgetboard/internal/core"
)

// Range selects a calendar slice for the monthly time series.
type Range string

const (
	RangeAll Range = "all"
	RangeQ1  Range = "q1"
	RangeQ2  Range = "q2"
	RangeQ3  Range = "q3"
	RangeQ4  Range = "q4"
)

// ParseRange accepts all|q1|q2|q3|q4; empty means all.
func ParseRange(s string) (Range, bool) {
	switch Range(strings.ToLower(strings.TrimSpace(s))) {
	case "", RangeAll:
		return RangeAll, true
	case RangeQ1:
		return RangeQ1, true
	case RangeQ2:
		return RangeQ2, true
	case RangeQ3:
		return RangeQ3, true
	case RangeQ4:
		return RangeQ4, true
	}
	return "", false
}

// months returns the 1-based month numbers covered by the range. Quarters
// are fixed 3-month slices of the calendar year.
func (r Range) months() []int {
	switch r {
	case RangeQ1:
		return []int{1, 2, 3}
	case RangeQ2:
		return []int{4, 5, 6}
	case RangeQ3:
		return []int{7, 8, 9}
	case RangeQ4:
		return []int{10, 11, 12}
	default:
		return []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	}
}

// MonthPoint is one month of the spend time series.
type MonthPoint struct {
	Month        int        `json:"month"` // 1-12
	Label        string     `json:"label"` // "Jan".."Dec"
	Team         core.Money `json:"team"`
	Connectivity core.Money `json:"connectivity"`
}

// MonthlySeries sums team and connectivity spend per month in the slice.
// Expenses are bucketed by month number regardless of year.
//
// Leader filtering: an attributed expense matches when its member's Leader
// field equals the filter exactly. An unattributed expense falls back to a
// case-insensitive substring match of the leader name within the expense
// name, a best-effort heuristic for general expenses that happen to
// mention a leader, not an authoritative attribution.
func MonthlySeries(expenses []core.Expense, members []core.Member, leader string, r Range) []MonthPoint {
	memberByID := make(map[string]core.Member, len(members))
	for _, m := range members {
		memberByID[m.ID] = m
	}

	monthNums := r.months()
	points := make([]MonthPoint, len(monthNums))
	index := make(map[int]*MonthPoint, len(monthNums))
	for i, n := range monthNums {
		points[i] = MonthPoint{Month: n, Label: time.Month(n).String()[:3]}
		index[n] = &points[i]
	}

	for _, e := range expenses {
		p, ok := index[int(e.Date.Month())]
		if !ok {
			continue
		}
		if leader != "" && !matchesLeader(e, memberByID, leader) {
			continue
		}
		if e.Category == core.CategoryTeam {
			p.Team = p.Team.Add(e.Amount)
		} else {
			p.Connectivity = p.Connectivity.Add(e.Amount)
		}
	}
	return points
}

func matchesLeader(e core.Expense, memberByID map[string]core.Member, leader string) bool {
	if e.MemberID != "" {
		m, ok := memberByID[e.MemberID]
		return ok && m.Leader == leader
	}
	return strings.Contains(strings.ToLower(e.Name), strings.ToLower(leader))
}

// Leaders returns the distinct names of TL members, in collection order.
// Used to populate the leader filter options.
func Leaders(members []core.Member) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range members {
		if m.Role != core.RoleTL {
			continue
		}
		if _, ok := seen[m.Name]; ok {
			continue
		}
		seen[m.Name] = struct{}{}
		out = append(out, m.Name)
	}
	return out
}
