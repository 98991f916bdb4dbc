// Package report renders the tracked state as a flat pipe-delimited text
// document for download. Export only; the format is not parsed back.
package report

import (
	"fmt"
	"strings"
	"time"

	"budgetboard/internal/budget"
	"budgetboard/internal/core"
)

const ruleWidth = 80

// Filename returns the dated attachment name for a report generated now.
func Filename(now time.Time) string {
	return fmt.Sprintf("budget-report-%s.txt", now.Format("2006-01-02"))
}

// Build renders the four report sections from a consistent snapshot of the
// collections. The attrition section is omitted when there are no records.
func Build(cfg core.BudgetConfig, members []core.Member, expenses []core.Expense, attrition []core.AttritionRecord) string {
	var b strings.Builder

	b.WriteString("BUDGET TRACKING REPORT\n")
	b.WriteString(strings.Repeat("=", ruleWidth) + "\n\n")

	b.WriteString("BUDGET OVERVIEW\n")
	b.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	writeOverviewLine(&b, "Team", budget.BuildOverview(members, expenses, attrition, cfg.CurrentMonth, core.CategoryTeam))
	writeOverviewLine(&b, "Connectivity", budget.BuildOverview(members, expenses, attrition, cfg.CurrentMonth, core.CategoryConnectivity))
	b.WriteString("\n")

	b.WriteString("TEAM MEMBERS\n")
	b.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	for _, m := range members {
		fmt.Fprintf(&b, "%s (%s) - Team: %s | Connectivity: %s | Status: %s\n",
			m.Name, m.Role, m.TeamBudget, m.ConnectivityBudget, m.Status)
	}

	b.WriteString("\n\nEXPENSES\n")
	b.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	for _, e := range expenses {
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s | %s\n",
			e.Date, e.Name, e.Amount, e.Event, e.Category, attributionName(members, e.MemberID))
	}

	if len(attrition) > 0 {
		b.WriteString("\n\nATTRITION\n")
		b.WriteString(strings.Repeat("-", ruleWidth) + "\n")
		for _, a := range attrition {
			name, role := "Unknown", ""
			for _, m := range members {
				if m.ID == a.MemberID {
					name, role = m.Name, string(m.Role)
					break
				}
			}
			fmt.Fprintf(&b, "%s (%s) - Exit Month: %s\n", name, role, a.ExitMonth)
		}
	}

	return b.String()
}

func writeOverviewLine(b *strings.Builder, label string, o budget.Overview) {
	fmt.Fprintf(b, "%s Budget: %s | Spent: %s | Remaining: %s\n",
		label, o.Total, o.Spent, o.Remaining)
}

// attributionName resolves an expense's member name, "General" for
// unattributed expenses and "Unknown" for a dangling reference.
func attributionName(members []core.Member, memberID string) string {
	if memberID == "" {
		return "General"
	}
	for _, m := range members {
		if m.ID == memberID {
			return m.Name
		}
	}
	return "Unknown"
}
