package report

import (
	"strings"
	"testing"
	"time"

	"budgetboard/internal/core"
)

func TestFilename(t *testing.T) {
	now := time.Date(2025, 7, 9, 13, 45, 0, 0, time.UTC)
	if got := Filename(now); got != "budget-report-2025-07-09.txt" {
		t.Fatalf("got %q", got)
	}
}

func TestBuildSections(t *testing.T) {
	cfg := core.BudgetConfig{CurrentMonth: core.Month("2025-01")}
	members := []core.Member{
		{ID: "m1", Name: "Asha", Role: core.RoleBPS,
			TeamBudget: core.Money{Cents: 100000}, ConnectivityBudget: core.Money{Cents: 50000},
			Status: core.StatusActive},
	}
	expenses := []core.Expense{
		{ID: "e1", Name: "Team Lunch", Amount: core.Money{Cents: 30000}, Event: "Offsite",
			Category: core.CategoryTeam, MemberID: "m1", Date: core.NewDate(2025, 2, 10)},
		{ID: "e2", Name: "Router", Amount: core.Money{Cents: 5000}, Event: "Setup",
			Category: core.CategoryConnectivity, Date: core.NewDate(2025, 3, 1)},
		{ID: "e3", Name: "Orphan", Amount: core.Money{Cents: 100}, Event: "x",
			Category: core.CategoryTeam, MemberID: "gone", Date: core.NewDate(2025, 3, 2)},
	}

	out := Build(cfg, members, expenses, nil)

	wantLines := []string{
		"BUDGET TRACKING REPORT",
		"Team Budget: 1000.00 | Spent: 301.00 | Remaining: 699.00",
		"Connectivity Budget: 500.00 | Spent: 50.00 | Remaining: 450.00",
		"Asha (BPS) - Team: 1000.00 | Connectivity: 500.00 | Status: active",
		"2025-02-10 | Team Lunch | 300.00 | Offsite | team | Asha",
		"2025-03-01 | Router | 50.00 | Setup | connectivity | General",
		"2025-03-02 | Orphan | 1.00 | x | team | Unknown",
	}
	for _, line := range wantLines {
		if !strings.Contains(out, line) {
			t.Fatalf("missing line %q in:\n%s", line, out)
		}
	}
	if strings.Contains(out, "ATTRITION") {
		t.Fatalf("attrition section must be omitted when empty:\n%s", out)
	}
}

func TestBuildAttritionSection(t *testing.T) {
	cfg := core.BudgetConfig{CurrentMonth: core.Month("2025-01")}
	members := []core.Member{
		{ID: "m1", Name: "Priya", Role: core.RoleTL, Status: core.StatusExited,
			TeamBudget: core.Money{Cents: 100}, ConnectivityBudget: core.Money{Cents: 100}},
	}
	attrition := []core.AttritionRecord{
		{ID: "a1", MemberID: "m1", ExitMonth: core.Month("2025-04")},
		{ID: "a2", MemberID: "ghost", ExitMonth: core.Month("2025-05")},
	}

	out := Build(cfg, members, nil, attrition)

	if !strings.Contains(out, "Priya (TL) - Exit Month: 2025-04") {
		t.Fatalf("missing attrition line:\n%s", out)
	}
	if !strings.Contains(out, "Unknown () - Exit Month: 2025-05") {
		t.Fatalf("dangling record must render Unknown:\n%s", out)
	}
}
