package budget

import (
	"testing"

	"budgetboard/internal/core"
)

func member(id string, status core.Status, teamCents, connCents int64) core.Member {
	return core.Member{
		ID:                 id,
		Name:               "m-" + id,
		Role:               core.RoleBPS,
		TeamBudget:         core.Money{Cents: teamCents},
		ConnectivityBudget: core.Money{Cents: connCents},
		Status:             status,
	}
}

func TestTotalBudgetActiveMembers(t *testing.T) {
	members := []core.Member{
		member("a", core.StatusActive, 100000, 50000),
		member("b", core.StatusActive, 100000, 50000),
	}
	got := TotalBudget(members, nil, "2025-01", core.CategoryTeam)
	if got.Cents != 200000 {
		t.Fatalf("team total: got %d", got.Cents)
	}
	got = TotalBudget(members, nil, "2025-01", core.CategoryConnectivity)
	if got.Cents != 100000 {
		t.Fatalf("connectivity total: got %d", got.Cents)
	}
}

func TestTotalBudgetExitCutoff(t *testing.T) {
	members := []core.Member{member("a", core.StatusExited, 100000, 50000)}
	attrition := []core.AttritionRecord{{ID: "x", MemberID: "a", ExitMonth: "2025-03"}}

	cases := []struct {
		currentMonth core.Month
		want         int64
	}{
		{"2025-01", 100000}, // exit month not yet reached: still counted
		{"2025-03", 100000}, // inclusive of the exit month itself
		{"2025-06", 0},      // past the exit month: excluded
	}
	for _, tc := range cases {
		got := TotalBudget(members, attrition, tc.currentMonth, core.CategoryTeam)
		if got.Cents != tc.want {
			t.Fatalf("currentMonth=%s: got %d, want %d", tc.currentMonth, got.Cents, tc.want)
		}
	}
}

func TestTotalBudgetExitedWithoutRecord(t *testing.T) {
	// Should not occur given the store invariant, but contributes nothing.
	members := []core.Member{member("a", core.StatusExited, 100000, 50000)}
	if got := TotalBudget(members, nil, "2025-01", core.CategoryTeam); got.Cents != 0 {
		t.Fatalf("got %d, want 0", got.Cents)
	}
}

func TestSpentIgnoresOtherCategories(t *testing.T) {
	expenses := []core.Expense{
		{Category: core.CategoryTeam, Amount: core.Money{Cents: 30000}},
		{Category: core.CategoryTeam, Amount: core.Money{Cents: 20000}},
		{Category: core.CategoryConnectivity, Amount: core.Money{Cents: 7000}},
	}
	if got := Spent(expenses, core.CategoryTeam); got.Cents != 50000 {
		t.Fatalf("team spent: got %d", got.Cents)
	}
	if got := Spent(expenses, core.CategoryConnectivity); got.Cents != 7000 {
		t.Fatalf("connectivity spent: got %d", got.Cents)
	}
}

func TestBuildOverviewScenario(t *testing.T) {
	// One active BPS member with snapshot {1000.00, 500.00}, one team
	// expense of 300.00: total 1000, spent 300, remaining 700, 30.0%.
	members := []core.Member{member("a", core.StatusActive, 100000, 50000)}
	expenses := []core.Expense{{Category: core.CategoryTeam, Amount: core.Money{Cents: 30000}}}

	o := BuildOverview(members, expenses, nil, "2025-01", core.CategoryTeam)
	if o.Total.Cents != 100000 {
		t.Fatalf("total: got %d", o.Total.Cents)
	}
	if o.Spent.Cents != 30000 {
		t.Fatalf("spent: got %d", o.Spent.Cents)
	}
	if o.Remaining.Cents != 70000 {
		t.Fatalf("remaining: got %d", o.Remaining.Cents)
	}
	if o.Utilization != 30.0 {
		t.Fatalf("utilization: got %v", o.Utilization)
	}
}

func TestBuildOverviewZeroTotal(t *testing.T) {
	expenses := []core.Expense{{Category: core.CategoryTeam, Amount: core.Money{Cents: 500}}}
	o := BuildOverview(nil, expenses, nil, "2025-01", core.CategoryTeam)
	if o.Utilization != 0 {
		t.Fatalf("utilization with zero total should be 0, got %v", o.Utilization)
	}
	if o.Remaining.Cents != -500 {
		t.Fatalf("remaining should go negative, got %d", o.Remaining.Cents)
	}
}
