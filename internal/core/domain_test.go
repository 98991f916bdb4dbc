package core

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in  string
		out Role
		ok  bool
	}{
		{"BPS", RoleBPS, true},
		{"TL", RoleTL, true},
		{"TM", RoleTM, true},
		{" TL ", RoleTL, true},
		{"tl", "", false},
		{"manager", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if c, err := ParseCategory("team"); err != nil || c != CategoryTeam {
		t.Fatalf("team: got %s, %v", c, err)
	}
	if c, err := ParseCategory("connectivity"); err != nil || c != CategoryConnectivity {
		t.Fatalf("connectivity: got %s, %v", c, err)
	}
	if _, err := ParseCategory("travel"); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestMemberValidate(t *testing.T) {
	good := Member{Name: "Asha", Role: RoleBPS, Status: StatusActive}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Member{
		{Name: "", Role: RoleBPS},
		{Name: "   ", Role: RoleBPS},
		{Name: "Asha", Role: "X"},
	}
	for i, m := range bads {
		if err := m.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Name:     "Team lunch",
		Amount:   Money{Cents: 30000},
		Event:    "Q1 offsite",
		Category: CategoryTeam,
		Date:     NewDate(2025, 3, 14),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Name: "", Amount: Money{Cents: 1}, Event: "e", Category: CategoryTeam, Date: NewDate(2025, 1, 1)},
		{Name: "a", Amount: Money{Cents: 1}, Event: "", Category: CategoryTeam, Date: NewDate(2025, 1, 1)},
		{Name: "a", Amount: Money{Cents: 0}, Event: "e", Category: CategoryTeam, Date: NewDate(2025, 1, 1)},
		{Name: "a", Amount: Money{Cents: 1}, Event: "e", Category: "misc", Date: NewDate(2025, 1, 1)},
		{Name: "a", Amount: Money{Cents: 1}, Event: "e", Category: CategoryTeam},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetConfigSnapshot(t *testing.T) {
	cfg := BudgetConfig{
		BPS: RoleBudget{Team: Money{Cents: 100}, Connectivity: Money{Cents: 10}},
		TL:  RoleBudget{Team: Money{Cents: 200}, Connectivity: Money{Cents: 20}},
		TM:  RoleBudget{Team: Money{Cents: 300}, Connectivity: Money{Cents: 30}},
	}
	if got := cfg.Snapshot(RoleTL).Team.Cents; got != 200 {
		t.Fatalf("TL team snapshot: got %d", got)
	}
	if got := cfg.Snapshot(RoleTM).Connectivity.Cents; got != 30 {
		t.Fatalf("TM connectivity snapshot: got %d", got)
	}
	if got := cfg.Snapshot(RoleBPS).Team.Cents; got != 100 {
		t.Fatalf("BPS team snapshot: got %d", got)
	}
}

func TestDateMonthKey(t *testing.T) {
	d := NewDate(2025, 3, 14)
	if d.MonthKey() != Month("2025-03") {
		t.Fatalf("got %s", d.MonthKey())
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2025, 7, 2)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2025-07-02"` {
		t.Fatalf("got %s", b)
	}
	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v vs %v", back, d)
	}
}
