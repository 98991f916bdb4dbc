package workbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"budgetboard/internal/core"
)

// Recognized sheet names. Each is optional and handled independently.
const (
	sheetRoster        = "2025"
	sheetExpenses      = "Expenses"
	sheetLeaderBudgets = "TL Connect Budget"
)

// Fallback budget snapshots assigned to every imported member. The roster's
// monthly figure columns are scanned but intentionally not wired into the
// snapshot.
const (
	defaultTeamBudgetCents         = 12000_00
	defaultConnectivityBudgetCents = 4233_00
)

// ErrImportFailed is the generic signal surfaced to callers; the underlying
// cause is wrapped for logs.
var ErrImportFailed = errors.New("import failed")

// EntityStore is what the reconciler needs from the entity store.
type EntityStore interface {
	Members() []core.Member
	ImportReplace(ctx context.Context, members []core.Member, replaceMembers bool, expenses []core.Expense, replaceExpenses bool) error
}

// Summary reports what an import did.
type Summary struct {
	MembersImported      int  `json:"members_imported"`
	ExpensesImported     int  `json:"expenses_imported"`
	LeaderBudgetsApplied int  `json:"leader_budgets_applied"`
	MembersReplaced      bool `json:"members_replaced"`
	ExpensesReplaced     bool `json:"expenses_replaced"`
}

// Reconciler maps workbook grids into staged member and expense
// collections and commits them atomically. Imports are serialized through a
// single-flight group so a second upload cannot race the first.
type Reconciler struct {
	store EntityStore
	group singleflight.Group
}

func NewReconciler(store EntityStore) *Reconciler {
	return &Reconciler{store: store}
}

// Import runs the full reconciliation. Concurrent calls coalesce onto one
// execution. Any failure aborts the whole import with no state change.
func (r *Reconciler) Import(ctx context.Context, wb Workbook) (Summary, error) {
	v, err, shared := r.group.Do("import", func() (any, error) {
		return r.reconcile(ctx, wb)
	})
	if shared {
		slog.WarnContext(ctx, "Concurrent import coalesced into in-flight run")
	}
	if err != nil {
		slog.ErrorContext(ctx, "Workbook import failed", "error", err)
		return Summary{}, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	return v.(Summary), nil
}

func (r *Reconciler) reconcile(ctx context.Context, wb Workbook) (Summary, error) {
	present := map[string]bool{}
	for _, name := range wb.SheetNames() {
		present[name] = true
	}

	var sum Summary

	// Stage on copies; nothing touches the store until every sheet parsed.
	stagedMembers := r.store.Members()

	if present[sheetRoster] {
		grid, err := wb.Grid(sheetRoster)
		if err != nil {
			return Summary{}, fmt.Errorf("read roster sheet: %w", err)
		}
		stagedMembers = parseRoster(ctx, grid)
		sum.MembersImported = len(stagedMembers)
		sum.MembersReplaced = true
	}

	var stagedExpenses []core.Expense
	if present[sheetExpenses] {
		grid, err := wb.Grid(sheetExpenses)
		if err != nil {
			return Summary{}, fmt.Errorf("read expenses sheet: %w", err)
		}
		stagedExpenses = parseExpenseSeries(grid)
		sum.ExpensesImported = len(stagedExpenses)
		sum.ExpensesReplaced = true
	}

	if present[sheetLeaderBudgets] {
		grid, err := wb.Grid(sheetLeaderBudgets)
		if err != nil {
			return Summary{}, fmt.Errorf("read leader budget sheet: %w", err)
		}
		sum.LeaderBudgetsApplied = applyLeaderBudgets(grid, stagedMembers)
		if sum.LeaderBudgetsApplied > 0 {
			sum.MembersReplaced = true
		}
	}

	for _, m := range stagedMembers {
		if err := m.Validate(); err != nil {
			return Summary{}, fmt.Errorf("staged member %q: %w", m.Name, err)
		}
	}
	for _, e := range stagedExpenses {
		if err := e.Validate(); err != nil {
			return Summary{}, fmt.Errorf("staged expense %q: %w", e.Name, err)
		}
	}

	if !sum.MembersReplaced && !sum.ExpensesReplaced {
		slog.InfoContext(ctx, "Workbook had no recognized sheets", "sheets", wb.SheetNames())
		return sum, nil
	}

	if err := r.store.ImportReplace(ctx, stagedMembers, sum.MembersReplaced, stagedExpenses, sum.ExpensesReplaced); err != nil {
		return Summary{}, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Workbook imported",
		"members", sum.MembersImported,
		"expenses", sum.ExpensesImported,
		"leader_budgets", sum.LeaderBudgetsApplied)
	return sum, nil
}

// parseRoster reads the "2025" sheet: data rows start at index 2 with name
// in column E, role in column F and team leader in column G. Summary rows
// (names containing "total" or "budget") are skipped.
func parseRoster(ctx context.Context, grid [][]Cell) []core.Member {
	var members []core.Member
	for i := 2; i < len(grid); i++ {
		row := grid[i]
		name, ok := cellString(row, 4)
		if !ok {
			continue
		}
		lower := strings.ToLower(name)
		if strings.Contains(lower, "total") || strings.Contains(lower, "budget") {
			continue
		}

		leader := ""
		if l, ok := cellString(row, 6); ok {
			leader = strings.TrimSpace(l)
		}

		// Columns H-S hold monthly figures. They are informational only:
		// the assigned snapshot stays at the fixed fallback values until
		// the intended wiring is confirmed.
		var monthlyCents int64
		monthlyCols := 0
		for col := 7; col <= 18; col++ {
			if v, ok := cellNumber(row, col); ok && v > 0 {
				monthlyCents += core.CentsFromFloat(v)
				monthlyCols++
			}
		}
		if monthlyCols > 0 {
			slog.DebugContext(ctx, "Roster monthly columns scanned but not applied",
				"member", name, "months", monthlyCols, "total_cents", monthlyCents)
		}

		roleText, _ := cellString(row, 5)
		members = append(members, core.Member{
			ID:                 uuid.NewString(),
			Name:               strings.TrimSpace(name),
			Role:               mapRosterRole(roleText),
			Leader:             leader,
			TeamBudget:         core.Money{Cents: defaultTeamBudgetCents},
			ConnectivityBudget: core.Money{Cents: defaultConnectivityBudgetCents},
			Status:             core.StatusActive,
		})
	}
	return members
}

// mapRosterRole maps free-form roster role text onto the three roles.
// Leader markers win over manager markers; anything else, including the
// roster's "PC" and "BPS" spellings, lands on BPS.
func mapRosterRole(text string) core.Role {
	upper := strings.ToUpper(strings.TrimSpace(text))
	switch {
	case strings.Contains(upper, "TL") || strings.Contains(upper, "TEAM LEADER"):
		return core.RoleTL
	case strings.Contains(upper, "TM") || strings.Contains(upper, "TEAM MANAGER"):
		return core.RoleTM
	default:
		return core.RoleBPS
	}
}

var monthAbbrevs = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// parseExpenseSeries reads the "Expenses" sheet. Row index 1 holds column
// headers; each header containing "expense" defines a series whose total
// sits in row 0 at the following column. The month comes from an
// abbreviation inside the header (default January), the category is
// connectivity when the header says so, and the synthesized date is the
// 15th of that month in 2025. Only positive totals become expenses, always
// unattributed.
func parseExpenseSeries(grid [][]Cell) []core.Expense {
	if len(grid) < 3 {
		return nil
	}
	headerRow := grid[1]
	totalRow := grid[0]

	var expenses []core.Expense
	for col := range headerRow {
		header, ok := cellString(headerRow, col)
		if !ok || !strings.Contains(strings.ToLower(header), "expense") {
			continue
		}

		total, ok := cellNumber(totalRow, col+1)
		if !ok || total <= 0 {
			continue
		}

		lower := strings.ToLower(header)
		month := 1
		for i, abbr := range monthAbbrevs {
			if strings.Contains(lower, abbr) {
				month = i + 1
				break
			}
		}

		category := core.CategoryTeam
		if strings.Contains(lower, "connectivity") {
			category = core.CategoryConnectivity
		}

		name := strings.TrimSpace(strings.ReplaceAll(header, " - Expense", ""))
		expenses = append(expenses, core.Expense{
			ID:       uuid.NewString(),
			Name:     name,
			Amount:   core.Money{Cents: core.CentsFromFloat(total)},
			Event:    name,
			Category: category,
			Date:     core.NewDate(2025, month, 15),
		})
	}
	return expenses
}

// applyLeaderBudgets reads the "TL Connect Budget" sheet: name in column A,
// budget total in column F, rows from index 1. Matching TL members get the
// budget written into their *team* snapshot. The sheet name says
// connectivity but the tracker has always updated the team field, preserved
// here until intent is confirmed.
func applyLeaderBudgets(grid [][]Cell, members []core.Member) int {
	applied := 0
	for i := 1; i < len(grid); i++ {
		row := grid[i]
		name, ok := cellString(row, 0)
		if !ok {
			continue
		}
		budget, ok := cellNumber(row, 5)
		if !ok || budget == 0 {
			continue
		}
		name = strings.TrimSpace(name)
		for j := range members {
			if members[j].Role == core.RoleTL && members[j].Name == name {
				members[j].TeamBudget = core.Money{Cents: core.CentsFromFloat(budget)}
				applied++
				break
			}
		}
	}
	return applied
}
