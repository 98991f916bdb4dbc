// Package store owns the four entity collections (budget configuration,
// members, expenses, attrition) behind a single mutex-guarded object. All
// mutation goes through command methods here; consumers read copies and
// recompute derived views on demand. Every command persists the staged
// state first and only swaps the in-memory collections once the write
// succeeded, so a persistence failure never leaves memory ahead of disk.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"budgetboard/internal/core"
	"budgetboard/internal/persist"
)

const (
	keyConfig    = "config"
	keyMembers   = "members"
	keyExpenses  = "expenses"
	keyAttrition = "attrition"

	schemaVersion = 1
)

// envelope wraps each persisted blob with a schema version so future field
// additions stay readable.
type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

type Store struct {
	mu sync.Mutex
	kv persist.KV

	config    core.BudgetConfig
	members   []core.Member
	expenses  []core.Expense
	attrition []core.AttritionRecord
}

func New(kv persist.KV) *Store {
	return &Store{kv: kv}
}

// Load reads the four collections from the persistence collaborator. Missing
// keys are fine on first run. When no reporting month is configured, the
// wall-clock month becomes the default and is persisted immediately.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx, keyConfig, &s.config); err != nil {
		return err
	}
	if err := s.load(ctx, keyMembers, &s.members); err != nil {
		return err
	}
	if err := s.load(ctx, keyExpenses, &s.expenses); err != nil {
		return err
	}
	if err := s.load(ctx, keyAttrition, &s.attrition); err != nil {
		return err
	}

	if s.config.CurrentMonth == "" {
		now := time.Now()
		cfg := s.config
		cfg.CurrentMonth = core.MonthOf(now.Year(), int(now.Month()))
		if err := s.put(ctx, keyConfig, cfg); err != nil {
			return err
		}
		s.config = cfg
	}

	slog.InfoContext(ctx, "Collections loaded",
		"members", len(s.members),
		"expenses", len(s.expenses),
		"attrition", len(s.attrition),
		"current_month", s.config.CurrentMonth)
	return nil
}

func (s *Store) load(ctx context.Context, key string, target any) error {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s envelope: %w", key, err)
	}
	if env.SchemaVersion > schemaVersion {
		return fmt.Errorf("decode %s: unsupported schema version %d", key, env.SchemaVersion)
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	blob, err := json.Marshal(envelope{SchemaVersion: schemaVersion, Data: raw})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", key, err)
	}
	if err := s.kv.Put(ctx, key, blob); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// Config returns the current budget configuration.
func (s *Store) Config() core.BudgetConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// SaveConfig replaces the budget configuration.
func (s *Store) SaveConfig(ctx context.Context, cfg core.BudgetConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.put(ctx, keyConfig, cfg); err != nil {
		return err
	}
	s.config = cfg
	return nil
}

// Members returns a copy of the member collection.
func (s *Store) Members() []core.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Member(nil), s.members...)
}

// Expenses returns a copy of the expense ledger.
func (s *Store) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...)
}

// Attrition returns a copy of the attrition records.
func (s *Store) Attrition() []core.AttritionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.AttritionRecord(nil), s.attrition...)
}

// Snapshot returns consistent copies of all four collections, for
// aggregation and reporting.
func (s *Store) Snapshot() (core.BudgetConfig, []core.Member, []core.Expense, []core.AttritionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config,
		append([]core.Member(nil), s.members...),
		append([]core.Expense(nil), s.expenses...),
		append([]core.AttritionRecord(nil), s.attrition...)
}

// MemberParams are the editable member fields.
type MemberParams struct {
	Name   string
	Role   core.Role
	Leader string
}

// CreateMember adds a member with budget snapshots taken from the current
// configuration for the chosen role.
func (s *Store) CreateMember(ctx context.Context, p MemberParams) (core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.config.Snapshot(p.Role)
	m := core.Member{
		ID:                 uuid.NewString(),
		Name:               strings.TrimSpace(p.Name),
		Role:               p.Role,
		Leader:             strings.TrimSpace(p.Leader),
		TeamBudget:         snap.Team,
		ConnectivityBudget: snap.Connectivity,
		Status:             core.StatusActive,
	}
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}

	next := append(append([]core.Member(nil), s.members...), m)
	if err := s.put(ctx, keyMembers, next); err != nil {
		return core.Member{}, err
	}
	s.members = next
	slog.InfoContext(ctx, "Member created", "id", m.ID, "name", m.Name, "role", m.Role)
	return m, nil
}

// UpdateMember edits a member and re-snapshots both budget fields from the
// current configuration for the (possibly changed) role.
func (s *Store) UpdateMember(ctx context.Context, id string, p MemberParams) (core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.memberIndex(id)
	if idx < 0 {
		return core.Member{}, core.ErrMemberNotFound
	}

	snap := s.config.Snapshot(p.Role)
	updated := s.members[idx]
	updated.Name = strings.TrimSpace(p.Name)
	updated.Role = p.Role
	updated.Leader = strings.TrimSpace(p.Leader)
	updated.TeamBudget = snap.Team
	updated.ConnectivityBudget = snap.Connectivity
	if err := updated.Validate(); err != nil {
		return core.Member{}, err
	}

	next := append([]core.Member(nil), s.members...)
	next[idx] = updated
	if err := s.put(ctx, keyMembers, next); err != nil {
		return core.Member{}, err
	}
	s.members = next
	return updated, nil
}

// DeleteMember removes the member and cascades to their expenses and
// attrition record.
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.memberIndex(id)
	if idx < 0 {
		return core.ErrMemberNotFound
	}

	nextMembers := make([]core.Member, 0, len(s.members)-1)
	nextMembers = append(nextMembers, s.members[:idx]...)
	nextMembers = append(nextMembers, s.members[idx+1:]...)

	nextExpenses := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if e.MemberID != id {
			nextExpenses = append(nextExpenses, e)
		}
	}

	nextAttrition := make([]core.AttritionRecord, 0, len(s.attrition))
	for _, a := range s.attrition {
		if a.MemberID != id {
			nextAttrition = append(nextAttrition, a)
		}
	}

	if err := s.put(ctx, keyMembers, nextMembers); err != nil {
		return err
	}
	if err := s.put(ctx, keyExpenses, nextExpenses); err != nil {
		return err
	}
	if err := s.put(ctx, keyAttrition, nextAttrition); err != nil {
		return err
	}
	s.members = nextMembers
	s.expenses = nextExpenses
	s.attrition = nextAttrition
	slog.InfoContext(ctx, "Member deleted", "id", id)
	return nil
}

// ExpenseParams are the editable expense fields.
type ExpenseParams struct {
	Name     string
	Amount   core.Money
	Event    string
	Category core.Category
	MemberID string
	Date     core.Date
}

// CreateExpense records an expense. MemberID may be empty for general,
// unattributed spend; when set it must reference an existing member.
func (s *Store) CreateExpense(ctx context.Context, p ExpenseParams) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := core.Expense{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(p.Name),
		Amount:   p.Amount,
		Event:    strings.TrimSpace(p.Event),
		Category: p.Category,
		MemberID: strings.TrimSpace(p.MemberID),
		Date:     p.Date,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.MemberID != "" && s.memberIndex(e.MemberID) < 0 {
		return core.Expense{}, core.ErrMemberNotFound
	}

	next := append(append([]core.Expense(nil), s.expenses...), e)
	if err := s.put(ctx, keyExpenses, next); err != nil {
		return core.Expense{}, err
	}
	s.expenses = next
	slog.InfoContext(ctx, "Expense created",
		"id", e.ID, "name", e.Name, "amount_cents", e.Amount.Cents, "category", e.Category)
	return e, nil
}

// UpdateExpense edits an existing expense.
func (s *Store) UpdateExpense(ctx context.Context, id string, p ExpenseParams) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.expenseIndex(id)
	if idx < 0 {
		return core.Expense{}, core.ErrExpenseNotFound
	}

	updated := s.expenses[idx]
	updated.Name = strings.TrimSpace(p.Name)
	updated.Amount = p.Amount
	updated.Event = strings.TrimSpace(p.Event)
	updated.Category = p.Category
	updated.MemberID = strings.TrimSpace(p.MemberID)
	updated.Date = p.Date
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}
	if updated.MemberID != "" && s.memberIndex(updated.MemberID) < 0 {
		return core.Expense{}, core.ErrMemberNotFound
	}

	next := append([]core.Expense(nil), s.expenses...)
	next[idx] = updated
	if err := s.put(ctx, keyExpenses, next); err != nil {
		return core.Expense{}, err
	}
	s.expenses = next
	return updated, nil
}

// DeleteExpense removes an expense independently of its member.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.expenseIndex(id)
	if idx < 0 {
		return core.ErrExpenseNotFound
	}
	next := make([]core.Expense, 0, len(s.expenses)-1)
	next = append(next, s.expenses[:idx]...)
	next = append(next, s.expenses[idx+1:]...)
	if err := s.put(ctx, keyExpenses, next); err != nil {
		return err
	}
	s.expenses = next
	return nil
}

// RecordExit creates the member's attrition record and flips their status
// to exited. A member has at most one record at a time.
func (s *Store) RecordExit(ctx context.Context, memberID string, exitMonth core.Month) (core.AttritionRecord, error) {
	if err := exitMonth.Validate(); err != nil {
		return core.AttritionRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.memberIndex(memberID)
	if idx < 0 {
		return core.AttritionRecord{}, core.ErrMemberNotFound
	}
	for _, a := range s.attrition {
		if a.MemberID == memberID {
			return core.AttritionRecord{}, core.ErrDuplicateExit
		}
	}

	rec := core.AttritionRecord{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		ExitMonth: exitMonth,
	}
	nextAttrition := append(append([]core.AttritionRecord(nil), s.attrition...), rec)
	nextMembers := append([]core.Member(nil), s.members...)
	nextMembers[idx].Status = core.StatusExited

	if err := s.put(ctx, keyMembers, nextMembers); err != nil {
		return core.AttritionRecord{}, err
	}
	if err := s.put(ctx, keyAttrition, nextAttrition); err != nil {
		return core.AttritionRecord{}, err
	}
	s.members = nextMembers
	s.attrition = nextAttrition
	slog.InfoContext(ctx, "Exit recorded", "member_id", memberID, "exit_month", exitMonth)
	return rec, nil
}

// RemoveExit deletes an attrition record and flips the member back to
// active.
func (s *Store) RemoveExit(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recIdx := -1
	for i, a := range s.attrition {
		if a.ID == id {
			recIdx = i
			break
		}
	}
	if recIdx < 0 {
		return core.ErrExitNotFound
	}

	memberID := s.attrition[recIdx].MemberID
	nextAttrition := make([]core.AttritionRecord, 0, len(s.attrition)-1)
	nextAttrition = append(nextAttrition, s.attrition[:recIdx]...)
	nextAttrition = append(nextAttrition, s.attrition[recIdx+1:]...)

	nextMembers := append([]core.Member(nil), s.members...)
	if idx := s.memberIndex(memberID); idx >= 0 {
		nextMembers[idx].Status = core.StatusActive
	}

	if err := s.put(ctx, keyMembers, nextMembers); err != nil {
		return err
	}
	if err := s.put(ctx, keyAttrition, nextAttrition); err != nil {
		return err
	}
	s.members = nextMembers
	s.attrition = nextAttrition
	return nil
}

// ImportReplace atomically swaps in collections staged by the spreadsheet
// reconciler: the staged state is persisted first and the in-memory
// collections only change once every write succeeded. Attrition records
// whose member disappeared in a roster replace are pruned to keep the
// status/attrition invariant.
func (s *Store) ImportReplace(ctx context.Context, members []core.Member, replaceMembers bool, expenses []core.Expense, replaceExpenses bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stagedMembers := s.members
	if replaceMembers {
		stagedMembers = members
	}
	stagedExpenses := s.expenses
	if replaceExpenses {
		stagedExpenses = expenses
	}

	stagedAttrition := s.attrition
	if replaceMembers {
		known := make(map[string]struct{}, len(stagedMembers))
		for _, m := range stagedMembers {
			known[m.ID] = struct{}{}
		}
		stagedAttrition = make([]core.AttritionRecord, 0, len(s.attrition))
		for _, a := range s.attrition {
			if _, ok := known[a.MemberID]; ok {
				stagedAttrition = append(stagedAttrition, a)
			}
		}
	}

	type staged struct {
		key  string
		data any
	}
	writes := []staged{
		{keyMembers, stagedMembers},
		{keyExpenses, stagedExpenses},
		{keyAttrition, stagedAttrition},
	}
	for _, w := range writes {
		if err := s.put(ctx, w.key, w.data); err != nil {
			return err
		}
	}

	s.members = stagedMembers
	s.expenses = stagedExpenses
	s.attrition = stagedAttrition

	slog.InfoContext(ctx, "Import committed",
		"members_replaced", replaceMembers,
		"expenses_replaced", replaceExpenses,
		"members", len(s.members),
		"expenses", len(s.expenses))
	return nil
}

// MemberByID looks up a member, returning an explicit not-found error.
func (s *Store) MemberByID(id string) (core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.memberIndex(id); idx >= 0 {
		return s.members[idx], nil
	}
	return core.Member{}, core.ErrMemberNotFound
}

func (s *Store) memberIndex(id string) int {
	for i, m := range s.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) expenseIndex(id string) int {
	for i, e := range s.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}
