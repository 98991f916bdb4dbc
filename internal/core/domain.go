package core

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleBPS Role = "BPS" // individual contributor
	RoleTL  Role = "TL"  // team leader
	RoleTM  Role = "TM"  // team manager

	CategoryTeam         Category = "team"
	CategoryConnectivity Category = "connectivity"

	StatusActive Status = "active"
	StatusExited Status = "exited"
)

type (
	Role     string
	Category string
	Status   string

	Date struct {
		time.Time
	}

	// RoleBudget is a pair of budget ceilings for one role.
	RoleBudget struct {
		Team         Money `json:"team"`
		Connectivity Money `json:"connectivity"`
	}

	// BudgetConfig holds the per-role budget ceilings and the reporting
	// month used as the attrition cutoff reference.
	BudgetConfig struct {
		BPS          RoleBudget `json:"bps"`
		TL           RoleBudget `json:"tl"`
		TM           RoleBudget `json:"tm"`
		CurrentMonth Month      `json:"current_month"`
	}

	// Member carries a snapshot of the budget ceilings captured from
	// BudgetConfig at save time. Later configuration changes do not
	// retroactively change the snapshot.
	Member struct {
		ID                 string `json:"id"`
		Name               string `json:"name"`
		Role               Role   `json:"role"`
		Leader             string `json:"leader,omitempty"` // free text, not a foreign key
		TeamBudget         Money  `json:"team_budget"`
		ConnectivityBudget Money  `json:"connectivity_budget"`
		Status             Status `json:"status"`
	}

	Expense struct {
		ID       string   `json:"id"`
		Name     string   `json:"name"`
		Amount   Money    `json:"amount"`
		Event    string   `json:"event"`
		Category Category `json:"category"`
		MemberID string   `json:"member_id,omitempty"` // empty = unattributed
		Date     Date     `json:"date"`
	}

	// AttritionRecord marks a member's exit. A member has at most one record
	// at a time; its existence mirrors the member's exited status.
	AttritionRecord struct {
		ID        string `json:"id"`
		MemberID  string `json:"member_id"`
		ExitMonth Month  `json:"exit_month"`
	}
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyEvent      = errors.New("empty event")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidDate     = errors.New("invalid date")

	ErrMemberNotFound  = errors.New("member not found")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrExitNotFound    = errors.New("exit record not found")
	ErrDuplicateExit   = errors.New("member already has an exit record")
)

// ParseRole accepts one of the three exact role names.
func ParseRole(s string) (Role, error) {
	switch Role(strings.TrimSpace(s)) {
	case RoleBPS:
		return RoleBPS, nil
	case RoleTL:
		return RoleTL, nil
	case RoleTM:
		return RoleTM, nil
	}
	return "", ErrInvalidRole
}

func (r Role) Validate() error {
	switch r {
	case RoleBPS, RoleTL, RoleTM:
		return nil
	}
	return ErrInvalidRole
}

// ParseCategory accepts one of the two budget dimensions.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.TrimSpace(s)) {
	case CategoryTeam:
		return CategoryTeam, nil
	case CategoryConnectivity:
		return CategoryConnectivity, nil
	}
	return "", ErrInvalidCategory
}

func (c Category) Validate() error {
	switch c {
	case CategoryTeam, CategoryConnectivity:
		return nil
	}
	return ErrInvalidCategory
}

// NewDate creates a day-granularity Date.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MonthKey returns the YYYY-MM prefix of the date.
func (d Date) MonthKey() Month {
	return Month(d.Format("2006-01"))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Snapshot returns the pair of budget ceilings configured for a role.
func (c BudgetConfig) Snapshot(r Role) RoleBudget {
	switch r {
	case RoleTL:
		return c.TL
	case RoleTM:
		return c.TM
	default:
		return c.BPS
	}
}

func (c BudgetConfig) Validate() error {
	if c.CurrentMonth != "" {
		if err := c.CurrentMonth.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	return m.Role.Validate()
}

// BudgetFor returns the member's snapshotted ceiling for a category.
func (m Member) BudgetFor(c Category) Money {
	if c == CategoryConnectivity {
		return m.ConnectivityBudget
	}
	return m.TeamBudget
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(e.Event) == "" {
		return ErrEmptyEvent
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	return e.Date.Validate()
}

func (a AttritionRecord) Validate() error {
	if strings.TrimSpace(a.MemberID) == "" {
		return ErrMemberNotFound
	}
	return a.ExitMonth.Validate()
}
