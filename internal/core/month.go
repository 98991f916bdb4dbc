package core

import (
	"strings"
	"time"
)

// Month is a year-month marker in YYYY-MM form. The fixed-width format
// makes lexicographic order equal to chronological order.
type Month string

// ParseMonth validates and normalizes a YYYY-MM string. Malformed values
// are rejected here so downstream comparisons never see garbage.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse("2006-01", s); err != nil {
		return "", ErrInvalidMonth
	}
	return Month(s), nil
}

func (m Month) Validate() error {
	_, err := ParseMonth(string(m))
	return err
}

// Before reports whether m is strictly earlier than other.
func (m Month) Before(other Month) bool {
	return string(m) < string(other)
}

// Time returns the first day of the month.
func (m Month) Time() time.Time {
	t, _ := time.Parse("2006-01", string(m))
	return t
}

func (m Month) String() string {
	return string(m)
}

// MonthOf builds a Month for year and month number (1-12).
func MonthOf(year, month int) Month {
	return Month(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01"))
}
