// Package workbook ingests externally supplied tabular workbooks and
// reconciles them into the entity collections.
package workbook

import "strings"

// Cell is a single spreadsheet cell: string, float64 or the empty string
// for blank cells.
type Cell = any

// Workbook is the import collaborator port: sheet names plus a headerless
// row/column grid per sheet.
type Workbook interface {
	SheetNames() []string
	Grid(name string) ([][]Cell, error)
}

// cellString returns the cell at idx when it is a non-empty string.
func cellString(row []Cell, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	s, ok := row[idx].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// cellNumber returns the cell at idx when it holds a number.
func cellNumber(row []Cell, idx int) (float64, bool) {
	if idx < 0 || idx >= len(row) {
		return 0, false
	}
	switch v := row[idx].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
