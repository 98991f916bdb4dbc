// Package xlsx adapts binary .xlsx files to the workbook port.
package xlsx

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"budgetboard/internal/workbook"
)

type File struct {
	f *excelize.File
}

// Open reads a workbook from r.
func Open(r io.Reader) (*File, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &File{f: f}, nil
}

func (x *File) Close() error {
	return x.f.Close()
}

// SheetNames implements workbook.Workbook.
func (x *File) SheetNames() []string {
	return x.f.GetSheetList()
}

// Grid implements workbook.Workbook. Cells that parse as numbers are
// returned as float64, everything else as string; blanks normalize to the
// empty string.
func (x *File) Grid(name string) ([][]workbook.Cell, error) {
	rows, err := x.f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	grid := make([][]workbook.Cell, len(rows))
	for i, row := range rows {
		cells := make([]workbook.Cell, len(row))
		for j, raw := range row {
			cells[j] = convert(raw)
		}
		grid[i] = cells
	}
	return grid, nil
}

func convert(raw string) workbook.Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if v, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64); err == nil {
		return v
	}
	return trimmed
}
