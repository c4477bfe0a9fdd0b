// Package xlsx reads and writes .xlsx workbooks as tables.
package xlsx

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetkit/internal/table"
)

// ReadFile reads one sheet of an .xlsx file. An empty sheet name selects
// the first sheet. The first row holds the headers.
func ReadFile(path, sheet string) (*table.Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s — is this a valid .xlsx file? %w", path, err)
	}
	defer f.Close()

	return readSheet(f, sheet)
}

// Read reads one sheet of an .xlsx stream.
func Read(r io.Reader, sheet string) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not read Excel data: %w", err)
	}
	defer f.Close()

	return readSheet(f, sheet)
}

// SheetNames lists the sheets of an .xlsx file in workbook order.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func readSheet(f *excelize.File, name string) (*table.Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	if name == "" {
		name = sheets[0]
	} else if idx, _ := f.GetSheetIndex(name); idx < 0 {
		return nil, fmt.Errorf("sheet %q not found — available sheets: %v", name, sheets)
	}

	shown, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
	}
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
	}
	if len(shown) == 0 {
		return &table.Table{}, nil
	}

	headers := table.Headers(shown[0])
	rows := make([][]table.Value, 0, len(shown)-1)
	for r := 1; r < len(shown); r++ {
		var rawRow []string
		if r < len(raw) {
			rawRow = raw[r]
		}
		row := make([]table.Value, len(headers))
		for c := range headers {
			row[c] = cellValue(f, name, r, c, at(shown[r], c), at(rawRow, c))
		}
		rows = append(rows, row)
	}
	return table.FromRows(headers, rows)
}

func at(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// cellValue types one cell. Numbers stay numbers only when their displayed
// form is still a plain number; dates and currency keep the text shown in
// the sheet.
func cellValue(f *excelize.File, sheet string, r, c int, shown, raw string) table.Value {
	if raw == "" && shown == "" {
		return table.Null()
	}
	ref, err := excelize.CoordinatesToCellName(c+1, r+1)
	if err != nil {
		return table.String(shown)
	}
	kind, err := f.GetCellType(sheet, ref)
	if err != nil {
		return table.String(shown)
	}

	switch kind {
	case excelize.CellTypeBool:
		return table.Bool(raw == "1" || raw == "TRUE")
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeFormula:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return table.String(shown)
		}
		if s, err := strconv.ParseFloat(shown, 64); err == nil && s == n {
			return table.Number(n)
		}
		return table.String(shown)
	default:
		return table.String(shown)
	}
}
