package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetkit/internal/table"
)

// Sheet is one worksheet to write.
type Sheet struct {
	Name  string
	Table *table.Table
	// BlankFirstRow leaves row 1 empty and starts the headers on row 2,
	// as some contact importers expect.
	BlankFirstRow bool
}

// WriteFile saves the sheets as a new .xlsx file.
func WriteFile(path string, sheets ...Sheet) error {
	f, err := build(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	return nil
}

// Write streams the sheets as an .xlsx workbook.
func Write(w io.Writer, sheets ...Sheet) error {
	f, err := build(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("could not write workbook: %w", err)
	}
	return nil
}

func build(sheets []Sheet) (*excelize.File, error) {
	f := excelize.NewFile()
	if len(sheets) == 0 {
		sheets = []Sheet{{Table: &table.Table{}}}
	}

	for i, sheet := range sheets {
		sheetName := sheet.Name
		if sheetName == "" {
			sheetName = fmt.Sprintf("Sheet%d", i+1)
		}

		if i == 0 {
			// Rename default sheet
			defaultSheet := f.GetSheetName(0)
			if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("could not rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheetName); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("could not create sheet %q: %w", sheetName, err)
			}
		}

		if err := writeTable(f, sheetName, sheet); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeTable(f *excelize.File, name string, sheet Sheet) error {
	t := sheet.Table
	if t == nil {
		return nil
	}
	first := 1
	if sheet.BlankFirstRow {
		first = 2
	}

	header := make([]any, 0, t.Width())
	for _, c := range t.Columns() {
		header = append(header, c)
	}
	if err := setRow(f, name, first, header); err != nil {
		return err
	}

	for r := 0; r < t.Len(); r++ {
		cells := t.Row(r)
		row := make([]any, len(cells))
		for i, v := range cells {
			row[i] = v.Any()
		}
		if err := setRow(f, name, first+1+r, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, cells []any) error {
	if len(cells) == 0 {
		return nil
	}
	ref, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("invalid cell coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
		return fmt.Errorf("could not write row %d of %q: %w", rowNum, sheet, err)
	}
	return nil
}
