package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"salesdash/internal/engine"
)

const maxSheetName = 31

// WriteXLSX writes t as a single-sheet workbook, header in the first row.
func WriteXLSX(w io.Writer, t *engine.Table, sheet string) error {
	data, err := rows(t)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet = sheetName(sheet)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]any, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	_, err = f.WriteTo(w)
	return err
}

// sheetName trims name to what Excel accepts.
func sheetName(name string) string {
	if name == "" {
		return "Sheet1"
	}
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
		if len(out) == maxSheetName {
			break
		}
	}
	return string(out)
}
