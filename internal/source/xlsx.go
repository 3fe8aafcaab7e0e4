package source

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"salesdash/internal/engine"
)

// LoadXLSX loads one sheet of a workbook; an empty sheet name means the
// first sheet. The first row is the header.
func LoadXLSX(r io.Reader, sheet string, opts engine.LoadOptions) (*engine.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("read xlsx: workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read xlsx sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read xlsx sheet %q: missing header row", sheet)
	}
	return engine.FromRecords(rows[0], rows[1:], opts)
}
