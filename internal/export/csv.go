package export

import (
	"encoding/csv"
	"io"

	"salesdash/internal/engine"
)

// WriteCSV writes a header row and one record per visible row.
func WriteCSV(w io.Writer, t *engine.Table) error {
	data, err := rows(t)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns()))
	for _, row := range data {
		for i, v := range row {
			rec[i] = cellText(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
