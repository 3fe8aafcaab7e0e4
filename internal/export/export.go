package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"salesdash/internal/engine"
)

// Format is a download format for a derived table.
type Format string

const (
	CSV   Format = "csv"
	XLSX  Format = "xlsx"
	Arrow Format = "arrow"
)

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case CSV, XLSX, Arrow:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case Arrow:
		return "application/vnd.apache.arrow.stream"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Ext is the file extension for f, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Write encodes t in format f. name titles the xlsx sheet.
func Write(w io.Writer, f Format, t *engine.Table, name string) error {
	switch f {
	case XLSX:
		return WriteXLSX(w, t, name)
	case Arrow:
		return WriteArrow(w, t)
	case CSV:
		return WriteCSV(w, t)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// rows returns the visible cells of t row by row. NaN becomes nil.
func rows(t *engine.Table) ([][]any, error) {
	names := t.Columns()
	cols := make([][]any, len(names))
	for i, n := range names {
		v, err := t.Values(n)
		if err != nil {
			return nil, err
		}
		cols[i] = v
	}
	out := make([][]any, t.Len())
	for r := range out {
		row := make([]any, len(cols))
		for c := range cols {
			v := cols[c][r]
			if f, ok := v.(float64); ok && math.IsNaN(f) {
				v = nil
			}
			row[c] = v
		}
		out[r] = row
	}
	return out, nil
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
