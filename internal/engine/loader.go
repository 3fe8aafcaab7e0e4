package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadOptions maps raw headers onto column names and pins column kinds.
type LoadOptions struct {
	// Aliases renames normalised headers, e.g. "product_name" -> "product".
	Aliases map[string]string
	// Kinds forces a kind per column name; other columns are inferred.
	Kinds map[string]Kind
	// Required columns must be present after aliasing.
	Required []string
}

// --- 1. HEADERS ---

// NormalizeHeader lower-cases a header and collapses every run of
// non-alphanumeric characters into one underscore:
// "Profit_Margin (%)" -> "profit_margin".
func NormalizeHeader(h string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

func (o LoadOptions) columnNames(header []string) ([]string, error) {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		n := NormalizeHeader(h)
		if a, ok := o.Aliases[n]; ok {
			n = a
		}
		if n == "" {
			n = fmt.Sprintf("column_%d", i+1)
		}
		if seen[n] {
			return nil, fmt.Errorf("duplicate column %q (header %q)", n, h)
		}
		seen[n] = true
		names[i] = n
	}
	for _, req := range o.Required {
		if !seen[req] {
			return nil, &SchemaError{Column: req}
		}
	}
	return names, nil
}

// --- 2. MAIN LOADER ---

// LoadCSV reads a CSV stream with a header row into a table.
func LoadCSV(r io.Reader, opts LoadOptions) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("read csv: missing header row")
	}
	return FromRecords(records[0], records[1:], opts)
}

// FromRecords builds a table from a header and string rows. Short rows
// are padded with empty cells; empty numeric cells load as zero.
func FromRecords(header []string, rows [][]string, opts LoadOptions) (*Table, error) {
	names, err := opts.columnNames(header)
	if err != nil {
		return nil, err
	}

	cols := make([]*Column, len(names))
	for i, name := range names {
		kind, forced := opts.Kinds[name]
		if !forced {
			kind = inferKind(rows, i)
		}
		col, err := buildColumn(name, kind, rows, i)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return NewTable(cols...)
}

func cell(rows [][]string, r, i int) string {
	if i >= len(rows[r]) {
		return ""
	}
	return strings.TrimSpace(rows[r][i])
}

// inferKind picks Integer if every non-empty cell is an integer, Numeric
// if every one is a float, Categorical otherwise.
func inferKind(rows [][]string, i int) Kind {
	isInt, isFloat, nonEmpty := true, true, false
	for r := range rows {
		v := cell(rows, r, i)
		if v == "" {
			continue
		}
		nonEmpty = true
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			isFloat = false
			break
		}
	}
	switch {
	case !nonEmpty:
		return Categorical
	case isInt:
		return Integer
	case isFloat:
		return Numeric
	}
	return Categorical
}

func buildColumn(name string, kind Kind, rows [][]string, i int) (*Column, error) {
	switch kind {
	case Integer:
		vals := make([]int64, len(rows))
		for r := range rows {
			v, err := parseInt(cell(rows, r, i))
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", name, r+1, err)
			}
			vals[r] = v
		}
		return IntegerColumn(name, vals...), nil
	case Numeric:
		vals := make([]float64, len(rows))
		for r := range rows {
			s := cell(rows, r, i)
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", name, r+1, err)
			}
			vals[r] = v
		}
		return NumericColumn(name, vals...), nil
	default:
		// Dictionary encoding, same as the ids/dict split of the store.
		enc := newDictEncoder()
		ids := make([]int32, len(rows))
		for r := range rows {
			ids[r] = enc.id(cell(rows, r, i))
		}
		return &Column{name: name, kind: Categorical, ids: ids, dict: enc.dict}, nil
	}
}

// parseInt accepts integral floats ("2021.0") as written by spreadsheets.
func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int64(f), nil
}
