package engine

import "math"

// Round returns a table whose numeric column is rounded to the nearest
// integer, halves to even. Other columns are shared with t.
func Round(t *Table, column string) (*Table, error) {
	cols, err := t.resolveNumeric([]string{column}, "round")
	if err != nil {
		return nil, err
	}
	c := cols[0]
	if c.kind == Integer {
		return t, nil
	}
	vals := make([]float64, len(c.floats))
	for i, v := range c.floats {
		if vals[i] = math.RoundToEven(v); vals[i] == 0 {
			vals[i] = 0
		}
	}
	return t.replace(t.index[column], NumericColumn(column, vals...)), nil
}

// Select projects t onto the named columns, in the given order.
func Select(t *Table, columns ...string) (*Table, error) {
	cols, err := t.resolve(columns)
	if err != nil {
		return nil, err
	}
	out, err := NewTable(cols...)
	if err != nil {
		return nil, err
	}
	out.sel = t.sel
	return out, nil
}

// Distinct returns the distinct keys of a column in first-appearance order.
func Distinct(t *Table, column string) ([]string, error) {
	c, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows() {
		k := c.Key(r)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out, nil
}

// Total sums a numeric column over the visible rows.
func Total(t *Table, column string) (float64, error) {
	cols, err := t.resolveNumeric([]string{column}, "total")
	if err != nil {
		return 0, err
	}
	var total float64
	for _, r := range t.Rows() {
		total += cols[0].Float(r)
	}
	return total, nil
}
