package engine

import (
	"strconv"

	"github.com/RoaringBitmap/roaring"
)

// All is the sentinel selection meaning "no restriction".
const All = "All"

// Mode selects how a predicate compares a column to its values.
type Mode int

const (
	// Equals keeps rows whose value equals Values[0].
	Equals Mode = iota
	// MemberOf keeps rows whose value is any of Values.
	MemberOf
)

// Predicate is a column-scoped inclusion test.
// An empty value set, or one containing All, restricts nothing.
type Predicate struct {
	Column string
	Mode   Mode
	Values []string
}

// Eq builds an Equals predicate.
func Eq(column, value string) Predicate {
	return Predicate{Column: column, Mode: Equals, Values: []string{value}}
}

// In builds a MemberOf predicate.
func In(column string, values ...string) Predicate {
	return Predicate{Column: column, Mode: MemberOf, Values: values}
}

// IsAll reports whether the predicate is the identity filter.
func (p Predicate) IsAll() bool {
	if len(p.Values) == 0 {
		return true
	}
	for _, v := range p.Values {
		if v == All {
			return true
		}
	}
	return false
}

func (p Predicate) wanted() []string {
	if p.Mode == Equals {
		return p.Values[:1]
	}
	return p.Values
}

// ApplyFilter returns the rows of t that satisfy p.
// The identity predicate returns t itself; an empty result is a zero-row
// table, never an error.
func ApplyFilter(t *Table, p Predicate) (*Table, error) {
	col, err := t.Column(p.Column)
	if err != nil {
		return nil, err
	}
	if p.IsAll() {
		return t, nil
	}

	match := col.matcher(p.wanted())
	sel := roaring.New()
	for _, r := range t.Rows() {
		if match(r) {
			sel.Add(uint32(r))
		}
	}
	return t.withSelection(sel), nil
}

// ApplyFilters folds ApplyFilter over ps from left to right (logical AND).
func ApplyFilters(t *Table, ps ...Predicate) (*Table, error) {
	out := t
	for _, p := range ps {
		next, err := ApplyFilter(out, p)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// matcher compiles the wanted values against the column's storage.
// Categorical columns resolve values to dictionary ids once; numeric
// columns compare numerically and ignore values that do not parse.
func (c *Column) matcher(values []string) func(row int) bool {
	switch c.kind {
	case Categorical:
		want := make(map[string]bool, len(values))
		for _, v := range values {
			want[v] = true
		}
		hit := make([]bool, len(c.dict))
		for id, s := range c.dict {
			hit[id] = want[s]
		}
		return func(row int) bool { return hit[c.ids[row]] }
	default:
		want := make(map[float64]bool, len(values))
		for _, v := range values {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				want[f] = true
			}
		}
		return func(row int) bool { return want[c.Float(row)] }
	}
}
