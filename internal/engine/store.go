package engine

import (
	"fmt"
	"math"
	"strconv"

	"github.com/RoaringBitmap/roaring"
)

// Column holds one column in Struct-of-Arrays format.
// Categorical values are dictionary encoded: ids index into dict.
type Column struct {
	name string
	kind Kind

	// Dictionary Encoded IDs (0..N)
	ids  []int32
	dict []string

	ints   []int64
	floats []float64
}

// CategoricalColumn dictionary-encodes values into a categorical column.
func CategoricalColumn(name string, values ...string) *Column {
	enc := newDictEncoder()
	ids := make([]int32, len(values))
	for i, v := range values {
		ids[i] = enc.id(v)
	}
	return &Column{name: name, kind: Categorical, ids: ids, dict: enc.dict}
}

// IntegerColumn wraps values as an integer column. The slice is not copied.
func IntegerColumn(name string, values ...int64) *Column {
	return &Column{name: name, kind: Integer, ints: values}
}

// NumericColumn wraps values as a numeric column. The slice is not copied.
func NumericColumn(name string, values ...float64) *Column {
	return &Column{name: name, kind: Numeric, floats: values}
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }

// Len is the physical length of the column, ignoring any table selection.
func (c *Column) Len() int {
	switch c.kind {
	case Categorical:
		return len(c.ids)
	case Integer:
		return len(c.ints)
	default:
		return len(c.floats)
	}
}

// Key renders the value at a physical row as a string. Group keys and
// predicate matching work on keys.
func (c *Column) Key(row int) string {
	switch c.kind {
	case Categorical:
		return c.dict[c.ids[row]]
	case Integer:
		return strconv.FormatInt(c.ints[row], 10)
	default:
		return formatFloat(c.floats[row])
	}
}

// Float returns the numeric value at a physical row, NaN for categorical columns.
func (c *Column) Float(row int) float64 {
	switch c.kind {
	case Integer:
		return float64(c.ints[row])
	case Numeric:
		return c.floats[row]
	}
	return math.NaN()
}

// Value returns the cell as string, int64 or float64.
func (c *Column) Value(row int) any {
	switch c.kind {
	case Categorical:
		return c.dict[c.ids[row]]
	case Integer:
		return c.ints[row]
	default:
		return c.floats[row]
	}
}

// take copies the given physical rows, in order, into a new column.
// Categorical columns share the (read-only) dictionary.
func (c *Column) take(rows []int) *Column {
	out := &Column{name: c.name, kind: c.kind, dict: c.dict}
	switch c.kind {
	case Categorical:
		out.ids = make([]int32, len(rows))
		for i, r := range rows {
			out.ids[i] = c.ids[r]
		}
	case Integer:
		out.ints = make([]int64, len(rows))
		for i, r := range rows {
			out.ints[i] = c.ints[r]
		}
	default:
		out.floats = make([]float64, len(rows))
		for i, r := range rows {
			out.floats[i] = c.floats[r]
		}
	}
	return out
}

// formatFloat folds -0 into 0 so both land in one group.
func formatFloat(f float64) string {
	if f == 0 {
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// dictEncoder assigns dense ids to distinct strings in first-seen order.
type dictEncoder struct {
	index map[string]int32
	dict  []string
}

func newDictEncoder() *dictEncoder {
	return &dictEncoder{index: make(map[string]int32)}
}

func (d *dictEncoder) id(s string) int32 {
	if id, ok := d.index[s]; ok {
		return id
	}
	id := int32(len(d.dict))
	d.dict = append(d.dict, s)
	d.index[s] = id
	return id
}

// Table is an immutable, column-typed record table.
//
// A filtered table shares its parent's columns and only carries the set
// of physical rows it keeps; sel == nil means every row.
type Table struct {
	cols  []*Column
	index map[string]int
	nrows int
	sel   *roaring.Bitmap
}

// NewTable assembles a table from equally sized, uniquely named columns.
func NewTable(cols ...*Column) (*Table, error) {
	index := make(map[string]int, len(cols))
	nrows := 0
	for i, c := range cols {
		if _, dup := index[c.name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.name)
		}
		if i == 0 {
			nrows = c.Len()
		} else if c.Len() != nrows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.name, c.Len(), nrows)
		}
		index[c.name] = i
	}
	return &Table{cols: cols, index: index, nrows: nrows}, nil
}

// Len is the number of rows visible through the table.
func (t *Table) Len() int {
	if t.sel == nil {
		return t.nrows
	}
	return int(t.sel.GetCardinality())
}

// Fields describes the table's columns in order.
func (t *Table) Fields() []Field {
	out := make([]Field, len(t.cols))
	for i, c := range t.cols {
		out[i] = Field{Name: c.name, Kind: c.kind}
	}
	return out
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// Has reports whether the table has a column with this name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, &SchemaError{Column: name}
	}
	return t.cols[i], nil
}

// Rows returns the physical row indices visible through the table, in order.
func (t *Table) Rows() []int {
	if t.sel == nil {
		rows := make([]int, t.nrows)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	rows := make([]int, 0, t.sel.GetCardinality())
	it := t.sel.Iterator()
	for it.HasNext() {
		rows = append(rows, int(it.Next()))
	}
	return rows
}

// Keys returns a column's values rendered as strings, in row order.
func (t *Table) Keys(name string) ([]string, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	rows := t.Rows()
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = c.Key(r)
	}
	return out, nil
}

// Floats returns a numeric column's values in row order.
func (t *Table) Floats(name string) ([]float64, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if !c.kind.IsNumeric() {
		return nil, &TypeError{Column: name, Kind: c.kind, Op: "floats"}
	}
	rows := t.Rows()
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = c.Float(r)
	}
	return out, nil
}

// Values returns a column's cells in row order.
func (t *Table) Values(name string) ([]any, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	rows := t.Rows()
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = c.Value(r)
	}
	return out, nil
}

func (t *Table) withSelection(sel *roaring.Bitmap) *Table {
	return &Table{cols: t.cols, index: t.index, nrows: t.nrows, sel: sel}
}

// take materializes the given physical rows into a new table.
func (t *Table) take(rows []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.take(rows)
	}
	return &Table{cols: cols, index: t.index, nrows: len(rows)}
}

// replace returns a table sharing every column except the one at position i.
func (t *Table) replace(i int, c *Column) *Table {
	cols := make([]*Column, len(t.cols))
	copy(cols, t.cols)
	cols[i] = c
	return &Table{cols: cols, index: t.index, nrows: t.nrows, sel: t.sel}
}
