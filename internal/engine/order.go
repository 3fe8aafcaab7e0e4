package engine

import (
	"sort"
	"strconv"
	"strings"
)

// Ordering is an injectable sort policy for OrderBy.
//
// A nil *Ordering sorts in natural ascending order. An explicit ordering
// ranks keys by their position in a list; keys missing from the list
// sort after all known keys, keeping first-appearance order.
type Ordering struct {
	pos  map[string]int
	desc bool
}

// Explicit ranks keys by their position in keys. Matching ignores case.
func Explicit(keys ...string) *Ordering {
	o := &Ordering{pos: make(map[string]int, len(keys))}
	for i, k := range keys {
		o.pos[strings.ToLower(k)] = i
	}
	return o
}

// Descending sorts in natural descending order.
func Descending() *Ordering {
	return &Ordering{desc: true}
}

// Alias gives alias the same rank as key.
func (o *Ordering) Alias(alias, key string) *Ordering {
	if p, ok := o.pos[strings.ToLower(key)]; ok {
		o.pos[strings.ToLower(alias)] = p
	}
	return o
}

// Position returns the rank of key in an explicit ordering.
func (o *Ordering) Position(key string) (int, bool) {
	p, ok := o.pos[strings.ToLower(key)]
	return p, ok
}

func (o *Ordering) explicit() bool {
	return o != nil && o.pos != nil
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Weekdays orders Monday..Sunday, also accepting three-letter names.
func Weekdays() *Ordering {
	o := Explicit(weekdays...)
	for _, d := range weekdays {
		o.Alias(d[:3], d)
	}
	return o
}

// Months orders January..December, also accepting three-letter names and
// month numbers.
func Months() *Ordering {
	o := Explicit(months...)
	for i, m := range months {
		o.Alias(m[:3], m)
		o.Alias(strconv.Itoa(i+1), m)
	}
	return o
}

// OrderBy sorts the rows of t by column. The sort is stable and the
// result is a new, materialized table.
func OrderBy(t *Table, column string, ord *Ordering) (*Table, error) {
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	rows := t.Rows()

	switch {
	case ord.explicit():
		const unknown = int(^uint(0) >> 1)
		rank := make([]int, len(rows))
		for i, r := range rows {
			if p, ok := ord.Position(col.Key(r)); ok {
				rank[i] = p
			} else {
				rank[i] = unknown
			}
		}
		idx := make([]int, len(rows))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return rank[idx[a]] < rank[idx[b]] })
		sorted := make([]int, len(rows))
		for i, j := range idx {
			sorted[i] = rows[j]
		}
		rows = sorted
	case ord != nil && ord.desc:
		sort.SliceStable(rows, func(a, b int) bool { return col.less(rows[b], rows[a]) })
	default:
		sort.SliceStable(rows, func(a, b int) bool { return col.less(rows[a], rows[b]) })
	}
	return t.take(rows), nil
}

// less is the natural order of two physical rows: lexical for
// categorical columns, numeric otherwise.
func (c *Column) less(a, b int) bool {
	switch c.kind {
	case Categorical:
		return c.dict[c.ids[a]] < c.dict[c.ids[b]]
	case Integer:
		return c.ints[a] < c.ints[b]
	default:
		return c.floats[a] < c.floats[b]
	}
}
