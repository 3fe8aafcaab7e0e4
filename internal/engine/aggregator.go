package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Reducer folds the metric values of one group into a single number.
type Reducer int

const (
	Sum Reducer = iota
	Mean
)

func (r Reducer) String() string {
	if r == Mean {
		return "mean"
	}
	return "sum"
}

// AggregationSpec describes a group-by. Pivot turns the second group-by
// column into one output column per distinct value.
type AggregationSpec struct {
	GroupBy []string
	Metrics []string
	Reducer Reducer
	Pivot   bool
}

// aggStats is the running reducer state of one (group, metric) cell.
type aggStats struct {
	Sum   float64
	Count int
}

func (s *aggStats) add(v float64) {
	s.Sum += v
	s.Count++
}

func (s aggStats) result(r Reducer) float64 {
	if r == Mean {
		if s.Count == 0 {
			return math.NaN()
		}
		return s.Sum / float64(s.Count)
	}
	return s.Sum
}

// Aggregate groups t by spec.GroupBy and reduces every metric per group.
//
// The long form emits one row per distinct key tuple, in first-appearance
// order: the key columns keep their kind, the metric columns are numeric.
// Groups with no rows never appear, so an empty input yields a zero-row
// table.
func Aggregate(t *Table, spec AggregationSpec) (*Table, error) {
	// 1. Resolve columns
	keys, err := t.resolve(spec.GroupBy)
	if err != nil {
		return nil, err
	}
	metrics, err := t.resolveNumeric(spec.Metrics, spec.Reducer.String())
	if err != nil {
		return nil, err
	}
	if err := checkShape(spec); err != nil {
		return nil, err
	}
	if spec.Pivot {
		return pivot(t, keys[0], keys[1], metrics[0], spec.Reducer)
	}

	// 2. Single pass: key tuple -> group id -> running stats
	groupOf := make(map[string]int)
	var firstRow []int
	var stats [][]aggStats

	for _, r := range t.Rows() {
		k := tupleKey(keys, r)
		g, ok := groupOf[k]
		if !ok {
			g = len(firstRow)
			groupOf[k] = g
			firstRow = append(firstRow, r)
			stats = append(stats, make([]aggStats, len(metrics)))
		}
		for m, c := range metrics {
			stats[g][m].add(c.Float(r))
		}
	}

	// 3. Materialize in output order
	cols := make([]*Column, 0, len(keys)+len(metrics))
	for _, k := range keys {
		cols = append(cols, k.take(firstRow))
	}
	for m, c := range metrics {
		vals := make([]float64, len(firstRow))
		for g := range vals {
			vals[g] = stats[g][m].result(spec.Reducer)
		}
		cols = append(cols, NumericColumn(c.name, vals...))
	}
	return NewTable(cols...)
}

func checkShape(spec AggregationSpec) error {
	if len(spec.GroupBy) == 0 {
		return fmt.Errorf("%w: at least one group-by column is required", ErrInvalidSpec)
	}
	if len(spec.Metrics) == 0 {
		return fmt.Errorf("%w: at least one metric column is required", ErrInvalidSpec)
	}
	if spec.Pivot && (len(spec.GroupBy) != 2 || len(spec.Metrics) != 1) {
		return fmt.Errorf("%w: pivot needs two group-by columns and one metric", ErrInvalidSpec)
	}
	for _, m := range spec.Metrics {
		for _, g := range spec.GroupBy {
			if m == g {
				return fmt.Errorf("%w: %q is both a key and a metric", ErrInvalidSpec, m)
			}
		}
	}
	return nil
}

// pivot reduces metric per (index, across) pair and spreads the across
// values into columns, in natural ascending order. Missing combinations
// are NaN.
func pivot(t *Table, index, across, metric *Column, r Reducer) (*Table, error) {
	rowOf := make(map[string]int)
	colOf := make(map[string]int)
	var firstRow, firstCol []int
	cells := make(map[[2]int]*aggStats)

	for _, row := range t.Rows() {
		ik := index.Key(row)
		i, ok := rowOf[ik]
		if !ok {
			i = len(firstRow)
			rowOf[ik] = i
			firstRow = append(firstRow, row)
		}
		ak := across.Key(row)
		j, ok := colOf[ak]
		if !ok {
			j = len(firstCol)
			colOf[ak] = j
			firstCol = append(firstCol, row)
		}
		s, ok := cells[[2]int{i, j}]
		if !ok {
			s = &aggStats{}
			cells[[2]int{i, j}] = s
		}
		s.add(metric.Float(row))
	}

	order := make([]int, len(firstCol))
	for j := range order {
		order[j] = j
	}
	sort.SliceStable(order, func(a, b int) bool {
		return across.less(firstCol[order[a]], firstCol[order[b]])
	})

	cols := []*Column{index.take(firstRow)}
	for _, j := range order {
		vals := make([]float64, len(firstRow))
		for i := range vals {
			if s, ok := cells[[2]int{i, j}]; ok {
				vals[i] = s.result(r)
			} else {
				vals[i] = math.NaN()
			}
		}
		name := across.Key(firstCol[j])
		if name == index.name {
			name += "_" + across.name
		}
		cols = append(cols, NumericColumn(name, vals...))
	}

	out, err := NewTable(cols...)
	if err != nil {
		return nil, fmt.Errorf("%w: pivot: %v", ErrInvalidSpec, err)
	}
	return out, nil
}

// CompareOp is the comparison a Mask applies to its column.
type CompareOp int

const (
	OpEQ CompareOp = iota
	OpNE
	OpGT
	OpGE
	OpLT
	OpLE
)

// Mask selects which rows contribute their metric value to a masked sum.
type Mask struct {
	Name   string
	Column string
	Op     CompareOp
	Value  float64
}

func (m Mask) holds(v float64) bool {
	switch m.Op {
	case OpEQ:
		return v == m.Value
	case OpNE:
		return v != m.Value
	case OpGT:
		return v > m.Value
	case OpGE:
		return v >= m.Value
	case OpLT:
		return v < m.Value
	case OpLE:
		return v <= m.Value
	}
	return false
}

// MaskedSumSpec sums Metric once per mask, zeroing rows where the mask
// does not hold.
type MaskedSumSpec struct {
	GroupBy []string
	Metric  string
	Masks   []Mask
}

// MaskedSum is the "zero out instead of filter out" aggregation: every
// row counts toward its group, so a group whose masked values are all
// zero still appears. One numeric output column per mask, named
// Mask.Name.
func MaskedSum(t *Table, spec MaskedSumSpec) (*Table, error) {
	keys, err := t.resolve(spec.GroupBy)
	if err != nil {
		return nil, err
	}
	metric, err := t.resolveNumeric([]string{spec.Metric}, "masked sum")
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 || len(spec.Masks) == 0 {
		return nil, fmt.Errorf("%w: masked sum needs a group-by column and a mask", ErrInvalidSpec)
	}
	conds := make([]*Column, len(spec.Masks))
	for i, m := range spec.Masks {
		c, err := t.resolveNumeric([]string{m.Column}, "mask")
		if err != nil {
			return nil, err
		}
		conds[i] = c[0]
	}

	groupOf := make(map[string]int)
	var firstRow []int
	var sums [][]float64
	for _, r := range t.Rows() {
		k := tupleKey(keys, r)
		g, ok := groupOf[k]
		if !ok {
			g = len(firstRow)
			groupOf[k] = g
			firstRow = append(firstRow, r)
			sums = append(sums, make([]float64, len(spec.Masks)))
		}
		v := metric[0].Float(r)
		for i, m := range spec.Masks {
			if m.holds(conds[i].Float(r)) {
				sums[g][i] += v
			}
		}
	}

	cols := make([]*Column, 0, len(keys)+len(spec.Masks))
	for _, k := range keys {
		cols = append(cols, k.take(firstRow))
	}
	for i, m := range spec.Masks {
		vals := make([]float64, len(firstRow))
		for g := range vals {
			vals[g] = sums[g][i]
		}
		cols = append(cols, NumericColumn(m.Name, vals...))
	}
	return NewTable(cols...)
}

// tupleKey joins the key values of a row with the ASCII unit separator.
func tupleKey(keys []*Column, row int) string {
	if len(keys) == 1 {
		return keys[0].Key(row)
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Key(row)
	}
	return strings.Join(parts, "\x1f")
}

func (t *Table) resolve(names []string) ([]*Column, error) {
	out := make([]*Column, len(names))
	for i, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func (t *Table) resolveNumeric(names []string, op string) ([]*Column, error) {
	out, err := t.resolve(names)
	if err != nil {
		return nil, err
	}
	for _, c := range out {
		if !c.kind.IsNumeric() {
			return nil, &TypeError{Column: c.name, Kind: c.kind, Op: op}
		}
	}
	return out, nil
}
