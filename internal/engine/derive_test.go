package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound_HalfToEven(t *testing.T) {
	tbl, err := NewTable(
		NumericColumn("temperature", 18.4, 21.5, 22.5, -0.6),
		NumericColumn("total_sales", 1, 2, 3, 4),
	)
	require.NoError(t, err)

	out, err := Round(tbl, "temperature")
	require.NoError(t, err)

	temps, _ := out.Floats("temperature")
	assert.Equal(t, []float64{18, 22, 22, -1}, temps)

	orig, _ := tbl.Floats("temperature")
	assert.Equal(t, []float64{18.4, 21.5, 22.5, -0.6}, orig)
}

func TestRound_NearZeroIsOneGroup(t *testing.T) {
	tbl, err := NewTable(
		NumericColumn("temperature", -0.3, 0.4, -0.2),
		NumericColumn("total_sales", 10, 20, 30),
	)
	require.NoError(t, err)

	rounded, err := Round(tbl, "temperature")
	require.NoError(t, err)

	out, err := Aggregate(rounded, AggregationSpec{GroupBy: []string{"temperature"}, Metrics: []string{"total_sales"}, Reducer: Mean})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	temps, _ := out.Keys("temperature")
	assert.Equal(t, []string{"0"}, temps)
	means, _ := out.Floats("total_sales")
	assert.Equal(t, []float64{20}, means)

	distinct, err := Distinct(rounded, "temperature")
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, distinct)
}

func TestDistinct_NegativeZeroKey(t *testing.T) {
	negZero := math.Copysign(0, -1)
	tbl, err := NewTable(NumericColumn("temperature", negZero, 0, 1))
	require.NoError(t, err)

	distinct, err := Distinct(tbl, "temperature")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, distinct)
}

func TestRound_KeepsSelection(t *testing.T) {
	tbl := salesFixture(t)
	filtered, err := ApplyFilter(tbl, Eq("product", "A"))
	require.NoError(t, err)

	out, err := Round(filtered, "discount")
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
}

func TestRound_RejectsCategorical(t *testing.T) {
	_, err := Round(salesFixture(t), "product")
	assert.IsType(t, &TypeError{}, err)
}

func TestSelect(t *testing.T) {
	tbl := salesFixture(t)
	filtered, err := ApplyFilter(tbl, Eq("product", "B"))
	require.NoError(t, err)

	out, err := Select(filtered, "total_sales", "year")
	require.NoError(t, err)

	assert.Equal(t, []string{"total_sales", "year"}, out.Columns())
	assert.Equal(t, 3, out.Len())

	_, err = Select(tbl, "nope")
	assert.IsType(t, &SchemaError{}, err)
}

func TestDistinct(t *testing.T) {
	tbl := salesFixture(t)

	products, err := Distinct(tbl, "product")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, products)

	filtered, _ := ApplyFilter(tbl, Eq("year", "2022"))
	products, err = Distinct(filtered, "product")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, products)
}

func TestTotal(t *testing.T) {
	tbl := salesFixture(t)

	total, err := Total(tbl, "total_sales")
	require.NoError(t, err)
	assert.Equal(t, 155.0, total)

	empty, _ := ApplyFilter(tbl, Eq("product", "Z"))
	total, err = Total(empty, "total_sales")
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	_, err = Total(tbl, "month")
	assert.IsType(t, &TypeError{}, err)
}
