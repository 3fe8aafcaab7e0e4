package dashboard

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/engine"
)

const salesCSV = `year,product_name,day,month,promotion,total_sales,net_profit,discounted_sales,unit_sold,profit_margin (%),temperature,discount
2021,A,Monday,January,1,100,20,90,10,20,18.4,0.1
2021,B,Tuesday,January,0,50,5,0,5,10,21.6,0
2022,A,Monday,February,0,80,16,0,8,20,22.4,0
2022,B,Sunday,February,1,40,8,36,4,20,18.2,0.1
2022,C,Wednesday,March,0,30,3,0,3,10,21.5,0
`

func loadSales(t *testing.T) *engine.Table {
	t.Helper()
	tbl, err := engine.LoadCSV(strings.NewReader(salesCSV), LoadOptions())
	require.NoError(t, err)
	return tbl
}

func build(t *testing.T, id string, sel Selection) *engine.Table {
	t.Helper()
	p, err := New(nil).Build(loadSales(t), id, sel)
	require.NoError(t, err)
	return p.Table
}

func keys(t *testing.T, tbl *engine.Table, col string) []string {
	t.Helper()
	k, err := tbl.Keys(col)
	require.NoError(t, err)
	return k
}

func floats(t *testing.T, tbl *engine.Table, col string) []float64 {
	t.Helper()
	f, err := tbl.Floats(col)
	require.NoError(t, err)
	return f
}

func TestSalesCatalog(t *testing.T) {
	charts := Sales().Charts()
	require.Len(t, charts, 16)

	seen := map[string]bool{}
	for _, c := range charts {
		assert.False(t, seen[c.ID], "duplicate chart %s", c.ID)
		seen[c.ID] = true
		assert.NotEmpty(t, c.Title)
	}

	_, ok := Sales().Lookup("nope")
	assert.False(t, ok)
}

func TestBuildAll_EveryChartBuilds(t *testing.T) {
	panels, err := New(nil).BuildAll(loadSales(t), Selection{})
	require.NoError(t, err)
	require.Len(t, panels, 16)

	for _, p := range panels {
		assert.NotZero(t, p.Table.Len(), p.Spec.ID)
		for _, y := range p.Spec.Roles.Y {
			assert.True(t, p.Table.Has(y), "%s: missing %s", p.Spec.ID, y)
		}
	}
}

func TestBuild_BaseScopeIgnoresGlobalFilters(t *testing.T) {
	out := build(t, ChartSalesByProduct, Selection{Year: "2021", Products: []string{"A"}})

	assert.Equal(t, []string{"A", "B", "C"}, keys(t, out, ColProduct))
	assert.Equal(t, []float64{180, 90, 30}, floats(t, out, ColTotalSales))
}

func TestBuild_GlobalAndLocalFilters(t *testing.T) {
	byYear := build(t, ChartNetProfitByProduct, Selection{Year: "2022"})
	assert.Equal(t, []string{"A", "B", "C"}, keys(t, byYear, ColProduct))
	assert.Equal(t, []float64{16, 8, 3}, floats(t, byYear, ColNetProfit))

	local := build(t, ChartNetProfitByProduct, Selection{Local: map[string]string{ChartNetProfitByProduct: "B"}})
	assert.Equal(t, []string{"B"}, keys(t, local, ColProduct))
	assert.Equal(t, []float64{13}, floats(t, local, ColNetProfit))
}

func TestBuild_DiscountedVsNonDiscounted(t *testing.T) {
	out := build(t, ChartDiscountedVsFull, Selection{})
	assert.Equal(t, []string{"2021", "2022"}, keys(t, out, ColYear))
	assert.Equal(t, []float64{100, 40}, floats(t, out, "discounted_sales"))
	assert.Equal(t, []float64{50, 110}, floats(t, out, "non_discounted_sales"))

	// A product with no discounted rows keeps its year, with a zero.
	onlyC := build(t, ChartDiscountedVsFull, Selection{Local: map[string]string{ChartDiscountedVsFull: "C"}})
	assert.Equal(t, []string{"2022"}, keys(t, onlyC, ColYear))
	assert.Equal(t, []float64{0}, floats(t, onlyC, "discounted_sales"))
	assert.Equal(t, []float64{30}, floats(t, onlyC, "non_discounted_sales"))
}

func TestBuild_SalesByTemperaturePostFilter(t *testing.T) {
	out := build(t, ChartSalesByTemperature, Selection{})
	assert.Equal(t, []string{"18", "22"}, keys(t, out, ColTemperature))
	sales := floats(t, out, ColTotalSales)
	assert.Equal(t, 70.0, sales[0])
	assert.InDelta(t, 53.333, sales[1], 0.001)

	one := build(t, ChartSalesByTemperature, Selection{Local: map[string]string{ChartSalesByTemperature: "22"}})
	assert.Equal(t, []string{"22"}, keys(t, one, ColTemperature))
}

func TestBuild_WeekdayOrder(t *testing.T) {
	out := build(t, ChartSalesByDay, Selection{})
	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Sunday"}, keys(t, out, ColDay))
	assert.Equal(t, []float64{180, 50, 30, 40}, floats(t, out, ColTotalSales))
}

func TestBuild_Seasonality(t *testing.T) {
	out := build(t, ChartSeasonality, Selection{})

	assert.Equal(t, []string{ColMonth, "A", "B", "C"}, out.Columns())
	assert.Equal(t, []string{"January", "February", "March"}, keys(t, out, ColMonth))

	c := floats(t, out, "C")
	assert.True(t, math.IsNaN(c[0]))
	assert.Equal(t, 30.0, c[2])
	a := floats(t, out, "A")
	assert.Equal(t, []float64{100, 80}, a[:2])
	assert.True(t, math.IsNaN(a[2]))
}

func TestBuild_YearlyComparison(t *testing.T) {
	out := build(t, ChartYearlyComparison, Selection{Products: []string{"A", "B"}})

	assert.Equal(t, []string{ColYear, "A", "B"}, out.Columns())
	assert.Equal(t, []string{"2021", "2022"}, keys(t, out, ColYear))
	assert.Equal(t, []float64{100, 80}, floats(t, out, "A"))
}

func TestBuild_EmptySelectionIsNotAnError(t *testing.T) {
	panels, err := New(nil).BuildAll(loadSales(t), Selection{Products: []string{"Z"}})
	require.NoError(t, err)

	for _, p := range panels {
		if p.Spec.Scope == Base {
			assert.NotZero(t, p.Table.Len(), p.Spec.ID)
		} else {
			assert.Zero(t, p.Table.Len(), p.Spec.ID)
		}
	}
}

func TestBuild_UnknownChart(t *testing.T) {
	_, err := New(nil).Build(loadSales(t), "pie-in-the-sky", Selection{})
	assert.True(t, errors.Is(err, ErrUnknownChart))
}

func TestBuild_MissingColumnIsSchemaError(t *testing.T) {
	tbl, err := engine.LoadCSV(strings.NewReader("year,product,total_sales\n2021,A,1\n"), LoadOptions())
	require.NoError(t, err)

	_, err = New(nil).Build(tbl, ChartSalesByDay, Selection{})
	var schemaErr *engine.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, ColDay, schemaErr.Column)
}

func TestKPIs(t *testing.T) {
	d := New(nil)
	base := loadSales(t)

	all, err := d.KPIs(base, Selection{})
	require.NoError(t, err)
	require.Len(t, all, 4)

	want := map[string]float64{ColTotalSales: 300, ColNetProfit: 52, ColDiscountedSales: 126, ColUnitSold: 30}
	for _, k := range all {
		assert.True(t, decimal.NewFromFloat(want[k.Name]).Equal(k.Value), "%s = %s", k.Name, k.Value)
	}
	assert.Equal(t, "Total Sales", all[0].Label)
	assert.Equal(t, "300.00", all[0].Display)
	assert.Equal(t, "Total Units Sold", all[3].Label)
	assert.Equal(t, "30", all[3].Display)

	none, err := d.KPIs(base, Selection{Products: []string{"Z"}})
	require.NoError(t, err)
	for _, k := range none {
		assert.True(t, k.Value.IsZero(), k.Name)
	}
}

func TestOptions(t *testing.T) {
	d := New(nil)
	base := loadSales(t)
	sel := Selection{Year: "2021"}

	years, err := d.Options(base, sel, ColYear)
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "2021", "2022"}, years)

	days, err := d.Options(base, sel, ColDay)
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "Monday", "Tuesday"}, days)

	_, err = d.Options(base, sel, "region")
	assert.IsType(t, &engine.SchemaError{}, err)
}

func TestChartOptions(t *testing.T) {
	d := New(nil)
	base := loadSales(t)

	products, err := d.ChartOptions(base, ChartNetProfitByProduct, Selection{Products: []string{"A", "C"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "A", "C"}, products)

	temps, err := d.ChartOptions(base, ChartSalesByTemperature, Selection{})
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "18", "22"}, temps)

	none, err := d.ChartOptions(base, ChartSalesByProduct, Selection{})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSelection(t *testing.T) {
	for _, p := range (Selection{}).Global() {
		assert.True(t, p.IsAll(), p.Column)
	}

	sel := Selection{Local: map[string]string{"a": "1"}}
	next := sel.WithLocal("b", "2")
	assert.Equal(t, "2", next.LocalValue("b"))
	assert.Equal(t, engine.All, sel.LocalValue("b"))
	assert.Equal(t, "1", next.LocalValue("a"))
}

func TestLabel_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 2000; j++ {
				if got := Label(ColNetProfit); got != "Net Profit" {
					t.Errorf("Label(%q) = %q", ColNetProfit, got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Total Sales", Label(ColTotalSales))
	assert.Equal(t, "Profit Margin (%)", Label(ColProfitMargin))

	assert.Equal(t, "Net Profit", Label(ColNetProfit))

	spec, _ := Sales().Lookup(ChartRevenueVsUnits)
	assert.Equal(t, "Revenue", spec.Label(ColTotalSales))
	assert.Equal(t, "Units Sold", spec.Label(ColUnitSold))
}
