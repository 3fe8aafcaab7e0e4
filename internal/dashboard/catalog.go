package dashboard

import (
	"errors"

	"salesdash/internal/engine"
	"salesdash/internal/models"
)

// ErrUnknownChart is returned for a chart id that is not in the catalog.
var ErrUnknownChart = errors.New("unknown chart")

// ChartKind tells the renderer which chart to draw.
type ChartKind string

const (
	KindBar        ChartKind = "bar"
	KindGroupedBar ChartKind = "grouped_bar"
	KindLine       ChartKind = "line"
	KindPie        ChartKind = "pie"
	KindScatter    ChartKind = "scatter"
	KindHeatmap    ChartKind = "heatmap"
)

// Scope is the table a chart starts from.
type Scope int

const (
	// Filtered charts read the table after the global year and product filters.
	Filtered Scope = iota
	// Base charts read the unfiltered table.
	Base
)

func (s Scope) String() string {
	if s == Base {
		return "base"
	}
	return "filtered"
}

// Roles is the renderer contract of a chart.
type Roles = models.Roles

// ChartSpec is the whole pipeline of one chart as data.
//
// Build runs the steps in this order: scope, local filter, round,
// query, post filter, order. A chart has at most one selector, applied
// either before the query (LocalFilter) or after it (PostFilter).
type ChartSpec struct {
	ID    string
	Title string
	Kind  ChartKind
	Scope Scope

	LocalFilter string
	Round       []string

	Aggregate *engine.AggregationSpec
	MaskedSum *engine.MaskedSumSpec
	Project   []string

	PostFilter string
	OrderBy    string
	Order      func() *engine.Ordering

	Roles  Roles
	Labels map[string]string
}

// Selector is the column the chart's own selector filters, if any.
func (s ChartSpec) Selector() string {
	if s.LocalFilter != "" {
		return s.LocalFilter
	}
	return s.PostFilter
}

// Label is the axis or legend label of a derived column.
func (s ChartSpec) Label(column string) string {
	if l, ok := s.Labels[column]; ok {
		return l
	}
	return Label(column)
}

func (s ChartSpec) ordering() *engine.Ordering {
	if s.Order == nil {
		return nil
	}
	return s.Order()
}

// Catalog is an ordered, immutable set of charts.
type Catalog struct {
	charts []ChartSpec
	byID   map[string]int
}

// NewCatalog indexes charts by id. Later duplicates are ignored.
func NewCatalog(charts ...ChartSpec) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(charts))}
	for _, s := range charts {
		if _, dup := c.byID[s.ID]; dup {
			continue
		}
		c.byID[s.ID] = len(c.charts)
		c.charts = append(c.charts, s)
	}
	return c
}

// Charts returns the charts in display order.
func (c *Catalog) Charts() []ChartSpec {
	return append([]ChartSpec(nil), c.charts...)
}

// Lookup finds a chart by id.
func (c *Catalog) Lookup(id string) (ChartSpec, bool) {
	i, ok := c.byID[id]
	if !ok {
		return ChartSpec{}, false
	}
	return c.charts[i], true
}

func sum(groupBy []string, metrics ...string) *engine.AggregationSpec {
	return &engine.AggregationSpec{GroupBy: groupBy, Metrics: metrics, Reducer: engine.Sum}
}

func mean(groupBy []string, metrics ...string) *engine.AggregationSpec {
	return &engine.AggregationSpec{GroupBy: groupBy, Metrics: metrics, Reducer: engine.Mean}
}

func pivotSum(index, across, metric string) *engine.AggregationSpec {
	return &engine.AggregationSpec{
		GroupBy: []string{index, across},
		Metrics: []string{metric},
		Reducer: engine.Sum,
		Pivot:   true,
	}
}

func by(cols ...string) []string { return cols }

// Chart ids of the sales dashboard, in display order.
const (
	ChartProfitMarginByProduct = "profit-margin-by-product"
	ChartSalesVsTemperature    = "sales-vs-temperature"
	ChartNetProfitByProduct    = "net-profit-by-product"
	ChartDiscountedVsFull      = "discounted-vs-non-discounted"
	ChartSalesByTemperature    = "avg-sales-by-temperature"
	ChartSalesByDay            = "sales-by-day"
	ChartProfitMarginByDay     = "profit-margin-by-day"
	ChartRevenueVsUnits        = "revenue-vs-units"
	ChartSalesByProduct        = "sales-by-product"
	ChartProfitByProduct       = "avg-profit-by-product"
	ChartUnitsByProduct        = "units-by-product"
	ChartSalesByMonth          = "sales-by-month"
	ChartSeasonality           = "seasonality-by-product"
	ChartPromotion             = "promotion-sales"
	ChartMonthlyComparison     = "monthly-comparison"
	ChartYearlyComparison      = "yearly-comparison"
)

// Sales returns the catalog of the sales and profitability dashboard.
func Sales() *Catalog {
	return NewCatalog(
		// --- 1. FIRST ROW ---
		ChartSpec{
			ID: ChartProfitMarginByProduct, Title: "Profit Margin by Product", Kind: KindBar,
			LocalFilter: ColProduct,
			Aggregate:   mean(by(ColProduct), ColProfitMargin),
			OrderBy:     ColProduct,
			Roles:       Roles{X: ColProduct, Y: []string{ColProfitMargin}},
		},
		ChartSpec{
			ID: ChartSalesVsTemperature, Title: "Sales vs Temperature", Kind: KindLine,
			LocalFilter: ColYear,
			Round:       []string{ColTemperature},
			Aggregate:   mean(by(ColTemperature), ColTotalSales),
			OrderBy:     ColTemperature,
			Roles:       Roles{X: ColTemperature, Y: []string{ColTotalSales}},
		},
		ChartSpec{
			ID: ChartNetProfitByProduct, Title: "Net Profit by Product", Kind: KindBar,
			LocalFilter: ColProduct,
			Aggregate:   sum(by(ColProduct), ColNetProfit),
			OrderBy:     ColProduct,
			Roles:       Roles{X: ColProduct, Y: []string{ColNetProfit}},
		},
		ChartSpec{
			ID: ChartDiscountedVsFull, Title: "Yearly Sales: Discounted vs Non-Discounted", Kind: KindLine,
			LocalFilter: ColProduct,
			MaskedSum: &engine.MaskedSumSpec{
				GroupBy: by(ColYear),
				Metric:  ColTotalSales,
				Masks: []engine.Mask{
					{Name: "discounted_sales", Column: ColDiscount, Op: engine.OpGT, Value: 0},
					{Name: "non_discounted_sales", Column: ColDiscount, Op: engine.OpEQ, Value: 0},
				},
			},
			OrderBy: ColYear,
			Roles:   Roles{X: ColYear, Y: []string{"discounted_sales", "non_discounted_sales"}},
			Labels:  map[string]string{"discounted_sales": "Discounted Sales", "non_discounted_sales": "Non-Discounted Sales"},
		},

		// --- 2. SECOND ROW ---
		ChartSpec{
			ID: ChartSalesByTemperature, Title: "Average Sales by Temperature", Kind: KindBar,
			Round:      []string{ColTemperature},
			Aggregate:  mean(by(ColTemperature), ColTotalSales),
			PostFilter: ColTemperature,
			OrderBy:    ColTotalSales,
			Order:      engine.Descending,
			Roles:      Roles{X: ColTemperature, Y: []string{ColTotalSales}},
			Labels:     map[string]string{ColTotalSales: "Average Sales"},
		},
		ChartSpec{
			ID: ChartSalesByDay, Title: "Sales by Day of the Week", Kind: KindLine,
			LocalFilter: ColDay,
			Aggregate:   sum(by(ColDay), ColTotalSales),
			OrderBy:     ColDay,
			Order:       engine.Weekdays,
			Roles:       Roles{X: ColDay, Y: []string{ColTotalSales}},
		},
		ChartSpec{
			ID: ChartProfitMarginByDay, Title: "Profit Margin by Day", Kind: KindLine,
			LocalFilter: ColDay,
			Aggregate:   mean(by(ColDay), ColProfitMargin),
			OrderBy:     ColDay,
			Order:       engine.Weekdays,
			Roles:       Roles{X: ColDay, Y: []string{ColProfitMargin}},
		},
		ChartSpec{
			ID: ChartRevenueVsUnits, Title: "Revenue vs Units Sold", Kind: KindScatter,
			LocalFilter: ColProduct,
			Project:     []string{ColUnitSold, ColTotalSales},
			Roles:       Roles{X: ColUnitSold, Y: []string{ColTotalSales}},
			Labels:      map[string]string{ColTotalSales: "Revenue"},
		},

		// --- 3. THIRD ROW (unfiltered) ---
		ChartSpec{
			ID: ChartSalesByProduct, Title: "Sales by Product", Kind: KindBar, Scope: Base,
			Aggregate: sum(by(ColProduct), ColTotalSales),
			OrderBy:   ColProduct,
			Roles:     Roles{X: ColProduct, Y: []string{ColTotalSales}},
		},
		ChartSpec{
			ID: ChartProfitByProduct, Title: "Average Profit and Profit Margin by Product", Kind: KindGroupedBar, Scope: Base,
			Aggregate: mean(by(ColProduct), ColNetProfit, ColProfitMargin),
			OrderBy:   ColProduct,
			Roles:     Roles{X: ColProduct, Y: []string{ColNetProfit, ColProfitMargin}},
		},
		ChartSpec{
			ID: ChartUnitsByProduct, Title: "Units Sold by Product", Kind: KindPie, Scope: Base,
			Aggregate: sum(by(ColProduct), ColUnitSold),
			OrderBy:   ColProduct,
			Roles:     Roles{Names: ColProduct, Values: ColUnitSold},
		},
		ChartSpec{
			ID: ChartSalesByMonth, Title: "Sales by Month", Kind: KindBar, Scope: Base,
			Aggregate: sum(by(ColMonth), ColTotalSales),
			OrderBy:   ColMonth,
			Order:     engine.Months,
			Roles:     Roles{X: ColMonth, Y: []string{ColTotalSales}},
		},

		// --- 4. FOURTH ROW ---
		ChartSpec{
			ID: ChartSeasonality, Title: "Seasonality by Product", Kind: KindHeatmap,
			LocalFilter: ColProduct,
			Aggregate:   pivotSum(ColMonth, ColProduct, ColTotalSales),
			OrderBy:     ColMonth,
			Order:       engine.Months,
			Roles:       Roles{X: ColMonth, Wide: true},
		},
		ChartSpec{
			ID: ChartPromotion, Title: "Average Sales with and without Promotions", Kind: KindPie,
			LocalFilter: ColPromotion,
			Aggregate:   mean(by(ColPromotion), ColTotalSales),
			OrderBy:     ColPromotion,
			Roles:       Roles{Names: ColPromotion, Values: ColTotalSales},
			Labels:      map[string]string{ColTotalSales: "Average Total Sales"},
		},
		ChartSpec{
			ID: ChartMonthlyComparison, Title: "Monthly Sales Comparison by Product", Kind: KindGroupedBar,
			LocalFilter: ColProduct,
			Aggregate:   pivotSum(ColMonth, ColProduct, ColTotalSales),
			OrderBy:     ColMonth,
			Order:       engine.Months,
			Roles:       Roles{X: ColMonth, Wide: true},
		},
		ChartSpec{
			ID: ChartYearlyComparison, Title: "Yearly Sales Comparison by Product", Kind: KindGroupedBar,
			LocalFilter: ColProduct,
			Aggregate:   pivotSum(ColYear, ColProduct, ColTotalSales),
			OrderBy:     ColYear,
			Roles:       Roles{X: ColYear, Wide: true},
		},
	)
}
