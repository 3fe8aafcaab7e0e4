package dashboard

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"salesdash/internal/engine"
)

// KPI is one headline figure of the dashboard.
type KPI struct {
	Name    string
	Label   string
	Value   decimal.Decimal
	Display string
}

// Units are a count: shown as is, without fixed decimals or grouping.
var kpiColumns = []struct {
	column, label string
	count         bool
}{
	{ColTotalSales, "Total Sales", false},
	{ColNetProfit, "Total Profit", false},
	{ColDiscountedSales, "Total Discounted Sales", false},
	{ColUnitSold, "Total Units Sold", true},
}

var printer = message.NewPrinter(language.English)

// KPIs totals the headline columns over the globally filtered table,
// rounded to two decimals. An empty selection totals to zero.
func (d *Dashboard) KPIs(base *engine.Table, sel Selection) ([]KPI, error) {
	t, err := engine.ApplyFilters(base, sel.Global()...)
	if err != nil {
		return nil, err
	}
	out := make([]KPI, 0, len(kpiColumns))
	for _, k := range kpiColumns {
		total, err := engine.Total(t, k.column)
		if err != nil {
			return nil, err
		}
		v := decimal.NewFromFloat(total).Round(2)
		display := printer.Sprintf("%.2f", v.InexactFloat64())
		if k.count {
			display = v.String()
		}
		out = append(out, KPI{Name: k.column, Label: k.label, Value: v, Display: display})
	}
	return out, nil
}
