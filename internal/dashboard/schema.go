package dashboard

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"salesdash/internal/engine"
)

// Columns of the sales dataset after header normalisation.
const (
	ColYear            = "year"
	ColProduct         = "product"
	ColDay             = "day"
	ColMonth           = "month"
	ColPromotion       = "promotion"
	ColTotalSales      = "total_sales"
	ColNetProfit       = "net_profit"
	ColDiscountedSales = "discounted_sales"
	ColUnitSold        = "unit_sold"
	ColProfitMargin    = "profit_margin"
	ColTemperature     = "temperature"
	ColDiscount        = "discount"
)

// LoadOptions maps the raw sales CSV onto engine columns.
func LoadOptions() engine.LoadOptions {
	return engine.LoadOptions{
		Aliases: map[string]string{
			"product_name": ColProduct,
		},
		Kinds: map[string]engine.Kind{
			ColYear:            engine.Integer,
			ColProduct:         engine.Categorical,
			ColDay:             engine.Categorical,
			ColMonth:           engine.Categorical,
			ColPromotion:       engine.Categorical,
			ColTotalSales:      engine.Numeric,
			ColNetProfit:       engine.Numeric,
			ColDiscountedSales: engine.Numeric,
			ColUnitSold:        engine.Numeric,
			ColProfitMargin:    engine.Numeric,
			ColTemperature:     engine.Numeric,
			ColDiscount:        engine.Numeric,
		},
		Required: []string{ColYear, ColProduct, ColTotalSales},
	}
}

var labels = map[string]string{
	ColProduct:      "Product",
	ColProfitMargin: "Profit Margin (%)",
	ColUnitSold:     "Units Sold",
	ColDay:          "Day of the Week",
	ColPromotion:    "Promotion Applied",
}

// Label is the human readable name of a column.
func Label(column string) string {
	if l, ok := labels[column]; ok {
		return l
	}
	// Casers are stateful and must not be shared between goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(column, "_", " "))
}
