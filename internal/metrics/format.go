package metrics

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/tcabrera23/Apertura-Market-sub000/pkg/utils"
)

// NotAvailable is the placeholder for absent values.
const NotAvailable = "N/A"

var hundred = decimal.NewFromInt(100)

func formatRatio(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatPercent(v float64) string {
	return decimal.NewFromFloat(v).Mul(hundred).StringFixed(2) + "%"
}

func formatLargeCurrency(v float64) string {
	return utils.FormatCompactUSD(v)
}

func formatCount(v float64) string {
	return utils.FormatCount(v)
}

// formatCurrency renders a full USD amount with thousands separators,
// rounding to the currency's minor unit first.
func formatCurrency(v float64) string {
	cur := money.GetCurrency(money.USD)
	if cur == nil {
		return "$" + formatRatio(v)
	}

	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := decimal.NewFromFloat(v).Mul(factor).Round(0)
	return money.New(minor.IntPart(), money.USD).Display()
}
