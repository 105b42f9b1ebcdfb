package schedule

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatMoney renders an amount as US dollars, e.g. $12,345.67. This is
// the only place amounts are rounded to cents.
func FormatMoney(d decimal.Decimal) string {
	cents := d.Round(2)
	sign := ""
	if cents.IsNegative() {
		sign = "-"
		cents = cents.Neg()
	}
	return sign + "$" + usd.Sprintf("%.2f", cents.InexactFloat64())
}
