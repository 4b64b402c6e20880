// Package render formats numbers and tables for messages and console
// output.
package render

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatInt renders a whole amount with thousands separators, e.g.
// 6200 becomes "6,200".
func FormatInt(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatDecimal renders a decimal amount with thousands separators and
// one decimal place, e.g. 1530.5 becomes "1,530.5".
func FormatDecimal(d decimal.Decimal) string {
	f, _ := d.Round(1).Float64()
	return printer.Sprintf("%.1f", f)
}
