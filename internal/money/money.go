// Package money provides cent rounding and display formatting for USD amounts.
package money

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Round rounds an amount to whole cents. All engine boundaries (item totals,
// discount amounts, finalized totals) pass through here so derived values
// compare exactly in tests and exports.
func Round(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// FormatUSD renders an amount as "$1,234.50". Negative amounts render as
// "-$1,234.50".
func FormatUSD(amount float64) string {
	if amount < 0 {
		return "-" + FormatUSD(-amount)
	}
	return printer.Sprintf("$%.2f", amount)
}
