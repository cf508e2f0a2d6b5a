// Package amount collects the decimal arithmetic and display helpers used for
// wallet money.
package amount

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits persisted for money columns.
const Scale = 8

var hundred = decimal.NewFromInt(100)

// Normalize rounds a money value to the persisted scale.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Percent returns part/whole*100 rounded to places, or zero when whole is zero.
func Percent(part, whole decimal.Decimal, places int32) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(places)
}

// Sum adds the given values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Format renders an amount with the currency's symbol and grouping, for
// example "KSh 2,000.00". Unknown codes fall back to "2000.00 XYZ".
func Format(d decimal.Decimal, code string) string {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		return d.StringFixed(2) + " " + strings.ToUpper(code)
	}
	f := money.NewFormatter(cur.Fraction, cur.Decimal, cur.Thousand, cur.Grapheme, "$ 1")
	return f.Format(ToMinor(d, cur.Fraction))
}

// ToMinor converts to the currency's minor unit (cents), rounding half away from zero.
func ToMinor(d decimal.Decimal, fraction int) int64 {
	return d.Shift(int32(fraction)).Round(0).IntPart()
}
