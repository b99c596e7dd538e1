// Package currency formats money amounts for display.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// symbols holds display prefixes for the currencies the product ships with.
// Codes missing here but known to ISO 4217 use "<CODE> " as prefix.
var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"IDR": "Rp",
	"INR": "₹",
	"NGN": "₦",
	"KES": "KSh ",
	"ZAR": "R",
	"SGD": "S$",
	"AUD": "A$",
	"CAD": "C$",
}

const defaultScale = 2

// Scale returns the number of minor-unit digits for an ISO 4217 code.
// Unknown codes report 2.
func Scale(code string) int32 {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return defaultScale
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// Round rounds amount half away from zero to the currency's minor units.
func Round(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(Scale(code))
}

// Format renders amount as "<symbol><grouped integer>.<fraction>".
// Negative amounts place the sign before the symbol.
func Format(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	prefix, ok := symbols[code]
	if !ok {
		prefix = code + " "
	}
	return format(amount, code, prefix)
}

// FormatCode is Format with the ISO code as prefix, e.g. "INR 1,234.00",
// for outputs that cannot draw every symbol.
func FormatCode(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return format(amount, code, code+" ")
}

func format(amount decimal.Decimal, code, prefix string) string {
	scale := Scale(code)
	rounded := amount.Round(scale)
	negative := rounded.IsNegative()
	digits := rounded.Abs().StringFixed(scale)

	intPart, fracPart, _ := strings.Cut(digits, ".")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteString(prefix)
	b.WriteString(group(intPart))
	if scale > 0 {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

func group(intPart string) string {
	if len(intPart) <= 3 {
		return intPart
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String()
}
