package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders a monetary sum with thousand separators and two
// fractional digits.
func FormatCurrency(v decimal.Decimal) string {
	s := v.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

// FormatPercent renders a fraction as a signed percentage.
func FormatPercent(v decimal.Decimal) string {
	sign := ""
	if v.IsPositive() {
		sign = "+"
	}
	return fmt.Sprintf("%s%s%%", sign, v.Mul(decimal.NewFromInt(100)).StringFixed(2))
}
