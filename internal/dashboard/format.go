// Package dashboard formats account figures for the tables shown by the
// CLI: money, quantities, percentages and timestamps.
package dashboard

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// groupThousands inserts comma separators into the integer part of a
// plain decimal string such as "-1234567.89".
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	start := len(intPart) % 3
	if start > 0 {
		b.WriteString(intPart[:start])
	}
	for i := start; i < len(intPart); i += 3 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int64) string {
	return groupThousands(decimal.NewFromInt(n).String())
}

// FormatMoney formats an amount as "$1,234.56" or "-$1,234.56".
func FormatMoney(d decimal.Decimal) string {
	s := groupThousands(d.Abs().StringFixed(2))
	if d.Round(2).IsNegative() {
		return "-$" + s
	}
	return "$" + s
}

// FormatQty formats a share quantity with two decimals and separators.
func FormatQty(d decimal.Decimal) string {
	return groupThousands(d.StringFixed(2))
}

// FormatPct formats a fraction (0.0525) as a signed percentage ("+5.25%").
// Zero has no sign.
func FormatPct(frac decimal.Decimal) string {
	pct := frac.Shift(2).Round(2)
	switch {
	case pct.IsPositive():
		return "+" + pct.StringFixed(2) + "%"
	case pct.IsNegative():
		return pct.StringFixed(2) + "%"
	default:
		return "0.00%"
	}
}

// FormatFillTime formats an execution time as "02/01 15:04", or "-" if
// unknown.
func FormatFillTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02/01 15:04")
}

// FormatOrderTime formats an order creation time as "15:04 02/01".
func FormatOrderTime(t time.Time) string {
	return t.Format("15:04 02/01")
}
