package market

import (
	"fmt"
	"strings"
)

// FormatUSDAmount renders a large USD magnitude for display:
// trillions as $X.XXT, billions as $X.XXB, millions as $X.XXM, and anything
// smaller as a comma-grouped decimal string with two places.
func FormatUSDAmount(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return "$" + groupThousands(fmt.Sprintf("%.2f", v))
	}
}

// groupThousands inserts commas into the integer part of a fixed-point
// decimal string ("1234567.89" -> "1,234,567.89").
func groupThousands(s string) string {
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	if len(intPart) <= 3 {
		return intPart + fracPart
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
	return b.String() + fracPart
}
