package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders an amount the way users read it: "R$ 1.234,57".
func FormatBRL(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	parts := strings.SplitN(fixed, ".", 2)
	integer, cents := parts[0], parts[1]

	var grouped strings.Builder
	for i, r := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	return sign + "R$ " + grouped.String() + "," + cents
}
