// Package format renders decimal amounts for human-readable reports.
package format

import (
	"strconv"
	"strings"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Currency returns an amount with thousands separators and a euro sign (e.g., "-1,234.56 €").
func Currency(amount decimal.Decimal) string {
	return NumericCurrency(amount) + " €"
}

// NumericCurrency returns an amount without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount decimal.Decimal) string {
	rounded := mathutil.Round(amount)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return sign + groupThousands(rounded.Abs().StringFixed(constants.DecimalPlaces))
}

// Percent renders an optional percentage, "n/a" when undefined.
func Percent(value mathutil.OptionalDecimal) string {
	if !value.Valid {
		return value.String()
	}
	return value.StringFixed(constants.DecimalPlaces) + " %"
}

// Signed prefixes positive variations with a plus sign (e.g., "+10 %").
func Signed(variation int) string {
	s := strconv.Itoa(variation) + " %"
	if variation > 0 {
		return "+" + s
	}
	return s
}

func groupThousands(fixed string) string {
	parts := strings.SplitN(fixed, ".", 2)
	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = "." + parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + decPart
}
