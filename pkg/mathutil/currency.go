// Package mathutil provides common decimal helpers for currency and rates.
package mathutil

import (
	"fmt"
	"math"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(constants.PercentageMultiplier)
)

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.DecimalPlaces)
}

// WithinTolerance checks if two values are within an absolute tolerance
func WithinTolerance(val1, val2, tolerance decimal.Decimal) bool {
	return val1.Sub(val2).Abs().LessThanOrEqual(tolerance)
}

// WithinRelative checks if two values differ by at most rel times the larger
// magnitude of the two.
func WithinRelative(val1, val2 decimal.Decimal, rel float64) bool {
	if val1.Equal(val2) {
		return true
	}
	scale := decimal.Max(val1.Abs(), val2.Abs())
	return val1.Sub(val2).Abs().LessThanOrEqual(scale.Mul(decimal.NewFromFloat(rel)))
}

// Percentage returns value / total * 100. The result is undefined when total
// is zero.
func Percentage(value, total decimal.Decimal) OptionalDecimal {
	if total.IsZero() {
		return Undefined()
	}
	return Defined(value.Div(total).Mul(hundred))
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage decimal.Decimal) decimal.Decimal {
	return value.Mul(percentage).Div(hundred)
}

// Vary returns value shifted by a whole percent, i.e. value * (1 + pct/100).
func Vary(value decimal.Decimal, pct int) decimal.Decimal {
	return value.Mul(hundred.Add(decimal.NewFromInt(int64(pct)))).Div(hundred)
}

// FromFloat converts a configuration float into a decimal, rejecting NaN and
// infinities.
func FromFloat(val float64) (decimal.Decimal, error) {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero, fmt.Errorf("value %v is not a finite number", val)
	}
	return decimal.NewFromFloat(val), nil
}
