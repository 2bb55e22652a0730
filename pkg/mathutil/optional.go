package mathutil

import (
	"github.com/shopspring/decimal"
)

// undefinedText is the text rendering of an OptionalDecimal without a value.
const undefinedText = "n/a"

// OptionalDecimal is a ratio that may be undefined, typically because its
// denominator was zero. The zero value is undefined.
type OptionalDecimal struct {
	Value decimal.Decimal
	Valid bool
}

// Defined wraps a value.
func Defined(val decimal.Decimal) OptionalDecimal {
	return OptionalDecimal{Value: val, Valid: true}
}

// Undefined returns an OptionalDecimal without a value.
func Undefined() OptionalDecimal {
	return OptionalDecimal{}
}

// Get returns the value and whether it is defined.
func (o OptionalDecimal) Get() (decimal.Decimal, bool) {
	return o.Value, o.Valid
}

// Equal reports whether both sides are undefined or both hold equal values.
func (o OptionalDecimal) Equal(other OptionalDecimal) bool {
	if o.Valid != other.Valid {
		return false
	}
	return !o.Valid || o.Value.Equal(other.Value)
}

// StringFixed renders the value with the given number of places, or "n/a".
func (o OptionalDecimal) StringFixed(places int32) string {
	if !o.Valid {
		return undefinedText
	}
	return o.Value.StringFixed(places)
}

func (o OptionalDecimal) String() string {
	if !o.Valid {
		return undefinedText
	}
	return o.Value.String()
}

// MarshalYAML renders an undefined value as null.
func (o OptionalDecimal) MarshalYAML() (interface{}, error) {
	if !o.Valid {
		return nil, nil
	}
	return o.Value.String(), nil
}
