package format

import (
	"testing"

	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		expected string
	}{
		{name: "Zero", amount: "0", expected: "0.00 €"},
		{name: "Small", amount: "6.5", expected: "6.50 €"},
		{name: "Thousands", amount: "57000", expected: "57,000.00 €"},
		{name: "Millions", amount: "1234567.891", expected: "1,234,567.89 €"},
		{name: "Negative", amount: "-5435", expected: "-5,435.00 €"},
		{name: "Negative rounding to zero", amount: "-0.001", expected: "0.00 €"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Currency(decimal.RequireFromString(tt.amount))
			if got != tt.expected {
				t.Errorf("Currency(%s) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestNumericCurrency(t *testing.T) {
	if got := NumericCurrency(decimal.RequireFromString("-1234.567")); got != "-1,234.57" {
		t.Errorf("NumericCurrency() = %q, expected %q", got, "-1,234.57")
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(mathutil.Defined(decimal.NewFromInt(40))); got != "40.00 %" {
		t.Errorf("Percent() = %q, expected %q", got, "40.00 %")
	}
	if got := Percent(mathutil.Undefined()); got != "n/a" {
		t.Errorf("Percent(undefined) = %q, expected %q", got, "n/a")
	}
}

func TestSigned(t *testing.T) {
	tests := map[int]string{-20: "-20 %", 0: "0 %", 10: "+10 %"}
	for variation, expected := range tests {
		if got := Signed(variation); got != expected {
			t.Errorf("Signed(%d) = %q, expected %q", variation, got, expected)
		}
	}
}
