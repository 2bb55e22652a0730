// Package testutil provides common utility functions for testing.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

// WriteTempPlan writes contents to a plan.yaml in a temporary directory and
// returns its path.
func WriteTempPlan(t testing.TB, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("failed to write temp plan: %v", err)
	}
	return path
}

// AssertDecimal fails t unless got equals expected exactly.
func AssertDecimal(t testing.TB, expected string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(expected)) {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

// AssertWithin fails t unless got is within tolerance of expected.
func AssertWithin(t testing.TB, expected, tolerance string, got decimal.Decimal) {
	t.Helper()
	diff := got.Sub(decimal.RequireFromString(expected)).Abs()
	if diff.GreaterThan(decimal.RequireFromString(tolerance)) {
		t.Errorf("expected %s ± %s, got %s", expected, tolerance, got)
	}
}
