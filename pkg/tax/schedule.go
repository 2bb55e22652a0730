// Package tax computes social contributions and progressive income tax over
// validated bracket schedules.
package tax

import (
	"errors"
	"fmt"

	"github.com/iwvelando/finance-planner/pkg/calcerr"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

var maxRate = decimal.NewFromInt(constants.PercentageMultiplier)

// Bracket is one slice of a progressive table. A nil UpperBound means the
// slice is unbounded. Rate is a percentage.
type Bracket struct {
	LowerBound decimal.Decimal
	UpperBound *decimal.Decimal
	Rate       decimal.Decimal
}

// Bounded reports whether the bracket has an upper bound.
func (b Bracket) Bounded() bool {
	return b.UpperBound != nil
}

func (b Bracket) String() string {
	upper := "inf"
	if b.UpperBound != nil {
		upper = b.UpperBound.String()
	}
	return fmt.Sprintf("[%s, %s) @ %s%%", b.LowerBound, upper, b.Rate)
}

// Schedule is an immutable, validated bracket table covering [0, inf).
type Schedule struct {
	brackets []Bracket
}

// NewSchedule validates brackets and returns a Schedule holding a private
// copy of them. Every problem found is reported in one ConfigurationError.
func NewSchedule(brackets []Bracket) (Schedule, error) {
	if err := validateBrackets(brackets); err != nil {
		return Schedule{}, calcerr.NewConfiguration("tax.NewSchedule", err)
	}

	owned := make([]Bracket, len(brackets))
	for i, b := range brackets {
		owned[i] = Bracket{LowerBound: b.LowerBound, Rate: b.Rate}
		if b.UpperBound != nil {
			upper := *b.UpperBound
			owned[i].UpperBound = &upper
		}
	}
	return Schedule{brackets: owned}, nil
}

// MustSchedule is like NewSchedule but panics on an invalid table. It is
// intended for package-level defaults and tests.
func MustSchedule(brackets []Bracket) Schedule {
	schedule, err := NewSchedule(brackets)
	if err != nil {
		panic(err)
	}
	return schedule
}

// Valid reports whether the schedule was built by NewSchedule.
func (s Schedule) Valid() bool {
	return len(s.brackets) > 0
}

// Brackets returns a copy of the brackets.
func (s Schedule) Brackets() []Bracket {
	out := make([]Bracket, len(s.brackets))
	copy(out, s.brackets)
	return out
}

// Progressive applies each bracket's rate to the part of income falling
// inside it. Brackets entirely above income contribute nothing.
func (s Schedule) Progressive(income decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	if !income.IsPositive() {
		return total
	}
	for _, b := range s.brackets {
		if income.LessThanOrEqual(b.LowerBound) {
			break
		}
		top := income
		if b.UpperBound != nil && b.UpperBound.LessThan(income) {
			top = *b.UpperBound
		}
		total = total.Add(mathutil.ApplyPercentage(top.Sub(b.LowerBound), b.Rate))
	}
	return total
}

func (s Schedule) lowerBounds() []decimal.Decimal {
	bounds := make([]decimal.Decimal, len(s.brackets))
	for i, b := range s.brackets {
		bounds[i] = b.LowerBound
	}
	return bounds
}

// MarginalRate returns the rate of the bracket containing income.
func (s Schedule) MarginalRate(income decimal.Decimal) decimal.Decimal {
	rate := decimal.Zero
	for _, b := range s.brackets {
		if income.LessThan(b.LowerBound) {
			break
		}
		rate = b.Rate
	}
	return rate
}

func validateBrackets(brackets []Bracket) error {
	if len(brackets) == 0 {
		return errors.New("bracket table cannot be empty")
	}

	var errs error
	if !brackets[0].LowerBound.IsZero() {
		errs = multierr.Append(errs, fmt.Errorf("bracket 0 must start at 0, got %s", brackets[0].LowerBound))
	}

	last := len(brackets) - 1
	for i, b := range brackets {
		if b.Rate.IsNegative() || b.Rate.GreaterThan(maxRate) {
			errs = multierr.Append(errs, fmt.Errorf("bracket %d rate %s must be within [0, 100]", i, b.Rate))
		}
		if b.UpperBound == nil {
			if i != last {
				errs = multierr.Append(errs, fmt.Errorf("bracket %d is unbounded but is not the last bracket", i))
			}
			continue
		}
		if b.UpperBound.LessThanOrEqual(b.LowerBound) {
			errs = multierr.Append(errs, fmt.Errorf("bracket %d upper bound %s must exceed lower bound %s", i, b.UpperBound, b.LowerBound))
		}
		if i == last {
			errs = multierr.Append(errs, fmt.Errorf("last bracket must be unbounded, got upper bound %s", b.UpperBound))
			continue
		}

		next := brackets[i+1]
		switch {
		case next.LowerBound.LessThan(b.LowerBound):
			errs = multierr.Append(errs, fmt.Errorf("brackets %d and %d are not sorted ascending", i, i+1))
		case next.LowerBound.LessThan(*b.UpperBound):
			errs = multierr.Append(errs, fmt.Errorf("brackets %d and %d overlap on [%s, %s)", i, i+1, next.LowerBound, b.UpperBound))
		case next.LowerBound.GreaterThan(*b.UpperBound):
			errs = multierr.Append(errs, fmt.Errorf("gap between brackets %d and %d on [%s, %s)", i, i+1, b.UpperBound, next.LowerBound))
		}
	}
	return errs
}
