package tax

import (
	"errors"
	"fmt"

	"github.com/iwvelando/finance-planner/pkg/calcerr"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// ContributionStrategy computes the social contributions owed on a gross
// professional income.
type ContributionStrategy interface {
	Contributions(grossIncome decimal.Decimal) decimal.Decimal
	// MarginalRate is the contribution percentage on the next unit of income.
	MarginalRate(grossIncome decimal.Decimal) decimal.Decimal
	// Breakpoints lists the incomes at which MarginalRate may change.
	Breakpoints() []decimal.Decimal
	Describe() string
}

// FlatRate charges a single percentage on the whole income.
type FlatRate struct {
	rate decimal.Decimal
}

// NewFlatRate validates rate, a percentage within [0, 100].
func NewFlatRate(rate decimal.Decimal) (FlatRate, error) {
	if rate.IsNegative() || rate.GreaterThan(maxRate) {
		return FlatRate{}, calcerr.NewConfiguration("tax.NewFlatRate",
			fmt.Errorf("contribution rate %s must be within [0, 100]", rate))
	}
	return FlatRate{rate: rate}, nil
}

// Rate returns the configured percentage.
func (f FlatRate) Rate() decimal.Decimal {
	return f.rate
}

// Contributions implements ContributionStrategy.
func (f FlatRate) Contributions(grossIncome decimal.Decimal) decimal.Decimal {
	if !grossIncome.IsPositive() {
		return decimal.Zero
	}
	return mathutil.ApplyPercentage(grossIncome, f.rate)
}

// MarginalRate implements ContributionStrategy.
func (f FlatRate) MarginalRate(decimal.Decimal) decimal.Decimal {
	return f.rate
}

// Breakpoints implements ContributionStrategy.
func (f FlatRate) Breakpoints() []decimal.Decimal {
	return []decimal.Decimal{decimal.Zero}
}

// Describe implements ContributionStrategy.
func (f FlatRate) Describe() string {
	return fmt.Sprintf("flat %s%%", f.rate)
}

// Tiered charges contributions progressively over their own bracket table.
type Tiered struct {
	schedule Schedule
}

// NewTiered wraps a validated schedule.
func NewTiered(schedule Schedule) (Tiered, error) {
	if !schedule.Valid() {
		return Tiered{}, calcerr.NewConfiguration("tax.NewTiered", errors.New("contribution schedule is empty"))
	}
	return Tiered{schedule: schedule}, nil
}

// Contributions implements ContributionStrategy.
func (t Tiered) Contributions(grossIncome decimal.Decimal) decimal.Decimal {
	return t.schedule.Progressive(grossIncome)
}

// MarginalRate implements ContributionStrategy.
func (t Tiered) MarginalRate(grossIncome decimal.Decimal) decimal.Decimal {
	return t.schedule.MarginalRate(grossIncome)
}

// Breakpoints implements ContributionStrategy.
func (t Tiered) Breakpoints() []decimal.Decimal {
	return t.schedule.lowerBounds()
}

// Describe implements ContributionStrategy.
func (t Tiered) Describe() string {
	return fmt.Sprintf("tiered over %d brackets", len(t.schedule.brackets))
}

// Result holds the levies computed for one fiscal year.
type Result struct {
	GrossIncome   decimal.Decimal
	Contributions decimal.Decimal
	Tax           decimal.Decimal
	// Net is GrossIncome minus contributions and tax.
	Net decimal.Decimal
	// EffectiveRate is the total levy as a percentage of a positive income.
	EffectiveRate mathutil.OptionalDecimal
}

// Calculator combines an income tax schedule with a contribution strategy.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	schedule      Schedule
	contributions ContributionStrategy
}

// NewCalculator builds a Calculator from already validated parts. The
// combined marginal levy may not exceed 100% at any income, so net income
// never decreases as gross income grows.
func NewCalculator(schedule Schedule, contributions ContributionStrategy) (*Calculator, error) {
	const op = "tax.NewCalculator"
	if !schedule.Valid() {
		return nil, calcerr.NewConfiguration(op, errors.New("income tax schedule is empty"))
	}
	if contributions == nil {
		return nil, calcerr.NewConfiguration(op, errors.New("contribution strategy cannot be nil"))
	}

	calc := &Calculator{schedule: schedule, contributions: contributions}
	// Both rates are step functions, so checking every step start covers all incomes.
	for _, income := range append(schedule.lowerBounds(), contributions.Breakpoints()...) {
		if rate := calc.MarginalRate(income); rate.GreaterThan(maxRate) {
			return nil, calcerr.NewConfiguration(op,
				fmt.Errorf("combined marginal levy %s%% from income %s exceeds 100%%", rate, income))
		}
	}
	return calc, nil
}

// Schedule returns the income tax schedule.
func (c *Calculator) Schedule() Schedule {
	return c.schedule
}

// ContributionStrategy returns the contribution strategy.
func (c *Calculator) ContributionStrategy() ContributionStrategy {
	return c.contributions
}

// Compute returns contributions and progressive tax for grossIncome. A
// non-positive income owes nothing.
func (c *Calculator) Compute(grossIncome decimal.Decimal) Result {
	result := Result{
		GrossIncome:   grossIncome,
		Contributions: decimal.Zero,
		Tax:           decimal.Zero,
		Net:           grossIncome,
	}
	if !grossIncome.IsPositive() {
		return result
	}

	result.Contributions = c.contributions.Contributions(grossIncome)
	result.Tax = c.schedule.Progressive(grossIncome)
	levies := result.Contributions.Add(result.Tax)
	result.Net = grossIncome.Sub(levies)
	result.EffectiveRate = mathutil.Percentage(levies, grossIncome)
	return result
}

// MarginalRate returns the combined income tax and contribution percentage
// levied on the next unit of grossIncome.
func (c *Calculator) MarginalRate(grossIncome decimal.Decimal) decimal.Decimal {
	return c.schedule.MarginalRate(grossIncome).Add(c.contributions.MarginalRate(grossIncome))
}
