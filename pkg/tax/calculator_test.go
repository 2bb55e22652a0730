package tax

import (
	"errors"
	"testing"

	"github.com/iwvelando/finance-planner/pkg/calcerr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceCalculator(t *testing.T) *Calculator {
	t.Helper()
	flat, err := NewFlatRate(d("20"))
	require.NoError(t, err)
	calc, err := NewCalculator(MustSchedule(referenceBrackets()), flat)
	require.NoError(t, err)
	return calc
}

func TestComputeReferenceScenario(t *testing.T) {
	result := referenceCalculator(t).Compute(d("50000"))

	assert.True(t, result.Contributions.Equal(d("10000")), "contributions = %s", result.Contributions)
	assert.True(t, result.Tax.Equal(d("11500")), "tax = %s", result.Tax)
	assert.True(t, result.Net.Equal(d("28500")), "net = %s", result.Net)
	require.True(t, result.EffectiveRate.Valid)
	assert.True(t, result.EffectiveRate.Value.Equal(d("43")))
}

func TestComputeZeroAndNegativeIncome(t *testing.T) {
	calc := referenceCalculator(t)
	for _, income := range []string{"0", "-12000"} {
		result := calc.Compute(d(income))
		assert.True(t, result.Tax.IsZero(), "tax on %s", income)
		assert.True(t, result.Contributions.IsZero(), "contributions on %s", income)
		assert.True(t, result.Net.Equal(d(income)))
		assert.False(t, result.EffectiveRate.Valid)
	}
}

func TestComputeWithTieredContributions(t *testing.T) {
	contributionTable := MustSchedule([]Bracket{
		{LowerBound: d("0"), UpperBound: bound("20000"), Rate: d("10")},
		{LowerBound: d("20000"), Rate: d("30")},
	})
	tiered, err := NewTiered(contributionTable)
	require.NoError(t, err)
	calc, err := NewCalculator(MustSchedule(referenceBrackets()), tiered)
	require.NoError(t, err)

	result := calc.Compute(d("50000"))
	assert.True(t, result.Contributions.Equal(d("11000")), "contributions = %s", result.Contributions)
	assert.True(t, result.Tax.Equal(d("11500")))
	assert.Equal(t, "tiered over 2 brackets", tiered.Describe())
}

func TestContributionStrategiesAreValidated(t *testing.T) {
	_, err := NewFlatRate(d("101"))
	assert.True(t, errors.Is(err, calcerr.ErrConfiguration))
	_, err = NewFlatRate(d("-1"))
	assert.True(t, errors.Is(err, calcerr.ErrConfiguration))
	_, err = NewTiered(Schedule{})
	assert.True(t, errors.Is(err, calcerr.ErrConfiguration))

	flat, err := NewFlatRate(d("22"))
	require.NoError(t, err)
	assert.Equal(t, "flat 22%", flat.Describe())
	assert.True(t, flat.Rate().Equal(d("22")))
}

func TestNewCalculatorRequiresParts(t *testing.T) {
	flat, err := NewFlatRate(d("20"))
	require.NoError(t, err)

	_, err = NewCalculator(Schedule{}, flat)
	assert.True(t, errors.Is(err, calcerr.ErrConfiguration))
	_, err = NewCalculator(MustSchedule(referenceBrackets()), nil)
	assert.True(t, errors.Is(err, calcerr.ErrConfiguration))
}

func TestComputeIsMonotone(t *testing.T) {
	calc := referenceCalculator(t)
	previous := calc.Compute(decimal.Zero)
	for income := int64(500); income <= 150000; income += 500 {
		current := calc.Compute(decimal.NewFromInt(income))
		if current.Tax.LessThan(previous.Tax) || current.Contributions.LessThan(previous.Contributions) {
			t.Fatalf("levies decreased at income %d", income)
		}
		previous = current
	}
}

func TestNewCalculatorRejectsLeviesAboveIncome(t *testing.T) {
	flat := func(rate string) ContributionStrategy {
		strategy, err := NewFlatRate(d(rate))
		require.NoError(t, err)
		return strategy
	}
	tiered := func(brackets []Bracket) ContributionStrategy {
		strategy, err := NewTiered(MustSchedule(brackets))
		require.NoError(t, err)
		return strategy
	}
	steepTop := MustSchedule([]Bracket{
		{LowerBound: d("0"), UpperBound: bound("10000"), Rate: d("0")},
		{LowerBound: d("10000"), Rate: d("90")},
	})

	tests := []struct {
		name          string
		schedule      Schedule
		contributions ContributionStrategy
		expectErr     bool
	}{
		{name: "Top bracket plus flat rate above 100", schedule: steepTop, contributions: flat("20"), expectErr: true},
		{name: "Exactly 100 is accepted", schedule: steepTop, contributions: flat("10")},
		{
			name:     "Tiered middle slice above 100",
			schedule: MustSchedule(referenceBrackets()),
			contributions: tiered([]Bracket{
				{LowerBound: d("0"), UpperBound: bound("30000"), Rate: d("10")},
				{LowerBound: d("30000"), UpperBound: bound("35000"), Rate: d("80")},
				{LowerBound: d("35000"), Rate: d("10")},
			}),
			expectErr: true,
		},
		{name: "Reference tables", schedule: MustSchedule(referenceBrackets()), contributions: flat("20")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCalculator(tt.schedule, tt.contributions)
			if tt.expectErr {
				assert.True(t, errors.Is(err, calcerr.ErrConfiguration), "err = %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCalculatorMarginalRate(t *testing.T) {
	calc := referenceCalculator(t)
	assert.True(t, calc.MarginalRate(d("5000")).Equal(d("20")))
	assert.True(t, calc.MarginalRate(d("25000")).Equal(d("45")))
	assert.True(t, calc.MarginalRate(d("50000")).Equal(d("60")))

	tiered, err := NewTiered(MustSchedule([]Bracket{
		{LowerBound: d("0"), UpperBound: bound("20000"), Rate: d("10")},
		{LowerBound: d("20000"), Rate: d("30")},
	}))
	require.NoError(t, err)
	assert.True(t, tiered.MarginalRate(d("25000")).Equal(d("30")))
	require.Len(t, tiered.Breakpoints(), 2)
	assert.True(t, tiered.Breakpoints()[1].Equal(d("20000")))
}
