package solver

import (
	"errors"
	"testing"

	"github.com/iwvelando/finance-planner/pkg/calcerr"
	"github.com/iwvelando/finance-planner/pkg/tax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func bound(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func referenceCalculator(t *testing.T, contributionRate string) *tax.Calculator {
	t.Helper()
	schedule := tax.MustSchedule([]tax.Bracket{
		{LowerBound: d("0"), UpperBound: bound("10000"), Rate: d("0")},
		{LowerBound: d("10000"), UpperBound: bound("40000"), Rate: d("25")},
		{LowerBound: d("40000"), Rate: d("40")},
	})
	flat, err := tax.NewFlatRate(d(contributionRate))
	require.NoError(t, err)
	calc, err := tax.NewCalculator(schedule, flat)
	require.NoError(t, err)
	return calc
}

func referenceRequest(t *testing.T) Request {
	return Request{
		Label:         "objectif",
		Target:        d("28500"),
		Achats:        d("5000"),
		Charges:       d("2000"),
		Calculator:    referenceCalculator(t, "20"),
		Tolerance:     d("1"),
		MaxIterations: 100,
	}
}

func TestSolveReferenceScenario(t *testing.T) {
	solver := NewSolver(zap.NewNop())
	req := referenceRequest(t)

	scenario, err := solver.SolveForTargetNetIncome(req)
	require.NoError(t, err)
	require.NotNil(t, scenario.CA)
	assert.True(t, scenario.Converged)

	// The net income slope is 0.4 above 47000 of revenue, so a tolerance of
	// 1 on net income allows 2.5 on revenue.
	assert.True(t, scenario.CA.Sub(d("57000")).Abs().LessThanOrEqual(d("2.5")), "ca = %s", scenario.CA)
	assert.True(t, scenario.ResultatNet.Sub(req.Target).Abs().LessThanOrEqual(req.Tolerance))
	assert.True(t, scenario.AchatsMarchandises.Equal(d("5000")))
	assert.True(t, scenario.ChargesProfessionnelles.Equal(d("2000")))
	assert.True(t, scenario.RevenuBrut.Equal(scenario.CA.Sub(d("7000"))))
	assert.Equal(t, "objectif", scenario.Label)
	assert.True(t, scenario.RevenuNetCible.Equal(d("28500")))
	assert.LessOrEqual(t, scenario.Iterations, req.MaxIterations)
	assert.True(t, scenario.MarginalRate.Equal(d("60")), "marginal rate = %s", scenario.MarginalRate)
}

func TestSolveTightTolerance(t *testing.T) {
	req := referenceRequest(t)
	req.Tolerance = d("0.01")

	scenario, err := NewSolver(nil).SolveForTargetNetIncome(req)
	require.NoError(t, err)
	require.NotNil(t, scenario.CA)
	assert.True(t, scenario.CA.Sub(d("57000")).Abs().LessThanOrEqual(d("1")), "ca = %s", scenario.CA)
}

func TestSolveRoundTrip(t *testing.T) {
	solver := NewSolver(nil)
	for _, target := range []string{"0", "800", "9000", "28500", "61000", "250000"} {
		t.Run(target, func(t *testing.T) {
			req := referenceRequest(t)
			req.Target = d(target)

			scenario, err := solver.SolveForTargetNetIncome(req)
			require.NoError(t, err)
			require.NotNil(t, scenario.CA)

			again := Evaluate(*scenario.CA, req.Achats, req.Charges, req.Calculator)
			assert.True(t, again.ResultatNet.Equal(scenario.ResultatNet))
			assert.True(t, again.Contributions.Equal(scenario.CotisationsSociales))
			assert.True(t, again.Tax.Equal(scenario.ImpotTotal))
			assert.True(t, again.ResultatNet.Sub(req.Target).Abs().LessThanOrEqual(req.Tolerance),
				"net %s for target %s", again.ResultatNet, target)
		})
	}
}

func TestSolveIsDeterministic(t *testing.T) {
	solver := NewSolver(nil)
	req := referenceRequest(t)

	first, err := solver.SolveForTargetNetIncome(req)
	require.NoError(t, err)
	second, err := solver.SolveForTargetNetIncome(req)
	require.NoError(t, err)

	assert.True(t, first.CA.Equal(*second.CA))
	assert.Equal(t, first.Iterations, second.Iterations)
}

func TestSolveBudgetExhausted(t *testing.T) {
	req := referenceRequest(t)
	req.Tolerance = d("0.000001")
	req.MaxIterations = 4

	scenario, err := NewSolver(nil).SolveForTargetNetIncome(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrNotConverged))

	var warning *calcerr.ConvergenceWarning
	require.True(t, errors.As(err, &warning))
	assert.Equal(t, 4, warning.Iterations)
	assert.Equal(t, "objectif", warning.Label)

	assert.Nil(t, scenario.CA)
	assert.False(t, scenario.Converged)
	assert.Equal(t, 4, scenario.Iterations)
	assert.True(t, scenario.RevenuBrut.IsPositive(), "partial figures must be populated")
	assert.True(t, scenario.CotisationsSociales.IsPositive())
	assert.True(t, scenario.ResultatNet.IsPositive())
}

func TestSolveUnreachableTarget(t *testing.T) {
	req := referenceRequest(t)
	// Above 40000 of gross income the levies take 100%, so net income
	// plateaus at 8500.
	req.Calculator = referenceCalculator(t, "60")
	req.MaxIterations = 30

	scenario, err := NewSolver(nil).SolveForTargetNetIncome(req)
	assert.True(t, calcerr.IsWarning(err))
	assert.Nil(t, scenario.CA)
	assert.Equal(t, 30, scenario.Iterations)
}

func TestSolveReachesTargetBelowPlateau(t *testing.T) {
	schedule := tax.MustSchedule([]tax.Bracket{
		{LowerBound: d("0"), UpperBound: bound("10000"), Rate: d("0")},
		{LowerBound: d("10000"), Rate: d("80")},
	})
	flat, err := tax.NewFlatRate(d("20"))
	require.NoError(t, err)
	calc, err := tax.NewCalculator(schedule, flat)
	require.NoError(t, err)

	scenario, err := NewSolver(nil).SolveForTargetNetIncome(Request{
		Label:         "plateau",
		Target:        d("7900"),
		Achats:        decimal.Zero,
		Charges:       decimal.Zero,
		Calculator:    calc,
		Tolerance:     d("1"),
		MaxIterations: 100,
	})
	require.NoError(t, err)
	require.NotNil(t, scenario.CA)
	assert.InDelta(t, 9875, scenario.CA.InexactFloat64(), 1.25)
	assert.InDelta(t, 7900, scenario.ResultatNet.InexactFloat64(), 1)
	assert.Less(t, scenario.Iterations, 100)
}

func TestSolveRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"Nil calculator", func(r *Request) { r.Calculator = nil }, "calculator"},
		{"Negative target", func(r *Request) { r.Target = d("-1") }, "target"},
		{"Negative achats", func(r *Request) { r.Achats = d("-1") }, "achats"},
		{"Negative charges", func(r *Request) { r.Charges = d("-1") }, "charges"},
		{"Zero tolerance", func(r *Request) { r.Tolerance = decimal.Zero }, "tolerance"},
		{"Zero iterations", func(r *Request) { r.MaxIterations = 0 }, "maxIterations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := referenceRequest(t)
			tt.mutate(&req)
			_, err := NewSolver(nil).SolveForTargetNetIncome(req)
			var invalid *calcerr.InvalidInputError
			require.True(t, errors.As(err, &invalid), "err = %v", err)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestEvaluateNegativeGrossIncome(t *testing.T) {
	breakdown := Evaluate(d("6000"), d("5000"), d("2000"), referenceCalculator(t, "20"))
	assert.True(t, breakdown.RevenuBrut.Equal(d("-1000")))
	assert.True(t, breakdown.Contributions.IsZero())
	assert.True(t, breakdown.Tax.IsZero())
	assert.True(t, breakdown.ResultatNet.Equal(d("-1000")))
}

func TestSolveAll(t *testing.T) {
	base := referenceRequest(t)
	low := base
	low.Label = "modeste"
	low.Target = d("15000")
	stuck := base
	stuck.Label = "ambitieux"
	stuck.Target = d("90000")
	stuck.MaxIterations = 2

	scenarios, err := NewSolver(nil).SolveAll([]Request{low, base, stuck})
	require.Len(t, scenarios, 3)
	require.Error(t, err)
	assert.True(t, calcerr.IsWarning(err))
	assert.Len(t, multierr.Errors(err), 1)

	assert.NotNil(t, scenarios[0].CA)
	assert.NotNil(t, scenarios[1].CA)
	assert.Nil(t, scenarios[2].CA)
	assert.Equal(t, "ambitieux", scenarios[2].Label)
}

func TestSolveAllAbortsOnInvalidRequest(t *testing.T) {
	bad := referenceRequest(t)
	bad.Tolerance = d("-1")

	scenarios, err := NewSolver(nil).SolveAll([]Request{referenceRequest(t), bad})
	assert.Nil(t, scenarios)
	assert.True(t, errors.Is(err, calcerr.ErrInvalidInput))
}
