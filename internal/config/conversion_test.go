package config

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/finance-planner/pkg/calcerr"
	"github.com/iwvelando/finance-planner/pkg/cashflow"
	"github.com/iwvelando/finance-planner/pkg/economics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func referenceTax() TaxConfig {
	conf := TaxConfig{
		Brackets: []BracketConfig{
			{Lower: 0, Upper: floatPtr(10000), Rate: 0},
			{Lower: 10000, Upper: floatPtr(40000), Rate: 25},
			{Lower: 40000, Rate: 40},
		},
	}
	conf.Normalize()
	return conf
}

func TestToCalculatorFlat(t *testing.T) {
	calc, err := referenceTax().ToCalculator()
	require.NoError(t, err)

	result := calc.Compute(decimal.NewFromInt(50000))
	assert.True(t, result.Contributions.Equal(decimal.NewFromInt(10000)))
	assert.True(t, result.Tax.Equal(decimal.NewFromInt(11500)))
}

func TestToCalculatorTiered(t *testing.T) {
	conf := referenceTax()
	conf.Contributions = ContributionsConfig{
		Brackets: []BracketConfig{
			{Lower: 0, Upper: floatPtr(20000), Rate: 10},
			{Lower: 20000, Rate: 30},
		},
	}
	conf.Normalize()
	require.Equal(t, ContributionKindTiered, conf.Contributions.Kind)

	calc, err := conf.ToCalculator()
	require.NoError(t, err)
	result := calc.Compute(decimal.NewFromInt(50000))
	assert.True(t, result.Contributions.Equal(decimal.NewFromInt(11000)))
}

func TestToCalculatorRejectsMalformedBrackets(t *testing.T) {
	tests := []struct {
		name string
		conf TaxConfig
	}{
		{
			name: "Gap in income tax",
			conf: TaxConfig{
				Brackets: []BracketConfig{
					{Lower: 0, Upper: floatPtr(10000), Rate: 0},
					{Lower: 11000, Rate: 30},
				},
				Contributions: ContributionsConfig{Kind: ContributionKindFlat, Rate: floatPtr(20)},
			},
		},
		{
			name: "Overlap in contributions",
			conf: TaxConfig{
				Brackets: []BracketConfig{{Lower: 0, Rate: 10}},
				Contributions: ContributionsConfig{
					Kind: ContributionKindTiered,
					Brackets: []BracketConfig{
						{Lower: 0, Upper: floatPtr(20000), Rate: 10},
						{Lower: 15000, Rate: 30},
					},
				},
			},
		},
		{
			name: "Combined marginal levy above 100",
			conf: TaxConfig{
				Brackets: []BracketConfig{
					{Lower: 0, Upper: floatPtr(10000), Rate: 0},
					{Lower: 10000, Rate: 90},
				},
				Contributions: ContributionsConfig{Kind: ContributionKindFlat, Rate: floatPtr(20)},
			},
		},
		{
			name: "Flat rate above 100",
			conf: TaxConfig{
				Brackets:      []BracketConfig{{Lower: 0, Rate: 10}},
				Contributions: ContributionsConfig{Kind: ContributionKindFlat, Rate: floatPtr(150)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.conf.ToCalculator()
			require.Error(t, err)
			assert.True(t, errors.Is(err, calcerr.ErrConfiguration), "err = %v", err)
		})
	}
}

func TestToCalculatorRejectsNonFinite(t *testing.T) {
	conf := referenceTax()
	conf.Brackets[2].Rate = math.NaN()
	_, err := conf.ToCalculator()
	assert.Error(t, err)
}

func TestProductToLineItems(t *testing.T) {
	product := Product{
		Name:      "tarte",
		SalePrice: 10,
		Items: []LineItem{
			{Name: "pate", Kind: "ingredient", Quantity: 0.5, UnitCost: 8, VATRate: 5.5},
			{Name: "boite", Kind: "packaging", Quantity: 1, UnitCost: 1.5, VATRate: 20},
		},
	}

	items, err := product.ToLineItems()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, economics.KindIngredient, items[0].Kind)
	assert.True(t, items[0].Quantity.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, items[1].VATRate.Equal(decimal.NewFromInt(20)))

	price, err := product.ToSalePrice()
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(10)))

	product.Items[1].Kind = "labour"
	_, err = product.ToLineItems()
	assert.Error(t, err)

	product.SalePrice = math.Inf(1)
	_, err = product.ToSalePrice()
	assert.Error(t, err)
}

func TestTargetToRequest(t *testing.T) {
	calc, err := referenceTax().ToCalculator()
	require.NoError(t, err)
	solverConf := SolverConfig{}
	solverConf.Normalize()

	target := Target{Label: "objectif", NetIncome: 28500, Achats: 5000, Charges: 2000}
	req, err := target.ToRequest(calc, solverConf, decimal.NewFromInt(99999))
	require.NoError(t, err)
	assert.Equal(t, "objectif", req.Label)
	assert.True(t, req.Achats.Equal(decimal.NewFromInt(5000)))
	assert.True(t, req.Tolerance.Equal(decimal.NewFromInt(1)))
	assert.Same(t, calc, req.Calculator)

	target.AchatsFromProducts = true
	req, err = target.ToRequest(calc, solverConf, decimal.NewFromInt(21600))
	require.NoError(t, err)
	assert.True(t, req.Achats.Equal(decimal.NewFromInt(21600)))
}

func TestCashFlowConversions(t *testing.T) {
	conf := CashFlowConfig{
		OpeningBalance: 2000,
		Months: []MonthConfig{
			{Revenue: 6000, Costs: 5200},
			{Revenue: 5400, Costs: 5200},
		},
		Stress: StressConfig{RevenueShock: -15, CostShock: 5, PaymentDelayMonths: 1, Policy: "compounding"},
	}

	plan, err := conf.ToMonthlyPlan()
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.True(t, plan[1].Net().Equal(decimal.NewFromInt(200)))

	balance, err := conf.ToOpeningBalance()
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(2000)))

	stress, err := conf.Stress.ToStressConfig()
	require.NoError(t, err)
	assert.Equal(t, cashflow.PolicyCompounding, stress.Policy)
	assert.True(t, stress.RevenueShock.Equal(decimal.NewFromInt(-15)))
	assert.Equal(t, 1, stress.PaymentDelayMonths)

	conf.Stress.Policy = "random"
	_, err = conf.Stress.ToStressConfig()
	assert.Error(t, err)
}
