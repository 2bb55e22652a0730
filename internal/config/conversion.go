package config

import (
	"fmt"

	"github.com/iwvelando/finance-planner/pkg/cashflow"
	"github.com/iwvelando/finance-planner/pkg/economics"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/iwvelando/finance-planner/pkg/solver"
	"github.com/iwvelando/finance-planner/pkg/tax"
	"github.com/shopspring/decimal"
)

// ToCalculator validates the tax tables and builds the calculator shared by
// every solve. Bracket problems surface here, once, as a ConfigurationError.
func (t TaxConfig) ToCalculator() (*tax.Calculator, error) {
	schedule, err := toSchedule(t.Brackets)
	if err != nil {
		return nil, fmt.Errorf("income tax brackets: %w", err)
	}

	var strategy tax.ContributionStrategy
	switch t.Contributions.Kind {
	case ContributionKindTiered:
		table, err := toSchedule(t.Contributions.Brackets)
		if err != nil {
			return nil, fmt.Errorf("contribution brackets: %w", err)
		}
		if strategy, err = tax.NewTiered(table); err != nil {
			return nil, err
		}
	default:
		if t.Contributions.Rate == nil {
			return nil, fmt.Errorf("flat contributions require a rate")
		}
		rate, err := mathutil.FromFloat(*t.Contributions.Rate)
		if err != nil {
			return nil, fmt.Errorf("contribution rate: %w", err)
		}
		if strategy, err = tax.NewFlatRate(rate); err != nil {
			return nil, err
		}
	}
	return tax.NewCalculator(schedule, strategy)
}

func toSchedule(brackets []BracketConfig) (tax.Schedule, error) {
	converted := make([]tax.Bracket, len(brackets))
	for i, b := range brackets {
		lower, err := mathutil.FromFloat(b.Lower)
		if err != nil {
			return tax.Schedule{}, fmt.Errorf("bracket %d lower bound: %w", i, err)
		}
		rate, err := mathutil.FromFloat(b.Rate)
		if err != nil {
			return tax.Schedule{}, fmt.Errorf("bracket %d rate: %w", i, err)
		}
		converted[i] = tax.Bracket{LowerBound: lower, Rate: rate}
		if b.Upper != nil {
			upper, err := mathutil.FromFloat(*b.Upper)
			if err != nil {
				return tax.Schedule{}, fmt.Errorf("bracket %d upper bound: %w", i, err)
			}
			converted[i].UpperBound = &upper
		}
	}
	return tax.NewSchedule(converted)
}

// ToLineItems converts the product recipe.
func (p Product) ToLineItems() ([]economics.CostLineItem, error) {
	items := make([]economics.CostLineItem, 0, len(p.Items))
	for i, item := range p.Items {
		kind, err := economics.ParseKind(item.Kind)
		if err != nil {
			return nil, fmt.Errorf("product %s item %d: %w", p.Name, i, err)
		}
		quantity, err := mathutil.FromFloat(item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("product %s item %d quantity: %w", p.Name, i, err)
		}
		unitCost, err := mathutil.FromFloat(item.UnitCost)
		if err != nil {
			return nil, fmt.Errorf("product %s item %d unit cost: %w", p.Name, i, err)
		}
		vatRate, err := mathutil.FromFloat(item.VATRate)
		if err != nil {
			return nil, fmt.Errorf("product %s item %d VAT rate: %w", p.Name, i, err)
		}
		items = append(items, economics.CostLineItem{
			Name:     item.Name,
			Kind:     kind,
			Quantity: quantity,
			UnitCost: unitCost,
			VATRate:  vatRate,
		})
	}
	return items, nil
}

// ToSalePrice converts the sale price.
func (p Product) ToSalePrice() (decimal.Decimal, error) {
	price, err := mathutil.FromFloat(p.SalePrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("product %s sale price: %w", p.Name, err)
	}
	return price, nil
}

// ToFixedCosts converts the monthly fixed costs.
func (p Product) ToFixedCosts() (decimal.Decimal, error) {
	costs, err := mathutil.FromFloat(p.FixedCosts)
	if err != nil {
		return decimal.Zero, fmt.Errorf("product %s fixed costs: %w", p.Name, err)
	}
	return costs, nil
}

// ToRequest builds the solver request for a target. productAchats is used
// when the target derives its purchases from the products.
func (t Target) ToRequest(calc *tax.Calculator, s SolverConfig, productAchats decimal.Decimal) (solver.Request, error) {
	target, err := mathutil.FromFloat(t.NetIncome)
	if err != nil {
		return solver.Request{}, fmt.Errorf("target %s net income: %w", t.Label, err)
	}
	achats, err := mathutil.FromFloat(t.Achats)
	if err != nil {
		return solver.Request{}, fmt.Errorf("target %s achats: %w", t.Label, err)
	}
	if t.AchatsFromProducts {
		achats = productAchats
	}
	charges, err := mathutil.FromFloat(t.Charges)
	if err != nil {
		return solver.Request{}, fmt.Errorf("target %s charges: %w", t.Label, err)
	}
	tolerance, err := mathutil.FromFloat(s.Tolerance)
	if err != nil {
		return solver.Request{}, fmt.Errorf("solver tolerance: %w", err)
	}
	return solver.Request{
		Label:         t.Label,
		Target:        target,
		Achats:        achats,
		Charges:       charges,
		Calculator:    calc,
		Tolerance:     tolerance,
		MaxIterations: s.MaxIterations,
	}, nil
}

// ToMonthlyPlan converts the base plan.
func (c CashFlowConfig) ToMonthlyPlan() ([]cashflow.MonthlyPlan, error) {
	plan := make([]cashflow.MonthlyPlan, len(c.Months))
	for i, month := range c.Months {
		revenue, err := mathutil.FromFloat(month.Revenue)
		if err != nil {
			return nil, fmt.Errorf("cashflow month %d revenue: %w", i, err)
		}
		costs, err := mathutil.FromFloat(month.Costs)
		if err != nil {
			return nil, fmt.Errorf("cashflow month %d costs: %w", i, err)
		}
		plan[i] = cashflow.MonthlyPlan{Revenue: revenue, Costs: costs}
	}
	return plan, nil
}

// ToOpeningBalance converts the opening balance.
func (c CashFlowConfig) ToOpeningBalance() (decimal.Decimal, error) {
	balance, err := mathutil.FromFloat(c.OpeningBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cashflow opening balance: %w", err)
	}
	return balance, nil
}

// ToStressConfig converts the stress scenario.
func (s StressConfig) ToStressConfig() (cashflow.StressConfig, error) {
	revenueShock, err := mathutil.FromFloat(s.RevenueShock)
	if err != nil {
		return cashflow.StressConfig{}, fmt.Errorf("stress revenue shock: %w", err)
	}
	costShock, err := mathutil.FromFloat(s.CostShock)
	if err != nil {
		return cashflow.StressConfig{}, fmt.Errorf("stress cost shock: %w", err)
	}
	policy, err := cashflow.ParsePolicy(s.Policy)
	if err != nil {
		return cashflow.StressConfig{}, err
	}
	return cashflow.StressConfig{
		RevenueShock:       revenueShock,
		CostShock:          costShock,
		PaymentDelayMonths: s.PaymentDelayMonths,
		Policy:             policy,
	}, nil
}
