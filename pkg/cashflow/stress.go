package cashflow

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-planner/pkg/calcerr"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/shopspring/decimal"
)

// Policy decides how percentage shocks evolve over the horizon.
type Policy string

const (
	// PolicyIndependent applies the same shock to every month.
	PolicyIndependent Policy = "independent"
	// PolicyCompounding applies the shock once more each month, so month i
	// is scaled by (1 + shock/100)^(i+1).
	PolicyCompounding Policy = "compounding"
)

// ParsePolicy returns the policy named by value; empty means independent.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyIndependent:
		return PolicyIndependent, nil
	case PolicyCompounding:
		return PolicyCompounding, nil
	default:
		return "", fmt.Errorf("unknown stress policy %q", value)
	}
}

// MonthlyPlan is the planned revenue and costs of one month.
type MonthlyPlan struct {
	Revenue decimal.Decimal
	Costs   decimal.Decimal
}

// Net returns revenue minus costs.
func (m MonthlyPlan) Net() decimal.Decimal {
	return m.Revenue.Sub(m.Costs)
}

// StressConfig describes a stress scenario. Shocks are percentages, e.g. -15
// for a 15 % revenue drop.
type StressConfig struct {
	RevenueShock decimal.Decimal
	CostShock    decimal.Decimal
	// PaymentDelayMonths shifts revenue receipts later. Receipts pushed past
	// the horizon are lost.
	PaymentDelayMonths int
	Policy             Policy
}

// BaseFlows returns the net flow of every planned month.
func BaseFlows(plan []MonthlyPlan) ([]decimal.Decimal, error) {
	if err := validatePlan("cashflow.BaseFlows", plan); err != nil {
		return nil, err
	}
	flows := make([]decimal.Decimal, len(plan))
	for i, month := range plan {
		flows[i] = month.Net()
	}
	return flows, nil
}

// DeriveStressFlows applies cfg to plan and returns the stressed net flow of
// every month.
func DeriveStressFlows(plan []MonthlyPlan, cfg StressConfig) ([]decimal.Decimal, error) {
	const op = "cashflow.DeriveStressFlows"
	if err := validatePlan(op, plan); err != nil {
		return nil, err
	}
	policy, err := validateStress(op, cfg)
	if err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(constants.PercentageMultiplier)
	revenueStep := hundred.Add(cfg.RevenueShock).Div(hundred)
	costStep := hundred.Add(cfg.CostShock).Div(hundred)

	revenues := make([]decimal.Decimal, len(plan))
	costs := make([]decimal.Decimal, len(plan))
	revenueFactor := revenueStep
	costFactor := costStep
	for i, month := range plan {
		if policy == PolicyCompounding && i > 0 {
			revenueFactor = revenueFactor.Mul(revenueStep)
			costFactor = costFactor.Mul(costStep)
		}
		revenues[i] = month.Revenue.Mul(revenueFactor)
		costs[i] = month.Costs.Mul(costFactor)
	}

	flows := make([]decimal.Decimal, len(plan))
	for i := range plan {
		received := decimal.Zero
		if earned := i - cfg.PaymentDelayMonths; earned >= 0 {
			received = revenues[earned]
		}
		flows[i] = received.Sub(costs[i])
	}
	return flows, nil
}

func validatePlan(op string, plan []MonthlyPlan) error {
	for i, month := range plan {
		if month.Revenue.IsNegative() {
			return calcerr.NewInvalidInput(op, fmt.Sprintf("plan[%d].revenue", i), "must be >= 0, got %s", month.Revenue)
		}
		if month.Costs.IsNegative() {
			return calcerr.NewInvalidInput(op, fmt.Sprintf("plan[%d].costs", i), "must be >= 0, got %s", month.Costs)
		}
	}
	return nil
}

func validateStress(op string, cfg StressConfig) (Policy, error) {
	floor := decimal.NewFromInt(-constants.PercentageMultiplier)
	if cfg.RevenueShock.LessThan(floor) {
		return "", calcerr.NewInvalidInput(op, "revenueShock", "must be >= -100, got %s", cfg.RevenueShock)
	}
	if cfg.CostShock.LessThan(floor) {
		return "", calcerr.NewInvalidInput(op, "costShock", "must be >= -100, got %s", cfg.CostShock)
	}
	if cfg.PaymentDelayMonths < 0 {
		return "", calcerr.NewInvalidInput(op, "paymentDelayMonths", "must be >= 0, got %d", cfg.PaymentDelayMonths)
	}
	policy, err := ParsePolicy(string(cfg.Policy))
	if err != nil {
		return "", calcerr.NewInvalidInput(op, "policy", "%v", err)
	}
	return policy, nil
}
