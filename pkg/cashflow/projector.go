// Package cashflow projects cumulative cash balances of a base plan next to
// a stressed copy of it and flags the months where the stressed balance
// drops below zero.
package cashflow

import (
	"fmt"

	"github.com/iwvelando/finance-planner/pkg/calcerr"
	"github.com/iwvelando/finance-planner/pkg/datetime"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StressTestResult is the projected position at the end of one month.
type StressTestResult struct {
	MonthIndex  int
	MonthLabel  string
	CumulBase   decimal.Decimal
	CumulStress decimal.Decimal
	// Ecart is CumulStress minus CumulBase.
	Ecart      decimal.Decimal
	IsNegative bool
}

// Projection is the input of Project.
type Projection struct {
	// StartMonth labels month 0 as YYYY-MM; empty gives relative labels.
	StartMonth     string
	OpeningBalance decimal.Decimal
	BaseFlows      []decimal.Decimal
	StressFlows    []decimal.Decimal
}

// Result is the month-ordered projection.
type Result struct {
	Months []StressTestResult
	// FirstNegativeMonth is the index of the first month whose stressed
	// balance is negative, nil when it never is.
	FirstNegativeMonth *int
	// MinStress is the lowest stressed balance, at MinStressMonth. Both are
	// meaningless for an empty projection, where MinStressMonth is -1.
	MinStress      decimal.Decimal
	MinStressMonth int
}

// DangerMonth returns the label of the first negative month.
func (r Result) DangerMonth() (string, bool) {
	if r.FirstNegativeMonth == nil {
		return "", false
	}
	return r.Months[*r.FirstNegativeMonth].MonthLabel, true
}

// Projector accumulates monthly flows. It holds no per-call state.
type Projector struct {
	logger *zap.Logger
}

// NewProjector creates a Projector. A nil logger disables logging.
func NewProjector(logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{logger: logger}
}

// Project accumulates both flow series month by month, starting from the
// opening balance.
func (p *Projector) Project(in Projection) (Result, error) {
	const op = "cashflow.Project"
	if len(in.BaseFlows) != len(in.StressFlows) {
		return Result{}, calcerr.NewInvalidInput(op, "stressFlows",
			"has %d months but base flows have %d", len(in.StressFlows), len(in.BaseFlows))
	}

	labels, err := datetime.MonthLabels(in.StartMonth, len(in.BaseFlows))
	if err != nil {
		return Result{}, calcerr.NewInvalidInput(op, "startMonth", "%v", err)
	}

	result := Result{
		Months:         make([]StressTestResult, len(in.BaseFlows)),
		MinStressMonth: -1,
	}
	cumulBase := in.OpeningBalance
	cumulStress := in.OpeningBalance
	for i := range in.BaseFlows {
		cumulBase = cumulBase.Add(in.BaseFlows[i])
		cumulStress = cumulStress.Add(in.StressFlows[i])

		month := StressTestResult{
			MonthIndex:  i,
			MonthLabel:  labels[i],
			CumulBase:   cumulBase,
			CumulStress: cumulStress,
			Ecart:       cumulStress.Sub(cumulBase),
			IsNegative:  cumulStress.IsNegative(),
		}
		result.Months[i] = month

		if month.IsNegative && result.FirstNegativeMonth == nil {
			index := i
			result.FirstNegativeMonth = &index
		}
		if result.MinStressMonth < 0 || cumulStress.LessThan(result.MinStress) {
			result.MinStress = cumulStress
			result.MinStressMonth = i
		}
	}

	if label, ok := result.DangerMonth(); ok {
		p.logger.Info("stressed cash balance turns negative",
			zap.String("op", op),
			zap.String("month", label),
			zap.String("minimum", result.MinStress.StringFixed(2)),
		)
	}
	return result, nil
}

// ProjectPlan derives base and stressed flows from plan and projects both.
func (p *Projector) ProjectPlan(startMonth string, openingBalance decimal.Decimal, plan []MonthlyPlan, cfg StressConfig) (Result, error) {
	base, err := BaseFlows(plan)
	if err != nil {
		return Result{}, err
	}
	stress, err := DeriveStressFlows(plan, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("deriving stress flows: %w", err)
	}
	return p.Project(Projection{
		StartMonth:     startMonth,
		OpeningBalance: openingBalance,
		BaseFlows:      base,
		StressFlows:    stress,
	})
}
