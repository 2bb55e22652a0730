// Package solver reverse-solves the revenue (chiffre d'affaires) a business
// must invoice so that, after purchases, professional charges, social
// contributions and income tax, the owner keeps a target net income.
package solver

import (
	"fmt"

	"github.com/iwvelando/finance-planner/pkg/calcerr"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/iwvelando/finance-planner/pkg/tax"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var two = decimal.NewFromInt(2)

// Request describes one target net income to solve for.
type Request struct {
	Label string
	// Target is the desired yearly net income (revenu net cible).
	Target decimal.Decimal
	// Achats are the purchases of goods (achats de marchandises).
	Achats decimal.Decimal
	// Charges are the professional charges (charges professionnelles).
	Charges       decimal.Decimal
	Calculator    *tax.Calculator
	Tolerance     decimal.Decimal
	MaxIterations int
}

// SimulationScenario is the immutable outcome of a solve. CA is nil when the
// solver did not converge; the other figures then describe the closest
// revenue evaluated.
type SimulationScenario struct {
	Label                   string
	RevenuNetCible          decimal.Decimal
	CA                      *decimal.Decimal
	AchatsMarchandises      decimal.Decimal
	ChargesProfessionnelles decimal.Decimal
	RevenuBrut              decimal.Decimal
	CotisationsSociales     decimal.Decimal
	ImpotTotal              decimal.Decimal
	ResultatNet             decimal.Decimal
	// MarginalRate is the combined tax and contribution percentage on the
	// next unit of RevenuBrut.
	MarginalRate            decimal.Decimal
	Iterations              int
	Converged               bool
}

// Breakdown is the income cascade for one revenue figure.
type Breakdown struct {
	CA            decimal.Decimal
	RevenuBrut    decimal.Decimal
	Contributions decimal.Decimal
	Tax           decimal.Decimal
	ResultatNet   decimal.Decimal
}

// Solver runs revenue searches. It is stateless apart from its logger and
// may be shared between goroutines.
type Solver struct {
	logger *zap.Logger
}

// NewSolver creates a Solver. A nil logger disables logging.
func NewSolver(logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{logger: logger}
}

// Evaluate walks the cascade from a known revenue down to net income. A
// non-positive gross income owes no contributions or tax.
func Evaluate(ca, achats, charges decimal.Decimal, calc *tax.Calculator) Breakdown {
	brut := ca.Sub(achats).Sub(charges)
	levies := calc.Compute(brut)
	return Breakdown{
		CA:            ca,
		RevenuBrut:    brut,
		Contributions: levies.Contributions,
		Tax:           levies.Tax,
		ResultatNet:   levies.Net,
	}
}

// SolveForTargetNetIncome searches the revenue whose net income is within
// req.Tolerance of req.Target. The search brackets the root by doubling the
// revenue from target+achats+charges, then bisects. Each evaluation counts
// against req.MaxIterations.
//
// When the budget runs out the scenario is still returned, with a nil CA,
// together with a *calcerr.ConvergenceWarning.
func (s *Solver) SolveForTargetNetIncome(req Request) (SimulationScenario, error) {
	if err := validateRequest(req); err != nil {
		return SimulationScenario{}, err
	}

	search := newSearch(req)

	floor := req.Achats.Add(req.Charges)
	seed := floor.Add(req.Target)
	current := search.evaluate(seed)

	// Grow the upper bound until it yields at least the target.
	lower := floor
	upper := seed
	for !search.done() && current.ResultatNet.LessThan(req.Target) {
		lower = upper
		upper = upper.Mul(two)
		if upper.IsZero() {
			upper = decimal.NewFromInt(1)
		}
		current = search.evaluate(upper)
	}

	for !search.done() {
		mid := lower.Add(upper).Div(two)
		current = search.evaluate(mid)
		if current.ResultatNet.LessThan(req.Target) {
			lower = mid
		} else {
			upper = mid
		}
	}

	scenario := search.scenario()
	if !scenario.Converged {
		warning := &calcerr.ConvergenceWarning{
			Label:      req.Label,
			Iterations: search.iterations,
			Residual:   search.bestResidual().StringFixed(2),
		}
		s.logger.Warn("revenue search did not converge",
			zap.String("op", "solver.SolveForTargetNetIncome"),
			zap.String("scenario", req.Label),
			zap.String("target", req.Target.String()),
			zap.Int("iterations", search.iterations),
			zap.String("residual", warning.Residual),
		)
		return scenario, warning
	}

	s.logger.Debug("revenue search converged",
		zap.String("op", "solver.SolveForTargetNetIncome"),
		zap.String("scenario", req.Label),
		zap.String("target", req.Target.String()),
		zap.String("ca", scenario.CA.StringFixed(2)),
		zap.Int("iterations", search.iterations),
	)
	return scenario, nil
}

// SolveAll solves every request in order. Requests that do not converge are
// kept as partial rows and their warnings combined into the returned error;
// an invalid request aborts the whole table.
func (s *Solver) SolveAll(reqs []Request) ([]SimulationScenario, error) {
	scenarios := make([]SimulationScenario, 0, len(reqs))
	var warnings error
	for i, req := range reqs {
		scenario, err := s.SolveForTargetNetIncome(req)
		if err != nil {
			if !calcerr.IsWarning(err) {
				return nil, fmt.Errorf("scenario %d (%s): %w", i, req.Label, err)
			}
			warnings = multierr.Append(warnings, err)
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, warnings
}

func validateRequest(req Request) error {
	const op = "solver.SolveForTargetNetIncome"
	switch {
	case req.Calculator == nil:
		return calcerr.NewInvalidInput(op, "calculator", "cannot be nil")
	case req.Target.IsNegative():
		return calcerr.NewInvalidInput(op, "target", "must be >= 0, got %s", req.Target)
	case req.Achats.IsNegative():
		return calcerr.NewInvalidInput(op, "achats", "must be >= 0, got %s", req.Achats)
	case req.Charges.IsNegative():
		return calcerr.NewInvalidInput(op, "charges", "must be >= 0, got %s", req.Charges)
	case !req.Tolerance.IsPositive():
		return calcerr.NewInvalidInput(op, "tolerance", "must be > 0, got %s", req.Tolerance)
	case req.MaxIterations <= 0:
		return calcerr.NewInvalidInput(op, "maxIterations", "must be > 0, got %d", req.MaxIterations)
	}
	return nil
}

// search tracks the evaluation budget and the closest evaluation so far.
type search struct {
	req        Request
	iterations int
	best       Breakdown
	hasBest    bool
	converged  bool
}

func newSearch(req Request) *search {
	return &search{req: req}
}

func (s *search) evaluate(ca decimal.Decimal) Breakdown {
	result := Evaluate(ca, s.req.Achats, s.req.Charges, s.req.Calculator)
	s.iterations++

	residual := result.ResultatNet.Sub(s.req.Target).Abs()
	if !s.hasBest || residual.LessThan(s.bestResidual()) {
		s.best = result
		s.hasBest = true
	}
	if mathutil.WithinTolerance(result.ResultatNet, s.req.Target, s.req.Tolerance) {
		s.converged = true
	}
	return result
}

func (s *search) done() bool {
	return s.converged || s.iterations >= s.req.MaxIterations
}

func (s *search) bestResidual() decimal.Decimal {
	return s.best.ResultatNet.Sub(s.req.Target).Abs()
}

func (s *search) scenario() SimulationScenario {
	scenario := SimulationScenario{
		Label:                   s.req.Label,
		RevenuNetCible:          s.req.Target,
		AchatsMarchandises:      s.req.Achats,
		ChargesProfessionnelles: s.req.Charges,
		RevenuBrut:              s.best.RevenuBrut,
		CotisationsSociales:     s.best.Contributions,
		ImpotTotal:              s.best.Tax,
		ResultatNet:             s.best.ResultatNet,
		MarginalRate:            s.req.Calculator.MarginalRate(s.best.RevenuBrut),
		Iterations:              s.iterations,
		Converged:               s.converged,
	}
	if s.converged {
		ca := s.best.CA
		scenario.CA = &ca
	}
	return scenario
}
