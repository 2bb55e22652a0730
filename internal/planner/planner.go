// Package planner builds a complete planning report from a loaded plan: unit
// economics and sensitivity grids per product, the revenue targets and the
// stressed cash-flow projection.
package planner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-planner/internal/config"
	"github.com/iwvelando/finance-planner/pkg/cashflow"
	"github.com/iwvelando/finance-planner/pkg/calcerr"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/economics"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/iwvelando/finance-planner/pkg/sensitivity"
	"github.com/iwvelando/finance-planner/pkg/solver"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProductReport holds everything computed for one product.
type ProductReport struct {
	Name        string
	Volume      int
	FixedCosts  decimal.Decimal
	Economics   economics.UnitEconomics
	VAT         economics.VATSummary
	CostByKind  map[economics.Kind]decimal.Decimal
	Sensitivity sensitivity.Analysis
	// BreakEven is the monthly volume whose margin covers FixedCosts.
	BreakEven mathutil.OptionalDecimal
	// YearlyAchats is the purchase cost of a year of production.
	YearlyAchats decimal.Decimal
}

// Report is the outcome of one planning run.
type Report struct {
	RunID     uuid.UUID
	Products  []ProductReport
	Scenarios []solver.SimulationScenario
	CashFlow  cashflow.Result
	// Warnings lists non-fatal problems: configuration warnings and targets
	// the solver could not reach.
	Warnings []string
}

// FindProduct returns the product report named name, nil when absent.
func (r *Report) FindProduct(name string) *ProductReport {
	for i := range r.Products {
		if r.Products[i].Name == name {
			return &r.Products[i]
		}
	}
	return nil
}

// FindScenario returns the scenario labelled label, nil when absent.
func (r *Report) FindScenario(label string) *solver.SimulationScenario {
	for i := range r.Scenarios {
		if r.Scenarios[i].Label == label {
			return &r.Scenarios[i]
		}
	}
	return nil
}

// BuildReport runs every engine over conf. Products are analyzed
// concurrently; the first product error cancels the others.
func BuildReport(ctx context.Context, logger *zap.Logger, conf config.Configuration) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	report := Report{
		RunID:    uuid.New(),
		Warnings: conf.ValidateConfiguration(),
	}
	logger = logger.With(zap.String("run_id", report.RunID.String()))

	calc, err := conf.Tax.ToCalculator()
	if err != nil {
		return report, fmt.Errorf("building tax calculator: %w", err)
	}

	// Purchases derived from products need every product to have a recipe.
	recipeRequired := false
	for _, target := range conf.Targets {
		recipeRequired = recipeRequired || target.AchatsFromProducts
	}

	report.Products = make([]ProductReport, len(conf.Products))
	g, gctx := errgroup.WithContext(ctx)
	for i := range conf.Products {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			product, err := analyzeProduct(conf.Products[i], conf.Sensitivity.Variations, recipeRequired)
			if err != nil {
				return err
			}
			report.Products[i] = product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	logger.Debug(fmt.Sprintf("analyzed %d products", len(report.Products)),
		zap.String("op", "planner.BuildReport"),
	)

	productAchats := decimal.Zero
	for _, product := range report.Products {
		productAchats = productAchats.Add(product.YearlyAchats)
	}

	requests := make([]solver.Request, 0, len(conf.Targets))
	for _, target := range conf.Targets {
		req, err := target.ToRequest(calc, conf.Solver, productAchats)
		if err != nil {
			return report, err
		}
		requests = append(requests, req)
	}
	scenarios, err := solver.NewSolver(logger).SolveAll(requests)
	if err != nil && !calcerr.IsWarning(err) {
		return report, fmt.Errorf("solving revenue targets: %w", err)
	}
	for _, warning := range multierr.Errors(err) {
		report.Warnings = append(report.Warnings, warning.Error())
	}
	report.Scenarios = scenarios

	report.CashFlow, err = projectCashFlow(logger, conf.CashFlow)
	if err != nil {
		return report, err
	}

	return report, nil
}

func analyzeProduct(product config.Product, variations []int, recipeRequired bool) (ProductReport, error) {
	items, err := product.ToLineItems()
	if err != nil {
		return ProductReport{}, err
	}
	price, err := product.ToSalePrice()
	if err != nil {
		return ProductReport{}, err
	}
	fixedCosts, err := product.ToFixedCosts()
	if err != nil {
		return ProductReport{}, err
	}

	compute := economics.Compute
	if recipeRequired {
		compute = economics.ComputeRequired
	}
	unit, err := compute(items, price)
	if err != nil {
		return ProductReport{}, fmt.Errorf("product %s: %w", product.Name, err)
	}
	vat, err := economics.SummarizeVAT(items)
	if err != nil {
		return ProductReport{}, fmt.Errorf("product %s: %w", product.Name, err)
	}
	byKind, err := economics.CostByKind(items)
	if err != nil {
		return ProductReport{}, fmt.Errorf("product %s: %w", product.Name, err)
	}
	analysis, err := sensitivity.Analyze(unit, items, price, product.Volume, variations)
	if err != nil {
		return ProductReport{}, fmt.Errorf("product %s: %w", product.Name, err)
	}

	yearlyUnits := decimal.NewFromInt(int64(product.Volume) * constants.MonthsPerYear)
	return ProductReport{
		Name:         product.Name,
		Volume:       product.Volume,
		FixedCosts:   fixedCosts,
		Economics:    unit,
		VAT:          vat,
		CostByKind:   byKind,
		Sensitivity:  analysis,
		BreakEven:    sensitivity.BreakEvenVolume(fixedCosts, unit.Margin),
		YearlyAchats: unit.CostToProduce.Mul(yearlyUnits),
	}, nil
}

func projectCashFlow(logger *zap.Logger, conf config.CashFlowConfig) (cashflow.Result, error) {
	plan, err := conf.ToMonthlyPlan()
	if err != nil {
		return cashflow.Result{}, err
	}
	opening, err := conf.ToOpeningBalance()
	if err != nil {
		return cashflow.Result{}, err
	}
	stress, err := conf.Stress.ToStressConfig()
	if err != nil {
		return cashflow.Result{}, err
	}
	result, err := cashflow.NewProjector(logger).ProjectPlan(conf.StartMonth, opening, plan, stress)
	if err != nil {
		return cashflow.Result{}, fmt.Errorf("projecting cash flow: %w", err)
	}
	return result, nil
}
