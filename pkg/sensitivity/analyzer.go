// Package sensitivity sweeps a product's unit economics over percentage
// variations of cost, sale price and volume.
package sensitivity

import (
	"fmt"

	"github.com/iwvelando/finance-planner/pkg/calcerr"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/economics"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// DefaultVariations is used when no variation set is configured.
var DefaultVariations = []int{-20, -10, 0, 10, 20}

var referenceBasket = decimal.NewFromInt(constants.ReferenceBasketUnits)

// Axis names the input being varied.
type Axis string

const (
	AxisCost   Axis = "cost"
	AxisPrice  Axis = "price"
	AxisVolume Axis = "volume"
)

// Axes lists the axes in display order.
var Axes = []Axis{AxisCost, AxisPrice, AxisVolume}

// Result is one grid point of an axis.
type Result struct {
	Variation   int
	CoutRevient decimal.Decimal
	SalePrice   decimal.Decimal
	Volume      decimal.Decimal
	Marge       decimal.Decimal
	// MargePercent is undefined when the sale price is zero.
	MargePercent mathutil.OptionalDecimal
	// CA is the revenue of the fixed 100-unit reference basket.
	CA          decimal.Decimal
	Rentabilite decimal.Decimal
	Risk        RiskLevel
}

// Analysis holds one result sequence per axis, in variation order.
type Analysis struct {
	Baseline   economics.UnitEconomics
	Volume     int
	CostAxis   []Result
	PriceAxis  []Result
	VolumeAxis []Result
}

// Axis returns the sequence for axis.
func (a Analysis) Axis(axis Axis) []Result {
	switch axis {
	case AxisCost:
		return a.CostAxis
	case AxisPrice:
		return a.PriceAxis
	case AxisVolume:
		return a.VolumeAxis
	default:
		return nil
	}
}

// Analyze evaluates every variation on the three axes. The baseline must
// match economics.Compute(items, salePrice); a disagreement beyond the
// relative tolerance is reported as invalid input. A nil or empty variation
// set falls back to DefaultVariations.
func Analyze(baseline economics.UnitEconomics, items []economics.CostLineItem, salePrice decimal.Decimal, volume int, variations []int) (Analysis, error) {
	const op = "sensitivity.Analyze"

	if volume < 0 {
		return Analysis{}, calcerr.NewInvalidInput(op, "volume", "must be >= 0, got %d", volume)
	}
	if len(variations) == 0 {
		variations = DefaultVariations
	}
	if err := validateVariations(op, variations); err != nil {
		return Analysis{}, err
	}

	recomputed, err := economics.Compute(items, salePrice)
	if err != nil {
		return Analysis{}, fmt.Errorf("recomputing baseline: %w", err)
	}
	if !sameBaseline(baseline, recomputed) {
		return Analysis{}, calcerr.NewInvalidInput(op, "baseline",
			"does not match the line items: cost %s vs %s, price %s vs %s",
			baseline.CostToProduce, recomputed.CostToProduce, baseline.SalePrice, recomputed.SalePrice)
	}

	units := decimal.NewFromInt(int64(volume))
	analysis := Analysis{
		Baseline:   recomputed,
		Volume:     volume,
		CostAxis:   make([]Result, 0, len(variations)),
		PriceAxis:  make([]Result, 0, len(variations)),
		VolumeAxis: make([]Result, 0, len(variations)),
	}
	for _, v := range variations {
		analysis.CostAxis = append(analysis.CostAxis,
			evaluate(v, mathutil.Vary(recomputed.CostToProduce, v), salePrice, units))
		analysis.PriceAxis = append(analysis.PriceAxis,
			evaluate(v, recomputed.CostToProduce, mathutil.Vary(salePrice, v), units))
		analysis.VolumeAxis = append(analysis.VolumeAxis,
			evaluate(v, recomputed.CostToProduce, salePrice, mathutil.Vary(units, v)))
	}
	return analysis, nil
}

// BreakEvenVolume is the number of units whose margin covers fixedCosts. It
// is undefined when the unit margin is not positive.
func BreakEvenVolume(fixedCosts, unitMargin decimal.Decimal) mathutil.OptionalDecimal {
	if !unitMargin.IsPositive() {
		return mathutil.Undefined()
	}
	return mathutil.Defined(fixedCosts.Div(unitMargin))
}

func evaluate(variation int, cost, price, volume decimal.Decimal) Result {
	unit := economics.FromCost(cost, price)
	return Result{
		Variation:    variation,
		CoutRevient:  unit.CostToProduce,
		SalePrice:    unit.SalePrice,
		Volume:       volume,
		Marge:        unit.Margin,
		MargePercent: unit.MarginPercent,
		CA:           price.Mul(referenceBasket),
		Rentabilite:  unit.Margin.Mul(volume),
		Risk:         Classify(unit.MarginPercent),
	}
}

func validateVariations(op string, variations []int) error {
	seen := make(map[int]struct{}, len(variations))
	for i, v := range variations {
		if v < -constants.PercentageMultiplier {
			return calcerr.NewInvalidInput(op, fmt.Sprintf("variations[%d]", i), "must be >= -100, got %d", v)
		}
		if _, dup := seen[v]; dup {
			return calcerr.NewInvalidInput(op, fmt.Sprintf("variations[%d]", i), "duplicates variation %d", v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func sameBaseline(a, b economics.UnitEconomics) bool {
	if !mathutil.WithinRelative(a.CostToProduce, b.CostToProduce, constants.RelativeTolerance) ||
		!mathutil.WithinRelative(a.SalePrice, b.SalePrice, constants.RelativeTolerance) ||
		!mathutil.WithinRelative(a.Margin, b.Margin, constants.RelativeTolerance) {
		return false
	}
	if a.MarginPercent.Valid != b.MarginPercent.Valid {
		return false
	}
	return !a.MarginPercent.Valid ||
		mathutil.WithinRelative(a.MarginPercent.Value, b.MarginPercent.Value, constants.RelativeTolerance)
}
