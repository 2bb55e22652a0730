// Package economics computes per-product unit economics from the cost line
// items of a recipe: cost to produce, unit margin and margin percentage.
package economics

import (
	"fmt"

	"github.com/iwvelando/finance-planner/pkg/calcerr"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Kind classifies a cost line item.
type Kind string

const (
	KindIngredient   Kind = "ingredient"
	KindPackaging    Kind = "packaging"
	KindVariableCost Kind = "variable_cost"
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{KindIngredient, KindPackaging, KindVariableCost}

// ParseKind returns the Kind matching value.
func ParseKind(value string) (Kind, error) {
	for _, kind := range Kinds {
		if string(kind) == value {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown cost kind %q", value)
}

// CostLineItem is one costed input of a product.
type CostLineItem struct {
	Name     string
	Kind     Kind
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
	// VATRate is a percentage, e.g. 5.5.
	VATRate decimal.Decimal
}

// Total returns quantity * unit cost.
func (item CostLineItem) Total() decimal.Decimal {
	return item.Quantity.Mul(item.UnitCost)
}

// UnitEconomics is the derived cost and margin of one unit of a product.
type UnitEconomics struct {
	CostToProduce decimal.Decimal
	SalePrice     decimal.Decimal
	Margin        decimal.Decimal
	// MarginPercent is undefined when SalePrice is zero.
	MarginPercent mathutil.OptionalDecimal
}

// Equal reports whether two results hold the same figures.
func (u UnitEconomics) Equal(other UnitEconomics) bool {
	return u.CostToProduce.Equal(other.CostToProduce) &&
		u.SalePrice.Equal(other.SalePrice) &&
		u.Margin.Equal(other.Margin) &&
		u.MarginPercent.Equal(other.MarginPercent)
}

// Compute derives the unit economics of a product. The items slice is copied
// before use so later changes by the caller cannot affect the result.
func Compute(items []CostLineItem, salePrice decimal.Decimal) (UnitEconomics, error) {
	snapshot := Snapshot(items)
	if err := validate("economics.Compute", snapshot, salePrice); err != nil {
		return UnitEconomics{}, err
	}

	cost := decimal.Zero
	for _, item := range snapshot {
		cost = cost.Add(item.Total())
	}
	return FromCost(cost, salePrice), nil
}

// ComputeRequired behaves like Compute but rejects an empty recipe.
func ComputeRequired(items []CostLineItem, salePrice decimal.Decimal) (UnitEconomics, error) {
	if len(items) == 0 {
		return UnitEconomics{}, calcerr.NewInvalidInput("economics.ComputeRequired", "items", "cannot be empty")
	}
	return Compute(items, salePrice)
}

// FromCost builds unit economics from an already known cost to produce.
func FromCost(cost, salePrice decimal.Decimal) UnitEconomics {
	margin := salePrice.Sub(cost)
	return UnitEconomics{
		CostToProduce: cost,
		SalePrice:     salePrice,
		Margin:        margin,
		MarginPercent: mathutil.Percentage(margin, salePrice),
	}
}

// Snapshot returns a copy of items.
func Snapshot(items []CostLineItem) []CostLineItem {
	if items == nil {
		return nil
	}
	snapshot := make([]CostLineItem, len(items))
	copy(snapshot, items)
	return snapshot
}

// CostByKind totals the cost of items per kind. Every kind is present in the
// result, zero when unused.
func CostByKind(items []CostLineItem) (map[Kind]decimal.Decimal, error) {
	if err := validate("economics.CostByKind", items, decimal.Zero); err != nil {
		return nil, err
	}
	totals := make(map[Kind]decimal.Decimal, len(Kinds))
	for _, kind := range Kinds {
		totals[kind] = decimal.Zero
	}
	for _, item := range items {
		totals[item.Kind] = totals[item.Kind].Add(item.Total())
	}
	return totals, nil
}

func validate(op string, items []CostLineItem, salePrice decimal.Decimal) error {
	if salePrice.IsNegative() {
		return calcerr.NewInvalidInput(op, "salePrice", "must be >= 0, got %s", salePrice)
	}
	for i, item := range items {
		if item.Quantity.IsNegative() {
			return calcerr.NewInvalidInput(op, fmt.Sprintf("items[%d].quantity", i), "must be >= 0, got %s", item.Quantity)
		}
		if item.UnitCost.IsNegative() {
			return calcerr.NewInvalidInput(op, fmt.Sprintf("items[%d].unitCost", i), "must be >= 0, got %s", item.UnitCost)
		}
		if item.VATRate.IsNegative() {
			return calcerr.NewInvalidInput(op, fmt.Sprintf("items[%d].vatRate", i), "must be >= 0, got %s", item.VATRate)
		}
		if _, err := ParseKind(string(item.Kind)); err != nil {
			return calcerr.NewInvalidInput(op, fmt.Sprintf("items[%d].kind", i), "%v", err)
		}
	}
	return nil
}
