package sensitivity

import (
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// RiskLevel classifies a margin percentage.
type RiskLevel string

const (
	RiskOptimal    RiskLevel = "optimal"
	RiskAcceptable RiskLevel = "acceptable"
	RiskLimite     RiskLevel = "limite"
	RiskDeficit    RiskLevel = "deficit"
	// RiskUnknown is used when the margin percentage is undefined.
	RiskUnknown RiskLevel = "unknown"
)

// Threshold maps every margin percentage at or above Min to Level.
type Threshold struct {
	Min   decimal.Decimal
	Level RiskLevel
}

// RiskThresholds is ordered from the highest minimum down. Margins below the
// last minimum are RiskDeficit.
var RiskThresholds = []Threshold{
	{Min: decimal.NewFromInt(30), Level: RiskOptimal},
	{Min: decimal.NewFromInt(15), Level: RiskAcceptable},
	{Min: decimal.Zero, Level: RiskLimite},
}

// Classify returns the risk level of a margin percentage.
func Classify(marginPercent mathutil.OptionalDecimal) RiskLevel {
	return ClassifyWith(RiskThresholds, marginPercent)
}

// ClassifyWith classifies against a custom threshold table ordered from the
// highest minimum down.
func ClassifyWith(thresholds []Threshold, marginPercent mathutil.OptionalDecimal) RiskLevel {
	value, ok := marginPercent.Get()
	if !ok {
		return RiskUnknown
	}
	for _, threshold := range thresholds {
		if value.GreaterThanOrEqual(threshold.Min) {
			return threshold.Level
		}
	}
	return RiskDeficit
}
