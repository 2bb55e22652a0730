// Package constants provides shared constants for the finance-planner application.
package constants

// DateTimeLayout is the month format expected in plan files and is also the
// output month label format.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPlaces is the number of places used when rounding currency
	DecimalPlaces = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100

	// ReferenceBasketUnits is the fixed number of units used for the
	// comparable "CA per 100 units" figure in sensitivity tables.
	ReferenceBasketUnits = 100

	// RelativeTolerance bounds the drift allowed between a recomputed
	// baseline and the one supplied by a caller.
	RelativeTolerance = 1e-6
)

// Solver defaults
const (
	// DefaultSolverTolerance is the accepted gap between the reached and the
	// target net income, in currency units.
	DefaultSolverTolerance = 1.0

	// DefaultSolverMaxIterations caps bracketing plus bisection steps.
	DefaultSolverMaxIterations = 200

	// DefaultContributionRate is the flat social contribution rate in percent.
	DefaultContributionRate = 20.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default plan file name
	DefaultConfigFile = "plan.yaml"

	// ExampleConfigFile is the example plan file name
	ExampleConfigFile = "plan.yaml.example"
)
