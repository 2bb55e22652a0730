package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/sensitivity"
	"go.uber.org/multierr"
)

const (
	ContributionKindFlat   = "flat"
	ContributionKindTiered = "tiered"
)

// TaxConfig holds the progressive income tax table and the social
// contribution settings.
type TaxConfig struct {
	Brackets      []BracketConfig     `yaml:"brackets" mapstructure:"brackets"`
	Contributions ContributionsConfig `yaml:"contributions,omitempty" mapstructure:"contributions"`
}

// BracketConfig is one slice of a progressive table. A nil Upper means the
// slice is unbounded. Rate is a percentage.
type BracketConfig struct {
	Lower float64  `yaml:"lower" mapstructure:"lower"`
	Upper *float64 `yaml:"upper,omitempty" mapstructure:"upper"`
	Rate  float64  `yaml:"rate" mapstructure:"rate"`
}

// ContributionsConfig selects a flat contribution rate or a tiered table.
type ContributionsConfig struct {
	Kind     string          `yaml:"kind,omitempty" mapstructure:"kind"`
	Rate     *float64        `yaml:"rate,omitempty" mapstructure:"rate"`
	Brackets []BracketConfig `yaml:"brackets,omitempty" mapstructure:"brackets"`
}

// SolverConfig bounds the revenue search.
type SolverConfig struct {
	Tolerance     float64 `yaml:"tolerance,omitempty" mapstructure:"tolerance"`
	MaxIterations int     `yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
}

// Normalize ensures defaults and canonical values are applied before validation.
func (t *TaxConfig) Normalize() {
	if t == nil {
		return
	}
	t.Contributions.Kind = strings.ToLower(strings.TrimSpace(t.Contributions.Kind))
	if t.Contributions.Kind == "" {
		if len(t.Contributions.Brackets) > 0 {
			t.Contributions.Kind = ContributionKindTiered
		} else {
			t.Contributions.Kind = ContributionKindFlat
		}
	}
	if t.Contributions.Kind == ContributionKindFlat && t.Contributions.Rate == nil {
		rate := constants.DefaultContributionRate
		t.Contributions.Rate = &rate
	}
}

// Validate returns an error when the tax configuration is unsupported. The
// bracket tables themselves are checked when they are converted.
func (t *TaxConfig) Validate() error {
	if t == nil {
		return fmt.Errorf("tax configuration cannot be nil")
	}

	var errs error
	if len(t.Brackets) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("tax requires at least one bracket"))
	}
	switch t.Contributions.Kind {
	case ContributionKindFlat:
		if t.Contributions.Rate == nil {
			errs = multierr.Append(errs, fmt.Errorf("flat contributions require a rate"))
		}
	case ContributionKindTiered:
		if len(t.Contributions.Brackets) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("tiered contributions require brackets"))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("contribution kind %q is not supported", t.Contributions.Kind))
	}
	return errs
}

// Normalize ensures defaults are applied before validation.
func (s *SolverConfig) Normalize() {
	if s == nil {
		return
	}
	if s.Tolerance <= 0 {
		s.Tolerance = constants.DefaultSolverTolerance
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = constants.DefaultSolverMaxIterations
	}
}

// Validate returns an error when the solver configuration is unusable.
func (s *SolverConfig) Validate() error {
	if s == nil {
		return fmt.Errorf("solver configuration cannot be nil")
	}
	if s.Tolerance <= 0 {
		return fmt.Errorf("solver tolerance %.4f must be positive", s.Tolerance)
	}
	if s.MaxIterations <= 0 {
		return fmt.Errorf("solver maxIterations %d must be positive", s.MaxIterations)
	}
	return nil
}

// Normalize applies the default variation set.
func (s *SensitivityConfig) Normalize() {
	if s == nil {
		return
	}
	if len(s.Variations) == 0 {
		s.Variations = append([]int(nil), sensitivity.DefaultVariations...)
	}
}
