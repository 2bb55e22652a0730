// Package calcerr defines the error kinds shared by the planning engines.
//
// Every engine reports bad arguments with an InvalidInputError, malformed
// tax tables with a ConfigurationError and a solver that ran out of
// iterations with a ConvergenceWarning. Callers branch with errors.Is against
// the exported sentinels or errors.As against the concrete types.
package calcerr

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	// ErrInvalidInput matches any InvalidInputError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration matches any ConfigurationError.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrNotConverged matches any ConvergenceWarning.
	ErrNotConverged = errors.New("solver did not converge")
)

// InvalidInputError rejects an argument before any computation starts.
type InvalidInputError struct {
	Op     string
	Field  string
	Reason string
}

// NewInvalidInput builds an InvalidInputError.
func NewInvalidInput(op, field, format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{Op: op, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, ErrInvalidInput, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s %s", e.Op, ErrInvalidInput, e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConfigurationError reports a configuration table that cannot be used.
// Err usually aggregates several problems.
type ConfigurationError struct {
	Op  string
	Err error
}

// NewConfiguration wraps err in a ConfigurationError, returning nil for a nil err.
func NewConfiguration(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigurationError{Op: op, Err: err}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrConfiguration, e.Err)
}

// Unwrap returns the underlying problems.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ConvergenceWarning is returned next to a partial result when an iterative
// search exhausted its budget. It is not fatal.
type ConvergenceWarning struct {
	Label      string
	Iterations int
	Residual   string
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("%s: scenario %q after %d iterations (residual %s)",
		ErrNotConverged, w.Label, w.Iterations, w.Residual)
}

// Is reports whether target is ErrNotConverged.
func (w *ConvergenceWarning) Is(target error) bool {
	return target == ErrNotConverged
}

// IsWarning reports whether err only carries non-fatal warnings. Every error
// combined into err must be a ConvergenceWarning.
func IsWarning(err error) bool {
	if err == nil {
		return false
	}
	for _, e := range multierr.Errors(err) {
		var warning *ConvergenceWarning
		if !errors.As(e, &warning) {
			return false
		}
	}
	return true
}
