package kinet

import (
	"errors"
	"fmt"
)

// Domain errors for simulation runs.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("kinet: invalid state (NaN or Inf detected)")

	// ErrNegativeConcentration indicates a concentration below the negative
	// tolerance, a symptom of step-size or stiffness trouble.
	ErrNegativeConcentration = errors.New("kinet: negative concentration beyond tolerance")

	// ErrMassClosure indicates particulate plus dissolved mass drifted from
	// the initial total beyond tolerance.
	ErrMassClosure = errors.New("kinet: mass closure violated")

	// ErrStepTooSmall indicates the adaptive timestep fell below minimum.
	ErrStepTooSmall = errors.New("kinet: adaptive timestep below minimum")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("kinet: dimension mismatch between state and system")
)

// ConfigError reports invalid static configuration. It is returned eagerly at
// construction time, before any integration is attempted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func Configf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IntegrationError wraps a numerical failure with run context. A run that
// produces one returns no trajectory.
type IntegrationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("integration failed at step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}
