package kinet

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Min returns the smallest component, 0 for an empty state.
func (s State) Min() float64 {
	if len(s) == 0 {
		return 0
	}
	min := s[0]
	for _, v := range s[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// System is an autonomous ODE right-hand side. Derive must be pure: the same
// state and time always yield the same derivative. The time argument exists
// only for integrator compatibility; mass-balance coefficients do not depend
// on it.
type System interface {
	Derive(x State, t float64) State
	Dim() int
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

// AdaptiveIntegrator additionally estimates local error and proposes the next
// step size.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

// RunConfig holds per-run integration settings. Dt is the output grid
// spacing; adaptive integrators substep freely inside each output interval.
type RunConfig struct {
	Dt            float64
	Duration      float64
	Tolerance     float64
	MaxDt         float64
	MinDt         float64
	Adaptive      bool
	ValidateState bool

	// NegTol is the tolerance below zero a concentration may reach before
	// the run is rejected as unphysical.
	NegTol float64
	// ClosureTol bounds the allowed drift of total mass plus dissolved mass
	// relative to the initial total. Zero disables the check.
	ClosureTol float64
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Dt:            1.0,
		Duration:      100.0,
		Tolerance:     1e-8,
		MaxDt:         1.0,
		MinDt:         1e-10,
		Adaptive:      true,
		ValidateState: true,
		NegTol:        1e-9,
		ClosureTol:    1e-6,
	}
}
