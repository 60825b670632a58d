// Package sim drives the numerical integration of a particle-kinetics system
// over a fixed output grid and enforces the physical invariants of the
// result.
package sim

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ecotools/fragsim/internal/kinet"
)

// ClassSystem is an ODE system whose leading components are per-class
// concentrations; the remaining components (if any) are bookkeeping such as
// cumulative dissolved mass.
type ClassSystem interface {
	kinet.System
	Classes() int
}

type Simulator struct {
	sys       ClassSystem
	integ     kinet.Integrator
	metrics   []kinet.Metric
	observers []kinet.Observer
}

func New(sys ClassSystem, integ kinet.Integrator) *Simulator {
	return &Simulator{
		sys:   sys,
		integ: integ,
	}
}

func (s *Simulator) AddMetric(m kinet.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o kinet.Observer) { s.observers = append(s.observers, o) }

// Run integrates from the per-class initial concentrations c0 over
// [0, cfg.Duration] and records the state at every cfg.Dt. A run that fails
// any invariant returns no trajectory.
func (s *Simulator) Run(ctx context.Context, c0 []float64, cfg kinet.RunConfig) (*Trajectory, error) {
	if err := validateRun(s.sys, c0, cfg); err != nil {
		return nil, err
	}

	classes := s.sys.Classes()
	steps := int(math.Round(cfg.Duration / cfg.Dt))
	tr := &Trajectory{
		times:     make([]float64, 0, steps+1),
		conc:      make([][]float64, 0, steps+1),
		dissolved: make([]float64, 0, steps+1),
		metrics:   make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := make(kinet.State, s.sys.Dim())
	copy(x, c0)
	total0 := floats.Sum(c0)

	s.record(tr, x, 0)
	s.observe(x, 0)

	h := cfg.Dt
	if cfg.Adaptive && cfg.MaxDt > 0 {
		h = math.Min(h, cfg.MaxDt)
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		target := float64(i+1) * cfg.Dt

		var err error
		if adaptive, ok := s.integ.(kinet.AdaptiveIntegrator); ok && cfg.Adaptive {
			x, h, err = s.advanceAdaptive(adaptive, x, t, target, h, cfg)
		} else {
			x = s.integ.Step(s.sys, x, t, cfg.Dt)
		}
		if err != nil {
			return nil, &kinet.IntegrationError{Step: i + 1, Time: target, Wrapped: err}
		}

		if err := checkInvariants(x, classes, total0, cfg); err != nil {
			return nil, &kinet.IntegrationError{Step: i + 1, Time: target, Wrapped: err}
		}

		s.record(tr, x, target)
		s.observe(x, target)
	}

	for _, m := range s.metrics {
		tr.metrics[m.Name()] = m.Value()
	}

	return tr, nil
}

// advanceAdaptive substeps from t to target with error control, clipping the
// final substep onto the output grid point. The returned step size seeds the
// next interval.
func (s *Simulator) advanceAdaptive(integ kinet.AdaptiveIntegrator, x kinet.State, t, target, h float64, cfg kinet.RunConfig) (kinet.State, float64, error) {
	minDt := cfg.MinDt
	if minDt <= 0 {
		minDt = 1e-12
	}
	for t < target {
		clipped := false
		if h > target-t {
			h = target - t
			clipped = true
		}

		xNew, hNext, err := integ.StepAdaptive(s.sys, x, t, h, cfg.Tolerance)
		if err != nil {
			return nil, h, err
		}

		// A proposal below the safety fraction of the attempted step means
		// the local error exceeded tolerance: retry smaller.
		if hNext < 0.9*h {
			if hNext < minDt {
				return nil, h, kinet.ErrStepTooSmall
			}
			h = hNext
			continue
		}

		x = xNew
		t += h
		if !clipped {
			h = hNext
		}
		if cfg.MaxDt > 0 {
			h = math.Min(h, cfg.MaxDt)
		}
	}
	return x, h, nil
}

func (s *Simulator) record(tr *Trajectory, x kinet.State, t float64) {
	classes := s.sys.Classes()
	c := make([]float64, classes)
	copy(c, x[:classes])

	dissolved := 0.0
	if len(x) > classes {
		dissolved = x[classes]
	}

	tr.times = append(tr.times, t)
	tr.conc = append(tr.conc, c)
	tr.dissolved = append(tr.dissolved, dissolved)
}

func (s *Simulator) observe(x kinet.State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, o := range s.observers {
		o.OnStep(x, t)
	}
}

func validateRun(sys ClassSystem, c0 []float64, cfg kinet.RunConfig) error {
	if cfg.Dt <= 0 {
		return kinet.Configf("dt", "must be positive, got %g", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return kinet.Configf("duration", "must be positive, got %g", cfg.Duration)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return kinet.Configf("tolerance", "must be positive for adaptive stepping, got %g", cfg.Tolerance)
	}
	if r := cfg.Duration / cfg.Dt; math.Abs(r-math.Round(r)) > 1e-9 {
		return kinet.Configf("duration", "%g is not a whole multiple of dt %g", cfg.Duration, cfg.Dt)
	}
	if len(c0) != sys.Classes() {
		return fmt.Errorf("%w: got %d initial values for %d classes",
			kinet.ErrDimensionMismatch, len(c0), sys.Classes())
	}
	for k, v := range c0 {
		if v < 0 {
			return kinet.Configf("initial concentration", "class %d is negative: %g", k, v)
		}
	}
	return nil
}

// checkInvariants rejects states that are unphysical beyond numerical
// tolerance. Values are never silently corrected.
func checkInvariants(x kinet.State, classes int, total0 float64, cfg kinet.RunConfig) error {
	if cfg.ValidateState && !x.IsValid() {
		return kinet.ErrInvalidState
	}

	if x[:classes].Min() < -cfg.NegTol {
		return kinet.ErrNegativeConcentration
	}

	if cfg.ClosureTol > 0 && len(x) > classes {
		total := floats.Sum([]float64(x[:classes])) + x[classes]
		scale := math.Max(math.Abs(total0), 1)
		if math.Abs(total-total0) > cfg.ClosureTol*scale {
			return kinet.ErrMassClosure
		}
	}
	return nil
}
