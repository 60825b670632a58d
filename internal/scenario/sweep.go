package scenario

import (
	"context"

	"github.com/ecotools/fragsim/internal/config"
	"github.com/ecotools/fragsim/internal/kinet"
	"github.com/ecotools/fragsim/internal/sim"
)

// Sweep runs a scenario once per point of a cartesian parameter grid.
// Every point builds its own scenario from a copy of the base config, so the
// runs share no mutable state and execute in parallel.
type Sweep struct {
	params []string
	values [][]float64
}

// SweepResult pairs one grid point with its trajectory.
type SweepResult struct {
	Params     map[string]float64
	Trajectory *sim.Trajectory
}

// NewSweep declares a grid over named kinetic parameters. Supported names:
// theta1, k_frag_avg, k_diss_avg, gamma.
func NewSweep(params []string, values [][]float64) (*Sweep, error) {
	if len(params) != len(values) {
		return nil, kinet.Configf("sweep", "%d parameter names for %d value lists", len(params), len(values))
	}
	for i, name := range params {
		if !knownParam(name) {
			return nil, kinet.Configf("sweep", "unknown parameter %q", name)
		}
		if len(values[i]) == 0 {
			return nil, kinet.Configf("sweep", "parameter %q has no values", name)
		}
	}
	return &Sweep{params: params, values: values}, nil
}

func knownParam(name string) bool {
	switch name {
	case "theta1", "k_frag_avg", "k_diss_avg", "gamma":
		return true
	}
	return false
}

// Expand returns every grid point in deterministic order.
func (s *Sweep) Expand() []map[string]float64 {
	points := []map[string]float64{{}}
	for i, name := range s.params {
		next := make([]map[string]float64, 0, len(points)*len(s.values[i]))
		for _, p := range points {
			for _, v := range s.values[i] {
				q := make(map[string]float64, len(p)+1)
				for k, pv := range p {
					q[k] = pv
				}
				q[name] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Run executes the sweep against a base configuration. The base is never
// mutated; each point gets its own copy.
func (s *Sweep) Run(ctx context.Context, base *config.Config) ([]SweepResult, error) {
	points := s.Expand()

	jobs := make([]sim.Job, len(points))
	for i, p := range points {
		cfg := *base
		for name, v := range p {
			applyParam(&cfg, name, v)
		}

		sc, err := Build(&cfg)
		if err != nil {
			return nil, err
		}
		integ, err := NewIntegrator(cfg.Integrator)
		if err != nil {
			return nil, err
		}
		jobs[i] = sim.Job{
			Sys:   sc.System(),
			Integ: integ,
			Init:  sc.init,
			Cfg:   cfg.RunConfig(),
		}
	}

	trajectories, err := sim.RunBatch(ctx, jobs)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(points))
	for i := range points {
		results[i] = SweepResult{Params: points[i], Trajectory: trajectories[i]}
	}
	return results, nil
}

func applyParam(cfg *config.Config, name string, v float64) {
	switch name {
	case "theta1":
		cfg.Kinetics.Theta1 = v
	case "k_frag_avg":
		cfg.Kinetics.FragAvg = v
	case "k_diss_avg":
		cfg.Kinetics.DissAvg = v
	case "gamma":
		cfg.Kinetics.Gamma = v
	}
}
