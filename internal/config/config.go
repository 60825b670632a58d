// Package config defines the yaml scenario format and its validation.
//
// Configuration values are immutable once loaded: Build-style consumers copy
// what they need and never write back, so independent runs can share a
// Config safely.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ecotools/fragsim/internal/kinet"
)

const (
	DefaultClasses  = 7
	DefaultMinExp   = -9.0
	DefaultMaxExp   = -3.0
	DefaultDensity  = 1380.0 // PET, kg/m^3
	DefaultFragAvg  = 0.01
	DefaultTheta1   = 0.0
	DefaultDuration = 100.0
)

type Config struct {
	Classes  int       `yaml:"classes"`
	DMinExp  float64   `yaml:"d_min_exp"`
	DMaxExp  float64   `yaml:"d_max_exp"`
	Density  float64   `yaml:"density"`
	// Unit selects the concentration currency the run is carried out in.
	// Initial concentrations are always given as particle numbers; with
	// "mass" they are converted at build time and the trajectory is in
	// mass concentration throughout.
	Unit     string    `yaml:"unit"` // number | mass
	InitConc Broadcast `yaml:"initial_concentration"`

	Kinetics   KineticsConfig `yaml:"kinetics"`
	Fragments  string         `yaml:"fragments"`  // even | cascade
	Integrator string         `yaml:"integrator"` // euler | rk4 | rk45

	Run RunSettings `yaml:"run"`
}

type KineticsConfig struct {
	FragAvg        float64 `yaml:"k_frag_avg"`
	Theta1         float64 `yaml:"theta1"`
	DissAvg        float64 `yaml:"k_diss_avg"`
	Gamma          float64 `yaml:"gamma"`
	Dissolution    string  `yaml:"dissolution"` // constant | surface_area
	SmallestIsSink bool    `yaml:"smallest_is_sink"`
}

type RunSettings struct {
	Dt        float64 `yaml:"dt"`
	Duration  float64 `yaml:"duration"`
	Tolerance float64 `yaml:"tolerance"`
	MaxDt     float64 `yaml:"max_dt"`
	MinDt     float64 `yaml:"min_dt"`
	Adaptive  bool    `yaml:"adaptive"`
}

// Broadcast is a per-class value list that also accepts a single scalar in
// yaml, in which case the scalar is broadcast to every class at build time.
type Broadcast []float64

func (b *Broadcast) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := value.Decode(&v); err != nil {
			return err
		}
		*b = Broadcast{v}
	case yaml.SequenceNode:
		var vs []float64
		if err := value.Decode(&vs); err != nil {
			return err
		}
		*b = Broadcast(vs)
	default:
		return fmt.Errorf("initial_concentration: expected scalar or sequence")
	}
	return nil
}

// Resolve expands the broadcast form to exactly classes values.
func (b Broadcast) Resolve(classes int) ([]float64, error) {
	switch len(b) {
	case 1:
		out := make([]float64, classes)
		for i := range out {
			out[i] = b[0]
		}
		return out, nil
	case classes:
		out := make([]float64, classes)
		copy(out, b)
		return out, nil
	default:
		return nil, kinet.Configf("initial_concentration",
			"got %d values for %d classes (use one scalar to broadcast)", len(b), classes)
	}
}

func DefaultConfig() *Config {
	return &Config{
		Classes:  DefaultClasses,
		DMinExp:  DefaultMinExp,
		DMaxExp:  DefaultMaxExp,
		Density:  DefaultDensity,
		Unit:     "number",
		InitConc: Broadcast{42},
		Kinetics: KineticsConfig{
			FragAvg:     DefaultFragAvg,
			Theta1:      DefaultTheta1,
			Dissolution: "constant",
		},
		Fragments:  "even",
		Integrator: "rk45",
		Run: RunSettings{
			Dt:        1,
			Duration:  DefaultDuration,
			Tolerance: 1e-8,
			MaxDt:     1,
			MinDt:     1e-10,
			Adaptive:  true,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything that can be checked before model construction.
// Errors are surfaced here, eagerly, never corrected in place.
func (c *Config) Validate() error {
	if c.Classes < 1 {
		return kinet.Configf("classes", "need at least 1 size class, got %d", c.Classes)
	}
	if c.DMinExp >= c.DMaxExp {
		return kinet.Configf("diameter range", "d_min_exp %g must be below d_max_exp %g", c.DMinExp, c.DMaxExp)
	}
	if c.Density <= 0 {
		return kinet.Configf("density", "must be positive, got %g", c.Density)
	}
	switch c.Unit {
	case "number", "mass":
	default:
		return kinet.Configf("unit", "must be %q or %q, got %q", "number", "mass", c.Unit)
	}
	for i, v := range c.InitConc {
		if v < 0 {
			return kinet.Configf("initial_concentration", "value %d is negative: %g", i, v)
		}
	}
	if len(c.InitConc) != 1 && len(c.InitConc) != c.Classes {
		return kinet.Configf("initial_concentration",
			"got %d values for %d classes (use one scalar to broadcast)", len(c.InitConc), c.Classes)
	}

	k := c.Kinetics
	if k.FragAvg < 0 {
		return kinet.Configf("kinetics.k_frag_avg", "must be non-negative, got %g", k.FragAvg)
	}
	if k.Theta1 < 0 || k.Theta1 > 0.5 {
		return kinet.Configf("kinetics.theta1", "must lie in [0, 0.5], got %g", k.Theta1)
	}
	if k.DissAvg < 0 {
		return kinet.Configf("kinetics.k_diss_avg", "must be non-negative, got %g", k.DissAvg)
	}
	if k.Gamma < 0 {
		return kinet.Configf("kinetics.gamma", "must be non-negative, got %g", k.Gamma)
	}
	switch k.Dissolution {
	case "constant", "surface_area":
	default:
		return kinet.Configf("kinetics.dissolution", "must be %q or %q, got %q", "constant", "surface_area", k.Dissolution)
	}

	switch c.Fragments {
	case "even", "cascade":
	default:
		return kinet.Configf("fragments", "must be %q or %q, got %q", "even", "cascade", c.Fragments)
	}
	switch c.Integrator {
	case "euler", "rk4", "rk45":
	default:
		return kinet.Configf("integrator", "unknown integrator %q", c.Integrator)
	}

	if c.Run.Dt <= 0 {
		return kinet.Configf("run.dt", "must be positive, got %g", c.Run.Dt)
	}
	if c.Run.Duration <= 0 {
		return kinet.Configf("run.duration", "must be positive, got %g", c.Run.Duration)
	}
	if c.Run.Adaptive && c.Run.Tolerance <= 0 {
		return kinet.Configf("run.tolerance", "must be positive for adaptive stepping, got %g", c.Run.Tolerance)
	}
	return nil
}

// RunConfig maps the run settings onto the driver configuration.
func (c *Config) RunConfig() kinet.RunConfig {
	rc := kinet.DefaultRunConfig()
	rc.Dt = c.Run.Dt
	rc.Duration = c.Run.Duration
	rc.Tolerance = c.Run.Tolerance
	rc.MaxDt = c.Run.MaxDt
	rc.MinDt = c.Run.MinDt
	rc.Adaptive = c.Run.Adaptive
	return rc
}
