package scenario

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ecotools/fragsim/internal/config"
	"github.com/ecotools/fragsim/internal/kinet"
)

func baseConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Classes = 3
	cfg.Run.Duration = 50
	return cfg
}

func TestBuildAndRun(t *testing.T) {
	sc, err := Build(baseConfig())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	tr, err := sc.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if tr.Len() != 51 {
		t.Errorf("expected 51 grid points, got %d", tr.Len())
	}
	if tr.Classes() != 3 {
		t.Errorf("expected 3 classes, got %d", tr.Classes())
	}

	// Default config has no dissolution: total stays at 3*42.
	for i := 0; i < tr.Len(); i++ {
		if math.Abs(tr.Total(i)-126) > 1e-6 {
			t.Errorf("t=%g: total drifted to %g", tr.Time(i), tr.Total(i))
		}
	}

	drift, ok := tr.Metrics()["mass_closure_drift"]
	if !ok {
		t.Fatal("closure metric missing")
	}
	if drift > 1e-9 {
		t.Errorf("closure drift too large: %g", drift)
	}
	if tr.Metrics()["non_negativity"] != 1 {
		t.Errorf("expected clean non-negativity, got %g", tr.Metrics()["non_negativity"])
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Kinetics.Theta1 = 0.9

	_, err := Build(cfg)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var cfgErr *kinet.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %T", err)
	}
}

func TestBuildIndependentInstances(t *testing.T) {
	cfg := baseConfig()

	a, err := Build(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	b, err := Build(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	trA, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("run a failed: %v", err)
	}
	trB, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("run b failed: %v", err)
	}

	last := trA.Len() - 1
	for k := 0; k < trA.Classes(); k++ {
		if trA.Concentration(last, k) != trB.Concentration(last, k) {
			t.Errorf("identical configs must give identical runs, class %d: %g vs %g",
				k, trA.Concentration(last, k), trB.Concentration(last, k))
		}
	}
}

func TestNewIntegratorUnknown(t *testing.T) {
	if _, err := NewIntegrator("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestIntegratorsListed(t *testing.T) {
	names := Integrators()
	want := []string{"euler", "rk4", "rk45"}
	if len(names) != len(want) {
		t.Fatalf("expected %d integrators, got %v", len(want), names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("position %d: got %q, want %q", i, names[i], name)
		}
		if _, err := NewIntegrator(name); err != nil {
			t.Errorf("listed integrator %q does not build: %v", name, err)
		}
	}
}

func TestBuildMassCurrency(t *testing.T) {
	num := baseConfig()
	mass := baseConfig()
	mass.Unit = "mass"

	scNum, err := Build(num)
	if err != nil {
		t.Fatalf("build number: %v", err)
	}
	scMass, err := Build(mass)
	if err != nil {
		t.Fatalf("build mass: %v", err)
	}

	trNum, err := scNum.Run(context.Background())
	if err != nil {
		t.Fatalf("run number: %v", err)
	}
	trMass, err := scMass.Run(context.Background())
	if err != nil {
		t.Fatalf("run mass: %v", err)
	}

	// The initial numbers are converted per class at build time.
	for k := 0; k < trMass.Classes(); k++ {
		want := scMass.Converter().MassOf(k, trNum.Concentration(0, k))
		got := trMass.Concentration(0, k)
		if math.Abs(got-want) > 1e-12*math.Abs(want) {
			t.Errorf("class %d initial mass: got %g, want %g", k, got, want)
		}
	}

	// Conservation holds in mass currency too.
	if drift := trMass.Metrics()["mass_closure_drift"]; drift > 1e-9 {
		t.Errorf("mass-currency closure drift too large: %g", drift)
	}
}

func TestSweepExpand(t *testing.T) {
	sw, err := NewSweep([]string{"theta1", "k_frag_avg"}, [][]float64{{0, 0.25, 0.5}, {0.01, 0.02}})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	points := sw.Expand()
	if len(points) != 6 {
		t.Fatalf("expected 6 grid points, got %d", len(points))
	}
	if points[0]["theta1"] != 0 || points[0]["k_frag_avg"] != 0.01 {
		t.Errorf("unexpected first point: %v", points[0])
	}
	if points[5]["theta1"] != 0.5 || points[5]["k_frag_avg"] != 0.02 {
		t.Errorf("unexpected last point: %v", points[5])
	}
}

func TestSweepRun(t *testing.T) {
	sw, err := NewSweep([]string{"k_diss_avg"}, [][]float64{{0, 0.001, 0.01}})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	results, err := sw.Run(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("sweep run failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// More dissolution leaves less particulate mass.
	for i := 1; i < len(results); i++ {
		prev := results[i-1].Trajectory
		cur := results[i].Trajectory
		last := cur.Len() - 1
		if cur.Total(last) >= prev.Total(last) {
			t.Errorf("result %d should end below result %d", i, i-1)
		}
	}
}

func TestSweepInvalid(t *testing.T) {
	if _, err := NewSweep([]string{"theta1"}, [][]float64{}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := NewSweep([]string{"viscosity"}, [][]float64{{1}}); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if _, err := NewSweep([]string{"gamma"}, [][]float64{{}}); err == nil {
		t.Error("expected error for empty values")
	}
}
