package scenario

import (
	"sort"

	"github.com/ecotools/fragsim/internal/integrators"
	"github.com/ecotools/fragsim/internal/kinet"
)

var integratorBuilders = map[string]func() kinet.Integrator{
	"euler": func() kinet.Integrator { return integrators.NewEuler() },
	"rk4":   func() kinet.Integrator { return integrators.NewRK4() },
	"rk45":  func() kinet.Integrator { return integrators.NewRK45() },
}

// NewIntegrator builds a fresh integrator by name. Each scenario gets its
// own instance; integrators keep scratch state and must not be shared
// between concurrent runs.
func NewIntegrator(name string) (kinet.Integrator, error) {
	fn, ok := integratorBuilders[name]
	if !ok {
		return nil, kinet.Configf("integrator", "unknown integrator %q", name)
	}
	return fn(), nil
}

// Integrators lists the registered integrator names, sorted.
func Integrators() []string {
	names := make([]string, 0, len(integratorBuilders))
	for name := range integratorBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
