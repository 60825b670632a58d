package integrators

import "github.com/ecotools/fragsim/internal/kinet"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys kinet.System, x kinet.State, t, dt float64) kinet.State {
	dx := sys.Derive(x, t)
	result := make(kinet.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
