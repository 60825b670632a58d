// Package units converts between particle-number and particle-mass
// concentration for spherical particles of known density.
//
// The mass-balance ODE is unit-agnostic: rates act multiplicatively, so a
// run is conserved in whichever currency the caller picks, as long as the
// initial concentrations and the trajectory are read in the same one.
package units

import (
	"github.com/ecotools/fragsim/internal/kinet"
	"github.com/ecotools/fragsim/internal/sizeclass"
)

// Converter maps concentrations between number and mass currency per size
// class: mass = number * particle volume * density.
type Converter struct {
	density float64 // kg/m^3
	volumes []float64
}

func NewConverter(grid *sizeclass.Grid, density float64) (*Converter, error) {
	if density <= 0 {
		return nil, kinet.Configf("density", "must be positive, got %g", density)
	}
	return &Converter{density: density, volumes: grid.Volumes()}, nil
}

// MassOf returns the mass concentration for a number concentration in class k.
func (c *Converter) MassOf(k int, number float64) float64 {
	return number * c.volumes[k] * c.density
}

// NumberOf returns the number concentration for a mass concentration in class k.
func (c *Converter) NumberOf(k int, mass float64) float64 {
	return mass / (c.volumes[k] * c.density)
}

// NumberToMass converts a full per-class vector.
func (c *Converter) NumberToMass(number []float64) ([]float64, error) {
	if len(number) != len(c.volumes) {
		return nil, kinet.Configf("concentration", "got %d values for %d classes", len(number), len(c.volumes))
	}
	out := make([]float64, len(number))
	for k, n := range number {
		out[k] = c.MassOf(k, n)
	}
	return out, nil
}

// MassToNumber converts a full per-class vector.
func (c *Converter) MassToNumber(mass []float64) ([]float64, error) {
	if len(mass) != len(c.volumes) {
		return nil, kinet.Configf("concentration", "got %d values for %d classes", len(mass), len(c.volumes))
	}
	out := make([]float64, len(mass))
	for k, m := range mass {
		out[k] = c.NumberOf(k, m)
	}
	return out, nil
}
