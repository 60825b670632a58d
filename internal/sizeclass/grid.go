// Package sizeclass discretizes particle diameter into ordered size classes.
//
// Classes are ordered coarsest to finest: index 0 carries the largest
// diameter. All downstream packages rely on this ordering.
package sizeclass

import (
	"math"

	"github.com/ecotools/fragsim/internal/kinet"
)

// Grid is the discretized diameter axis with derived spherical geometry per
// class. Diameters are log-spaced (geometric progression) and strictly
// decreasing. A Grid is immutable after construction.
type Grid struct {
	diameters    []float64 // m, coarsest first
	volumes      []float64 // m^3, (pi/6) d^3
	surfaceAreas []float64 // m^2, pi d^2
}

// New builds a grid of k classes with diameters log-spaced between
// 10^minExp and 10^maxExp metres. With k == 1 the single class sits at the
// coarse endpoint.
func New(k int, minExp, maxExp float64) (*Grid, error) {
	if k < 1 {
		return nil, kinet.Configf("classes", "need at least 1 size class, got %d", k)
	}
	if minExp >= maxExp {
		return nil, kinet.Configf("diameter range", "min exponent %g must be below max exponent %g", minExp, maxExp)
	}

	g := &Grid{
		diameters:    make([]float64, k),
		volumes:      make([]float64, k),
		surfaceAreas: make([]float64, k),
	}

	step := 0.0
	if k > 1 {
		step = (minExp - maxExp) / float64(k-1)
	}
	for i := 0; i < k; i++ {
		d := math.Pow(10, maxExp+float64(i)*step)
		g.diameters[i] = d
		g.volumes[i] = math.Pi / 6 * d * d * d
		g.surfaceAreas[i] = math.Pi * d * d
	}
	return g, nil
}

func (g *Grid) Classes() int { return len(g.diameters) }

// Diameter returns the representative diameter of class k in metres.
func (g *Grid) Diameter(k int) float64 { return g.diameters[k] }

// Volume returns the spherical particle volume of class k in m^3.
func (g *Grid) Volume(k int) float64 { return g.volumes[k] }

// SurfaceArea returns the spherical particle surface area of class k in m^2.
func (g *Grid) SurfaceArea(k int) float64 { return g.surfaceAreas[k] }

// SurfaceToVolume returns the surface-to-volume ratio 6/d of class k.
func (g *Grid) SurfaceToVolume(k int) float64 { return 6 / g.diameters[k] }

// Diameters returns a copy of the diameter sequence, coarsest first.
func (g *Grid) Diameters() []float64 {
	out := make([]float64, len(g.diameters))
	copy(out, g.diameters)
	return out
}

// Volumes returns a copy of the per-class particle volumes.
func (g *Grid) Volumes() []float64 {
	out := make([]float64, len(g.volumes))
	copy(out, g.volumes)
	return out
}

// MedianDiameter is the median of the class diameters, the anchor point for
// the rate power laws.
func (g *Grid) MedianDiameter() float64 {
	return median(g.diameters)
}

// MedianSurfaceToVolume is the median of the per-class surface-to-volume
// ratios.
func (g *Grid) MedianSurfaceToVolume() float64 {
	s := make([]float64, len(g.diameters))
	for i, d := range g.diameters {
		s[i] = 6 / d
	}
	return median(s)
}

// median of a monotonic sequence; averages the middle pair for even lengths.
func median(vals []float64) float64 {
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return 0.5 * (vals[n/2-1] + vals[n/2])
}
