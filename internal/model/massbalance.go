// Package model assembles the mass-balance ODE system for a fragmenting and
// dissolving particle population.
package model

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ecotools/fragsim/internal/fragmat"
	"github.com/ecotools/fragsim/internal/kinet"
	"github.com/ecotools/fragsim/internal/kinetics"
	"github.com/ecotools/fragsim/internal/sizeclass"
)

// MassBalance implements kinet.System for the coupled balance
//
//	dc_k/dt = -k_frag[k] c_k + Σ_i f[i][k] k_frag[i] c_i - k_diss[k] c_k
//
// over K size classes, with one extra state component accumulating dissolved
// mass: d(dissolved)/dt = Σ_k k_diss[k] c_k. The linear part is precomputed
// into a single K×K operator at construction, so Derive is one
// matrix-vector product plus a dot product.
type MassBalance struct {
	classes int
	op      *mat.Dense // combined fragmentation/dissolution operator
	diss    []float64
}

// New assembles the system from a grid, its rate set and a redistribution
// matrix. All three must agree on the class count.
func New(grid *sizeclass.Grid, rates *kinetics.RateSet, frag *fragmat.Matrix) (*MassBalance, error) {
	k := grid.Classes()
	if rates.Classes() != k || frag.Classes() != k {
		return nil, kinet.Configf("model", "class count mismatch: grid %d, rates %d, matrix %d",
			k, rates.Classes(), frag.Classes())
	}

	// A class whose redistribution row is zero has no finer class to
	// fragment into; its fragmentation loss term must vanish too, or mass
	// would leak out of the system without appearing anywhere.
	effFrag := make([]float64, k)
	for i := 0; i < k; i++ {
		if frag.HasDestinations(i) {
			effFrag[i] = rates.Frag(i)
		}
	}

	f := frag.Dense()
	op := mat.NewDense(k, k, nil)
	for j := 0; j < k; j++ {
		for i := 0; i < k; i++ {
			// Gain from class i fragmenting into class j.
			v := f.At(i, j) * effFrag[i]
			if i == j {
				// Loss by fragmentation out of j and by dissolution.
				v -= effFrag[j] + rates.Diss(j)
			}
			op.Set(j, i, v)
		}
	}

	return &MassBalance{
		classes: k,
		op:      op,
		diss:    rates.DissRates(),
	}, nil
}

// Classes returns the number of size classes K.
func (m *MassBalance) Classes() int { return m.classes }

// Dim returns the ODE dimension: K classes plus the dissolved-mass component.
func (m *MassBalance) Dim() int { return m.classes + 1 }

// Derive evaluates the right-hand side. It is pure; t is accepted only for
// integrator compatibility.
func (m *MassBalance) Derive(x kinet.State, t float64) kinet.State {
	c := []float64(x[:m.classes])

	dx := make(kinet.State, m.classes+1)
	out := mat.NewVecDense(m.classes, []float64(dx[:m.classes]))
	out.MulVec(m.op, mat.NewVecDense(m.classes, c))

	dx[m.classes] = floats.Dot(m.diss, c)
	return dx
}

// DissolutionRate returns the instantaneous sink term Σ_k k_diss[k] c[k].
func (m *MassBalance) DissolutionRate(c []float64) float64 {
	return floats.Dot(m.diss, c[:m.classes])
}

// InitialState builds the augmented state vector from per-class
// concentrations, with the dissolved component starting at zero.
func (m *MassBalance) InitialState(c0 []float64) (kinet.State, error) {
	if len(c0) != m.classes {
		return nil, kinet.Configf("initial concentration",
			"got %d values for %d classes", len(c0), m.classes)
	}
	for k, v := range c0 {
		if v < 0 {
			return nil, kinet.Configf("initial concentration",
				"class %d is negative: %g", k, v)
		}
	}
	x0 := make(kinet.State, m.classes+1)
	copy(x0, c0)
	return x0, nil
}
