// Package fragmat builds the fragment redistribution matrix: the fraction of
// mass leaving a size class by fragmentation that reappears in each finer
// class.
package fragmat

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ecotools/fragsim/internal/kinet"
)

// Policy selects how fragmenting mass is split among finer classes.
type Policy string

const (
	// PolicyEven splits fragments evenly among all strictly finer classes.
	PolicyEven Policy = "even"
	// PolicyCascade sends all fragments to the next finer class only.
	PolicyCascade Policy = "cascade"
)

// Matrix is a K×K redistribution matrix with classes ordered coarsest first.
// Entry (i, k) is the fraction of class i's fragmenting mass that lands in
// class k. Rows of non-terminal classes sum to one; the finest class's row is
// all zero since nothing finer exists to receive fragments. The matrix is
// strictly lower triangular in the finer direction: k <= i entries are zero.
type Matrix struct {
	dense *mat.Dense
}

// New builds and validates a redistribution matrix for k classes.
func New(k int, policy Policy) (*Matrix, error) {
	if k < 1 {
		return nil, kinet.Configf("classes", "need at least 1 size class, got %d", k)
	}

	d := mat.NewDense(k, k, nil)
	switch policy {
	case PolicyEven:
		for i := 0; i < k-1; i++ {
			w := 1 / float64(k-i-1)
			for j := i + 1; j < k; j++ {
				d.Set(i, j, w)
			}
		}
	case PolicyCascade:
		for i := 0; i < k-1; i++ {
			d.Set(i, i+1, 1)
		}
	default:
		return nil, kinet.Configf("fragment policy", "unknown policy %q", policy)
	}

	m := &Matrix{dense: d}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// validate enforces the conservation invariants at construction time so a
// bad matrix can never reach the integrator.
func (m *Matrix) validate() error {
	k, _ := m.dense.Dims()
	for i := 0; i < k; i++ {
		sum := 0.0
		for j := 0; j < k; j++ {
			v := m.dense.At(i, j)
			if j <= i && v != 0 {
				return kinet.Configf("fragment matrix",
					"class %d redistributes into equal-or-coarser class %d", i, j)
			}
			if v < 0 {
				return kinet.Configf("fragment matrix",
					"negative fraction %g at (%d, %d)", v, i, j)
			}
			sum += v
		}
		if i == k-1 {
			if sum != 0 {
				return kinet.Configf("fragment matrix",
					"finest class row must be zero, sums to %g", sum)
			}
			continue
		}
		if math.Abs(sum-1) > 1e-12 {
			return kinet.Configf("fragment matrix",
				"row %d sums to %g, want 1", i, sum)
		}
	}
	return nil
}

// Classes returns K.
func (m *Matrix) Classes() int {
	k, _ := m.dense.Dims()
	return k
}

// Frac returns the fraction of class i's fragmenting mass landing in class k.
func (m *Matrix) Frac(i, k int) float64 { return m.dense.At(i, k) }

// HasDestinations reports whether class i redistributes into any finer class.
// False only for the finest class (and the sole class of a K=1 grid).
func (m *Matrix) HasDestinations(i int) bool {
	k, _ := m.dense.Dims()
	for j := i + 1; j < k; j++ {
		if m.dense.At(i, j) > 0 {
			return true
		}
	}
	return false
}

// Dense exposes the underlying matrix for assembly of the rate operator.
// Callers must treat it as read-only.
func (m *Matrix) Dense() *mat.Dense { return m.dense }
