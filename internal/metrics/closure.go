// Package metrics provides run-level diagnostics observed while a
// simulation advances.
package metrics

import (
	"math"

	"github.com/ecotools/fragsim/internal/kinet"
)

// MassClosure tracks the worst relative drift of particulate plus dissolved
// mass from the initial total over a run. For a healthy run the value stays
// within integrator tolerance.
type MassClosure struct {
	name     string
	classes  int
	total0   float64
	maxDrift float64
	samples  int
}

func NewMassClosure(classes int) *MassClosure {
	return &MassClosure{
		name:    "mass_closure_drift",
		classes: classes,
	}
}

func (m *MassClosure) Name() string { return m.name }

func (m *MassClosure) Observe(x kinet.State, t float64) {
	total := 0.0
	for k := 0; k < m.classes && k < len(x); k++ {
		total += x[k]
	}
	if len(x) > m.classes {
		total += x[m.classes]
	}

	if m.samples == 0 {
		m.total0 = total
	}
	m.samples++

	if m.total0 != 0 {
		drift := math.Abs(total-m.total0) / math.Abs(m.total0)
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *MassClosure) Value() float64 {
	return m.maxDrift
}

func (m *MassClosure) Reset() {
	m.total0 = 0
	m.maxDrift = 0
	m.samples = 0
}
