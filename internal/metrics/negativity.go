package metrics

import "github.com/ecotools/fragsim/internal/kinet"

// Negativity reports the fraction of observed states with every class
// concentration above the negative threshold. 1.0 means a fully clean run.
type Negativity struct {
	name       string
	classes    int
	threshold  float64
	violations int
	samples    int
}

func NewNegativity(classes int, threshold float64) *Negativity {
	return &Negativity{
		name:      "non_negativity",
		classes:   classes,
		threshold: threshold,
	}
}

func (n *Negativity) Name() string { return n.name }

func (n *Negativity) Observe(x kinet.State, t float64) {
	n.samples++
	for k := 0; k < n.classes && k < len(x); k++ {
		if x[k] < -n.threshold {
			n.violations++
			break
		}
	}
}

func (n *Negativity) Value() float64 {
	if n.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(n.violations)/float64(n.samples)
}

func (n *Negativity) Reset() {
	n.violations = 0
	n.samples = 0
}
