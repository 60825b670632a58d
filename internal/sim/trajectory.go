package sim

import "gonum.org/v1/gonum/floats"

// Trajectory is the immutable output of one simulation run: the output time
// grid, per-class concentrations at each grid point, and the cumulative
// dissolved mass. Accessors copy, so a returned Trajectory cannot be altered
// by callers.
type Trajectory struct {
	times     []float64
	conc      [][]float64 // [step][class], coarsest first
	dissolved []float64
	metrics   map[string]float64
}

// Len returns the number of output grid points, including t=0.
func (tr *Trajectory) Len() int { return len(tr.times) }

// Classes returns the number of size classes.
func (tr *Trajectory) Classes() int {
	if len(tr.conc) == 0 {
		return 0
	}
	return len(tr.conc[0])
}

// Time returns the time of grid point i.
func (tr *Trajectory) Time(i int) float64 { return tr.times[i] }

// Times returns a copy of the output time grid.
func (tr *Trajectory) Times() []float64 {
	out := make([]float64, len(tr.times))
	copy(out, tr.times)
	return out
}

// Concentration returns the concentration of class k at grid point i.
func (tr *Trajectory) Concentration(i, k int) float64 { return tr.conc[i][k] }

// At returns a copy of all class concentrations at grid point i.
func (tr *Trajectory) At(i int) []float64 {
	out := make([]float64, len(tr.conc[i]))
	copy(out, tr.conc[i])
	return out
}

// Class returns the time series of class k.
func (tr *Trajectory) Class(k int) []float64 {
	out := make([]float64, len(tr.conc))
	for i := range tr.conc {
		out[i] = tr.conc[i][k]
	}
	return out
}

// Dissolved returns a copy of the cumulative dissolved mass series.
func (tr *Trajectory) Dissolved() []float64 {
	out := make([]float64, len(tr.dissolved))
	copy(out, tr.dissolved)
	return out
}

// DissolvedAt returns the cumulative dissolved mass at grid point i.
func (tr *Trajectory) DissolvedAt(i int) float64 { return tr.dissolved[i] }

// Total returns the summed particulate concentration at grid point i.
func (tr *Trajectory) Total(i int) float64 { return floats.Sum(tr.conc[i]) }

// Metrics returns a copy of the metric values recorded during the run.
func (tr *Trajectory) Metrics() map[string]float64 {
	out := make(map[string]float64, len(tr.metrics))
	for k, v := range tr.metrics {
		out[k] = v
	}
	return out
}
