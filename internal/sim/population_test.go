package sim_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ecotools/fragsim/internal/fragmat"
	"github.com/ecotools/fragsim/internal/integrators"
	"github.com/ecotools/fragsim/internal/kinet"
	"github.com/ecotools/fragsim/internal/kinetics"
	"github.com/ecotools/fragsim/internal/model"
	"github.com/ecotools/fragsim/internal/sim"
	"github.com/ecotools/fragsim/internal/sizeclass"
)

func buildModel(classes int, p kinetics.Params) *model.MassBalance {
	grid, err := sizeclass.New(classes, -9, -3)
	Expect(err).NotTo(HaveOccurred())
	rates, err := kinetics.New(grid, p)
	Expect(err).NotTo(HaveOccurred())
	frag, err := fragmat.New(classes, fragmat.PolicyEven)
	Expect(err).NotTo(HaveOccurred())
	m, err := model.New(grid, rates, frag)
	Expect(err).NotTo(HaveOccurred())
	return m
}

func run(m *model.MassBalance, c0 []float64, duration float64) (*sim.Trajectory, error) {
	cfg := kinet.DefaultRunConfig()
	cfg.Dt = 1
	cfg.Duration = duration
	return sim.New(m, integrators.NewRK45()).Run(context.Background(), c0, cfg)
}

var _ = Describe("fragmenting population", func() {
	It("keeps the total constant when nothing dissolves", func() {
		m := buildModel(3, kinetics.Params{FragAvg: 0.01, Theta1: 0, Mode: kinetics.DissolutionConstant})

		tr, err := run(m, []float64{42, 42, 42}, 300)
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < tr.Len(); i++ {
			Expect(tr.Total(i)).To(BeNumerically("~", 126, 1e-6))
			Expect(tr.DissolvedAt(i)).To(BeNumerically("~", 0, 1e-12))
		}
	})

	It("moves mass from the coarsest class toward finer classes", func() {
		m := buildModel(3, kinetics.Params{FragAvg: 0.01, Theta1: 0, Mode: kinetics.DissolutionConstant})

		tr, err := run(m, []float64{42, 42, 42}, 300)
		Expect(err).NotTo(HaveOccurred())

		last := tr.Len() - 1
		Expect(tr.Concentration(last, 0)).To(BeNumerically("<", 42))
		Expect(tr.Concentration(last, 2)).To(BeNumerically(">", 42))
	})

	It("leaves a single class untouched when nothing dissolves", func() {
		m := buildModel(1, kinetics.Params{FragAvg: 0.05, Mode: kinetics.DissolutionConstant})

		tr, err := run(m, []float64{42}, 100)
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < tr.Len(); i++ {
			Expect(tr.Concentration(i, 0)).To(BeNumerically("~", 42, 1e-9))
		}
	})

	It("books dissolved mass against the particulate total", func() {
		m := buildModel(5, kinetics.Params{
			FragAvg: 0.01, Theta1: 0.3,
			DissAvg: 0.004, Gamma: 1,
			Mode: kinetics.DissolutionSurfaceArea,
		})

		c0 := []float64{10, 10, 10, 10, 10}
		tr, err := run(m, c0, 200)
		Expect(err).NotTo(HaveOccurred())

		last := tr.Len() - 1
		Expect(tr.DissolvedAt(last)).To(BeNumerically(">", 0))
		for i := 0; i < tr.Len(); i++ {
			Expect(tr.Total(i)+tr.DissolvedAt(i)).To(BeNumerically("~", 50, 1e-6))
		}

		// Dissolved mass only accumulates.
		for i := 1; i < tr.Len(); i++ {
			Expect(tr.DissolvedAt(i)).To(BeNumerically(">=", tr.DissolvedAt(i-1)))
		}
	})

	It("never yields negative concentrations", func() {
		m := buildModel(7, kinetics.Params{
			FragAvg: 0.05, Theta1: 0.5,
			DissAvg: 0.01, Mode: kinetics.DissolutionConstant,
			SmallestIsSink: true,
		})

		c0 := make([]float64, 7)
		for i := range c0 {
			c0[i] = 1
		}
		tr, err := run(m, c0, 400)
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < tr.Len(); i++ {
			for k := 0; k < 7; k++ {
				Expect(tr.Concentration(i, k)).To(BeNumerically(">=", -1e-9))
			}
		}
	})

	It("is deterministic across identical runs", func() {
		build := func() (*sim.Trajectory, error) {
			m := buildModel(4, kinetics.Params{
				FragAvg: 0.02, Theta1: 0.4,
				DissAvg: 0.001, Mode: kinetics.DissolutionConstant,
			})
			return run(m, []float64{5, 4, 3, 2}, 150)
		}

		a, err := build()
		Expect(err).NotTo(HaveOccurred())
		b, err := build()
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Len()).To(Equal(b.Len()))
		for i := 0; i < a.Len(); i++ {
			for k := 0; k < a.Classes(); k++ {
				Expect(a.Concentration(i, k)).To(Equal(b.Concentration(i, k)))
			}
			Expect(a.DissolvedAt(i)).To(Equal(b.DissolvedAt(i)))
		}
	})

	It("drains faster with a stronger size dependence in the coarse end", func() {
		weak := buildModel(6, kinetics.Params{FragAvg: 0.01, Theta1: 0.1, Mode: kinetics.DissolutionConstant})
		strong := buildModel(6, kinetics.Params{FragAvg: 0.01, Theta1: 0.5, Mode: kinetics.DissolutionConstant})

		c0 := []float64{10, 0, 0, 0, 0, 0}
		trWeak, err := run(weak, c0, 100)
		Expect(err).NotTo(HaveOccurred())
		trStrong, err := run(strong, c0, 100)
		Expect(err).NotTo(HaveOccurred())

		last := trWeak.Len() - 1
		// The coarsest class fragments faster when theta1 is larger.
		Expect(trStrong.Concentration(last, 0)).To(BeNumerically("<", trWeak.Concentration(last, 0)))
	})
})
