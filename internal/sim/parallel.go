package sim

import (
	"context"
	"sync"

	"github.com/ecotools/fragsim/internal/kinet"
)

// Job is one independent simulation run. Each job owns its system and
// integrator exclusively, so a batch shares no mutable state between
// goroutines.
type Job struct {
	Name  string
	Sys   ClassSystem
	Integ kinet.Integrator
	Init  []float64
	Cfg   kinet.RunConfig
}

// RunBatch executes the jobs in parallel and returns their trajectories in
// job order. The first failure aborts the batch result.
func RunBatch(ctx context.Context, jobs []Job) ([]*Trajectory, error) {
	results := make([]*Trajectory, len(jobs))
	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			job := jobs[idx]
			results[idx], errs[idx] = New(job.Sys, job.Integ).Run(ctx, job.Init, job.Cfg)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
