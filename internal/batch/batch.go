// Package batch fans one sampling request out over many satellites on a
// fixed-size worker pool. Failures are isolated per satellite and the output
// order always matches the input order.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/ReddishWater101/orbitalprop/internal/elements"
	"github.com/ReddishWater101/orbitalprop/internal/propagation"
	"github.com/ReddishWater101/orbitalprop/internal/trajectory"
)

// Satellite is one batch input: an identifier plus the raw element-set text.
type Satellite struct {
	ID           string
	ElementsText string
}

// Result is the outcome for one satellite. Exactly one of Trajectory and Err
// is set.
type Result struct {
	ID         string
	Trajectory *trajectory.Trajectory
	Err        error
}

// Orchestrator runs batches on a bounded worker pool.
type Orchestrator struct {
	workers int
	logger  *slog.Logger
}

// New creates an orchestrator with the given worker count; zero or negative
// means one worker per CPU.
func New(workers int, logger *slog.Logger) *Orchestrator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Orchestrator{workers: workers, logger: logger}
}

// job carries the input index so each worker writes its own output slot and
// the merged results need no reordering.
type job struct {
	index int
	sat   Satellite
	prop  *propagation.Propagator
	err   error
}

// Run samples every satellite across the window.
//
// The shared window is validated once up front; an invalid window rejects the
// whole batch. Everything after that is per-satellite: a parse or propagation
// failure fills that satellite's slot with an error and the rest of the batch
// is unaffected. Cancellation is cooperative between units of work; satellites
// not yet processed when the context ends carry the context error.
func (o *Orchestrator) Run(ctx context.Context, sats []Satellite, w trajectory.Window) ([]Result, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	results := make([]Result, len(sats))
	if len(sats) == 0 {
		return results, nil
	}

	// Parse up front, reusing one propagator per distinct element set. The
	// propagator is immutable, so sharing it across workers is safe.
	jobs := make([]job, len(sats))
	props := make(map[string]*propagation.Propagator)
	for i, sat := range sats {
		jobs[i] = job{index: i, sat: sat}

		set, err := elements.Parse(sat.ElementsText)
		if err != nil {
			jobs[i].err = fmt.Errorf("parsing elements for %s: %w", sat.ID, err)
			continue
		}
		key := set.Fingerprint()
		prop, ok := props[key]
		if !ok {
			prop, err = propagation.New(set)
			if err != nil {
				jobs[i].err = fmt.Errorf("initializing propagator for %s: %w", sat.ID, err)
				continue
			}
			props[key] = prop
		}
		jobs[i].prop = prop
	}

	workers := o.workers
	if workers > len(sats) {
		workers = len(sats)
	}

	feed := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range feed {
				results[j.index] = o.runOne(w, j)
			}
		}()
	}

	canceled := false
feeding:
	for _, j := range jobs {
		select {
		case feed <- j:
		case <-ctx.Done():
			canceled = true
			break feeding
		}
	}
	close(feed)
	wg.Wait()

	if canceled {
		o.logger.Warn("batch canceled before completion", "satellites", len(sats))
		for i := range results {
			if results[i].Trajectory == nil && results[i].Err == nil {
				results[i] = Result{ID: sats[i].ID, Err: ctx.Err()}
			}
		}
	}
	return results, nil
}

func (o *Orchestrator) runOne(w trajectory.Window, j job) Result {
	if j.err != nil {
		o.logger.Warn("satellite unit failed", "satellite", j.sat.ID, "error", j.err)
		return Result{ID: j.sat.ID, Err: j.err}
	}
	tr, err := trajectory.Sample(j.prop, j.sat.ID, w)
	if err != nil {
		o.logger.Warn("satellite unit failed", "satellite", j.sat.ID, "error", err)
		return Result{ID: j.sat.ID, Err: err}
	}
	if tr.Truncated {
		o.logger.Debug("trajectory truncated",
			"satellite", j.sat.ID,
			"points", len(tr.Points),
			"cause", tr.TruncatedBy)
	}
	return Result{ID: j.sat.ID, Trajectory: tr}
}
