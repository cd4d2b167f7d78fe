/*
Copyright © 2024 the WasteLCA authors.
This file is part of WasteLCA.

WasteLCA is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

WasteLCA is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with WasteLCA.  If not, see <http://www.gnu.org/licenses/>.*/

// Package montecarlo quantifies the uncertainty of life cycle
// inventories by repeatedly resampling exchange amounts from their
// uncertainty specifications and re-solving the technosphere system,
// in parallel, aggregating the per-sample results into summary
// statistics.
package montecarlo

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"github.com/spatialmodel/wastelca"
	"github.com/spatialmodel/wastelca/dynamic"
)

// Config holds Monte Carlo run configuration.
type Config struct {
	// Samples is the number of Monte Carlo draws, N.
	Samples int

	// Seed is the base random seed. Per-sample seeds are derived
	// deterministically from it and the sample index, so identical
	// configuration reproduces identical samples regardless of worker
	// count or completion order.
	Seed uint64

	// Jobs is the degree of parallelism. The default is GOMAXPROCS.
	Jobs int

	// ComputeTimelines computes an emission timeline (and, if a
	// Characterizer is configured, an impact curve) for every sample.
	// This is considerably more expensive than inventories alone.
	ComputeTimelines bool

	// ResampleTemporal also resamples temporal distribution fractions
	// that carry standard deviations, in addition to exchange amounts.
	ResampleTemporal bool

	// FailureThreshold is the tolerated fraction of failed samples
	// before the whole run fails. The default is 0.05.
	FailureThreshold float64

	// Percentiles lists the percentiles to report, as fractions in
	// (0, 1), e.g. 0.025, 0.5, 0.975.
	Percentiles []float64

	// SampleTimeout, if nonzero, bounds the wall-clock time of each
	// sample; a sample exceeding it is recorded as failed rather than
	// blocking the run.
	SampleTimeout time.Duration

	// KeepSamples retains the raw per-sample results in the Result
	// instead of discarding them after aggregation.
	KeepSamples bool

	// Traversal configures the temporal traversal when
	// ComputeTimelines is set.
	Traversal dynamic.Config

	// Characterizer, if non-nil, converts each sample's timeline into
	// a cumulative impact curve.
	Characterizer *dynamic.Characterizer
}

// Propagator runs Monte Carlo uncertainty propagation over a process
// graph. The graph itself is shared read-only between workers; every
// sample works on its own resampled snapshot.
type Propagator struct {
	Config

	Log logrus.FieldLogger
}

// New returns a Propagator with defaults applied.
func New(cfg Config) *Propagator {
	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.GOMAXPROCS(-1)
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 0.05
	}
	return &Propagator{
		Config: cfg,
		Log:    logrus.StandardLogger(),
	}
}

// SampleResult is the outcome of one Monte Carlo draw.
type SampleResult struct {
	Index int
	Seed  uint64

	Scaling   wastelca.ScalingVector
	Inventory wastelca.InventoryVector
	Impact    dynamic.ImpactCurve

	// Err is non-nil when the sample failed; failed samples are
	// excluded from aggregate statistics.
	Err error
}

// Failure identifies one failed sample.
type Failure struct {
	Index int
	Seed  uint64
	Err   error
}

// ExcessiveSampleFailureError is returned when the fraction of failed
// samples exceeds the configured threshold, which usually indicates a
// structurally ill-conditioned graph rather than bad luck.
type ExcessiveSampleFailureError struct {
	Failures        []Failure
	Rate, Threshold float64
}

func (e *ExcessiveSampleFailureError) Error() string {
	return fmt.Sprintf("montecarlo: %d samples failed (rate %.3g, threshold %.3g); first failure: %v",
		len(e.Failures), e.Rate, e.Threshold, e.Failures[0].Err)
}

// SampleSeed derives the random seed for sample i from the base seed.
// It is a pure function of its arguments (a splitmix64 step), never of
// wall-clock time or process state, so concurrent workers can never
// collide and reruns are bit-identical.
func SampleSeed(base uint64, i int) uint64 {
	z := base + (uint64(i)+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Run executes the Monte Carlo simulation. Per-sample errors are
// recorded on their samples and never abort sibling samples. On
// cooperative cancellation, the statistics aggregated over the samples
// completed so far are returned together with the context's error.
func (p *Propagator) Run(ctx context.Context, g *wastelca.Graph, demand wastelca.Demand) (*Result, error) {
	if p.Samples <= 0 {
		return nil, fmt.Errorf("montecarlo: number of samples is %d; it must be positive", p.Samples)
	}
	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	jobs := p.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(-1)
	}
	log.WithFields(logrus.Fields{
		"samples": p.Samples,
		"jobs":    jobs,
		"seed":    p.Seed,
	}).Info("starting Monte Carlo simulation")

	indices := make(chan int)
	// The result channel is bounded so producers see backpressure but
	// are never blocked indefinitely by the collector.
	results := make(chan SampleResult, jobs*2)

	var wg sync.WaitGroup
	wg.Add(jobs)
	for w := 0; w < jobs; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				r := p.sample(ctx, g, demand, i)
				select {
				case results <- r:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		defer close(indices)
		for i := 0; i < p.Samples; i++ {
			select {
			case indices <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	samples := make([]*SampleResult, p.Samples)
	for r := range results {
		r := r
		samples[r.Index] = &r
		if r.Err != nil {
			log.WithFields(logrus.Fields{
				"sample": r.Index,
				"seed":   r.Seed,
			}).WithError(r.Err).Warn("sample failed")
		}
	}

	res := p.aggregate(g, samples)
	if err := ctx.Err(); err != nil {
		// Partial aggregation over completed samples remains valid.
		return res, err
	}

	attempted := res.Completed + len(res.Failures)
	if attempted > 0 {
		rate := float64(len(res.Failures)) / float64(attempted)
		if rate > p.FailureThreshold {
			return res, &ExcessiveSampleFailureError{
				Failures:  res.Failures,
				Rate:      rate,
				Threshold: p.FailureThreshold,
			}
		}
	}
	log.WithFields(logrus.Fields{
		"completed": res.Completed,
		"failed":    len(res.Failures),
	}).Info("Monte Carlo simulation finished")
	return res, nil
}

// sample runs one Monte Carlo draw. All work happens on a sample-local
// snapshot of the graph; the shared graph is never mutated. When a
// timeout is configured the computation runs in its own goroutine so a
// sample stuck inside a solve or traversal is recorded as failed on
// expiry instead of holding up its worker; the abandoned computation
// finishes in the background and its result is discarded.
func (p *Propagator) sample(ctx context.Context, g *wastelca.Graph, demand wastelca.Demand, i int) SampleResult {
	r := SampleResult{Index: i, Seed: SampleSeed(p.Seed, i)}
	if p.SampleTimeout <= 0 {
		return p.compute(r, g, demand)
	}

	sctx, cancel := context.WithTimeout(ctx, p.SampleTimeout)
	defer cancel()
	done := make(chan SampleResult, 1)
	go func() {
		done <- p.compute(r, g, demand)
	}()
	select {
	case out := <-done:
		return out
	case <-sctx.Done():
		r.Err = sctx.Err()
		return r
	}
}

// compute performs the actual draw: resample, solve, and optionally
// traverse and characterize.
func (p *Propagator) compute(r SampleResult, g *wastelca.Graph, demand wastelca.Demand) SampleResult {
	snapshot := g.Resample(rand.NewSource(r.Seed), p.ResampleTemporal)

	s, inv, err := wastelca.Solve(snapshot, demand)
	if err != nil {
		r.Err = err
		return r
	}
	r.Scaling, r.Inventory = s, inv

	if p.ComputeTimelines {
		tl, err := dynamic.Build(snapshot, demand, inv, p.Traversal)
		if err != nil {
			r.Err = err
			return r
		}
		if p.Characterizer != nil {
			curve, err := p.Characterizer.Characterize(tl)
			if err != nil {
				r.Err = err
				return r
			}
			r.Impact = curve
		}
	}
	return r
}
