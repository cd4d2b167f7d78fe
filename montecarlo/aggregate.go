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

package montecarlo

import (
	"fmt"
	"sort"

	"github.com/GaryBoone/GoStats/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/spatialmodel/wastelca"
)

// FlowStats summarizes the distribution of one scalar quantity over
// the successful samples.
type FlowStats struct {
	Mean, StdDev float64

	// Percentiles maps each requested percentile (as a fraction in
	// (0, 1)) to its empirical value.
	Percentiles map[float64]float64
}

// Result holds the aggregated outcome of a Monte Carlo run.
type Result struct {
	// Completed is the number of samples that finished successfully;
	// Failures records the rest.
	Completed int
	Failures  []Failure

	// Flows holds statistics of the inventory amount of each
	// elementary flow.
	Flows map[wastelca.NodeID]*FlowStats

	// Scaling holds statistics of the scaling factor of each
	// technosphere node.
	Scaling map[wastelca.NodeID]*FlowStats

	// Impact holds statistics of the final cumulative impact score.
	// It is nil unless timelines were computed and characterized.
	Impact *FlowStats

	// Samples holds the raw per-sample results when Config.KeepSamples
	// is set; otherwise nil.
	Samples []*SampleResult
}

// Table formats the per-flow statistics for output, sorted by flow ID.
func (r *Result) Table(g *wastelca.Graph, percentiles []float64) [][]string {
	ids := make([]wastelca.NodeID, 0, len(r.Flows))
	for id := range r.Flows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	header := []string{"Flow", "Unit", "Mean", "StdDev"}
	for _, p := range percentiles {
		header = append(header, fmt.Sprintf("p%g", p*100))
	}
	o := [][]string{header}
	for _, id := range ids {
		fs := r.Flows[id]
		unit := ""
		if n := g.Node(id); n != nil {
			unit = n.Unit
		}
		row := []string{string(id), unit,
			fmt.Sprintf("%g", fs.Mean), fmt.Sprintf("%g", fs.StdDev)}
		for _, p := range percentiles {
			row = append(row, fmt.Sprintf("%g", fs.Percentiles[p]))
		}
		o = append(o, row)
	}
	return o
}

// aggregate folds the per-sample results into summary statistics. The
// samples slice is indexed by sample number, so the accumulation order
// is fixed regardless of the order in which workers finished.
func (p *Propagator) aggregate(g *wastelca.Graph, samples []*SampleResult) *Result {
	res := &Result{
		Flows:   make(map[wastelca.NodeID]*FlowStats),
		Scaling: make(map[wastelca.NodeID]*FlowStats),
	}
	if p.KeepSamples {
		res.Samples = samples
	}

	flowVals := make(map[wastelca.NodeID][]float64)
	scaleVals := make(map[wastelca.NodeID][]float64)
	var impactVals []float64
	for _, s := range samples {
		if s == nil { // never received: cancelled in flight
			continue
		}
		if s.Err != nil {
			res.Failures = append(res.Failures, Failure{Index: s.Index, Seed: s.Seed, Err: s.Err})
			continue
		}
		res.Completed++
		for id, v := range s.Inventory {
			flowVals[id] = append(flowVals[id], v)
		}
		for id, v := range s.Scaling {
			scaleVals[id] = append(scaleVals[id], v)
		}
		if len(s.Impact) > 0 {
			impactVals = append(impactVals, s.Impact.Final())
		}
	}

	for id, vals := range flowVals {
		res.Flows[id] = p.summarize(vals)
	}
	for id, vals := range scaleVals {
		res.Scaling[id] = p.summarize(vals)
	}
	if len(impactVals) > 0 {
		res.Impact = p.summarize(impactVals)
	}
	return res
}

func (p *Propagator) summarize(vals []float64) *FlowStats {
	fs := &FlowStats{Mean: stats.StatsMean(vals)}
	if len(vals) > 1 {
		fs.StdDev = stats.StatsSampleStandardDeviation(vals)
	}
	if len(p.Percentiles) > 0 {
		sorted := make([]float64, len(vals))
		copy(sorted, vals)
		sort.Float64s(sorted)
		fs.Percentiles = make(map[float64]float64, len(p.Percentiles))
		for _, q := range p.Percentiles {
			fs.Percentiles[q] = stat.Quantile(q, stat.Empirical, sorted, nil)
		}
	}
	return fs
}
