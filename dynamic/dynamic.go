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

// Package dynamic distributes a solved life cycle inventory in time.
// It traverses the process graph from the functional unit, shifting and
// scaling temporal distributions along the way, to produce an emission
// timeline, and convolves the timeline with per-flow characterization
// kernels to produce a cumulative dynamic-impact curve.
package dynamic

import (
	"fmt"
	"math"
	"sort"

	"github.com/spatialmodel/wastelca"
)

// Config holds traversal configuration.
type Config struct {
	// Cutoff is the relative contribution below which a branch is
	// dropped, as a fraction of the root demand. The default is 1e-3
	// (0.1%). It is required for termination on cyclic graphs.
	Cutoff float64

	// MaxVisits bounds the number of node activations visited.
	// The default is 5000.
	MaxVisits int

	// Horizon is the time horizon in years; activations scheduled
	// beyond it are dropped into the residual. The default is 100.
	Horizon float64

	// Policy optionally replaces the default relative-contribution
	// cutoff with a custom rule.
	Policy CutoffPolicy
}

func (c *Config) setDefaults() {
	if c.Cutoff == 0 {
		c.Cutoff = 1e-3
	}
	if c.MaxVisits == 0 {
		c.MaxVisits = 5000
	}
	if c.Horizon == 0 {
		c.Horizon = 100
	}
	if c.Policy == nil {
		c.Policy = RelativeCutoff(c.Cutoff)
	}
}

// CutoffPolicy decides whether a traversal branch should be dropped.
// Dropped mass is tracked as uncharacterized residual, never silently
// discarded.
type CutoffPolicy interface {
	// Cut reports whether a branch carrying the given absolute amount
	// should be dropped. root is the total magnitude of the root
	// demand, depth is the traversal depth of the branch, and t is the
	// time at which the branch would activate.
	Cut(amount, root float64, depth int, t float64) bool
}

// RelativeCutoff drops branches whose contribution falls below the
// given fraction of the root demand.
type RelativeCutoff float64

// Cut implements CutoffPolicy.
func (rc RelativeCutoff) Cut(amount, root float64, depth int, t float64) bool {
	return math.Abs(amount) < float64(rc)*root
}

// DepthCutoff drops branches deeper than the given traversal depth.
type DepthCutoff int

// Cut implements CutoffPolicy.
func (dc DepthCutoff) Cut(amount, root float64, depth int, t float64) bool {
	return depth > int(dc)
}

// Emission is one timeline entry: an amount of a biosphere flow
// emitted at an absolute time (years from the reference time of the
// functional unit).
type Emission struct {
	Time   float64
	Flow   wastelca.NodeID
	Amount float64
}

// Timeline is the time-ordered sequence of emissions produced by
// traversing a solved process graph. It is re-derivable from the graph
// and scaling vector and is not persisted.
type Timeline struct {
	entries   []Emission
	residual  map[wastelca.NodeID]float64
	truncated bool
}

// Entries returns the emissions ordered by time, then by flow ID.
// Entries sharing a time and flow are merged.
func (tl *Timeline) Entries() []Emission { return tl.entries }

// FlowTotals sums the timeline per flow.
func (tl *Timeline) FlowTotals() map[wastelca.NodeID]float64 {
	o := make(map[wastelca.NodeID]float64)
	for _, e := range tl.entries {
		o[e.Flow] += e.Amount
	}
	return o
}

// Residual returns the total mass dropped by cutoff, in the product
// units of the nodes where branches were cut. A non-zero residual means
// the timeline understates the static inventory by design; it is
// reported here rather than being folded into zero-time emissions.
func (tl *Timeline) Residual() float64 {
	sum := 0.
	for _, v := range tl.residual {
		sum += math.Abs(v)
	}
	return sum
}

// ResidualByNode returns the cutoff residual per producing node.
func (tl *Timeline) ResidualByNode() map[wastelca.NodeID]float64 { return tl.residual }

// Truncated reports whether the traversal hit its MaxVisits bound.
func (tl *Timeline) Truncated() bool { return tl.truncated }

// Table returns the timeline as rows of [time, flow, amount], sorted,
// suitable for CSV output.
func (tl *Timeline) Table() [][]string {
	out := [][]string{{"Time (y)", "Flow", "Amount"}}
	for _, e := range tl.entries {
		out = append(out, []string{
			fmt.Sprintf("%g", e.Time), string(e.Flow), fmt.Sprintf("%g", e.Amount),
		})
	}
	return out
}

// activation is one frontier entry: a demand for the product of a node
// at a point in time.
type activation struct {
	node   wastelca.NodeID
	t      float64
	amount float64
	depth  int
}

// Build traverses the graph from the functional-unit demand, producing
// the emission timeline. inv is the matrix-derived inventory for the
// same graph and demand; when no branch was cut, the timeline's
// per-flow totals are cross-checked against it and a divergence beyond
// tolerance fails with a TemporalMassBalanceError.
//
// The traversal uses an explicit frontier queue rather than recursion
// because recycling loops make the graph cyclic; termination is
// guaranteed by the cutoff policy together with the MaxVisits bound.
func Build(g *wastelca.Graph, demand wastelca.Demand, inv wastelca.InventoryVector, cfg Config) (*Timeline, error) {
	cfg.setDefaults()

	// Per-node exchange lists.
	inputs := make(map[wastelca.NodeID][]*wastelca.Exchange)    // technosphere inputs by consumer
	emissions := make(map[wastelca.NodeID][]*wastelca.Exchange) // biosphere emissions by producer
	selfProd := make(map[wastelca.NodeID]float64)
	for _, e := range g.Exchanges() {
		c := g.Node(e.Consumer)
		switch {
		case c.Kind == wastelca.Biosphere:
			emissions[e.Producer] = append(emissions[e.Producer], e)
		case e.Producer == e.Consumer:
			selfProd[e.Producer] = e.Amount
		default:
			inputs[e.Consumer] = append(inputs[e.Consumer], e)
		}
	}

	root := 0.
	for _, v := range demand {
		root += math.Abs(v)
	}

	for id := range demand {
		if g.Node(id) == nil {
			return nil, &wastelca.UnknownNodeError{ID: id}
		}
	}
	tl := &Timeline{residual: make(map[wastelca.NodeID]float64)}
	queue := make([]activation, 0, len(demand))
	for _, id := range g.TechNodes() {
		if v, ok := demand[id]; ok && v != 0 {
			queue = append(queue, activation{node: id, t: 0, amount: v})
		}
	}

	visits := 0
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]

		if visits >= cfg.MaxVisits {
			// Everything left on the frontier becomes residual.
			tl.residual[a.node] += a.amount
			tl.truncated = true
			continue
		}
		visits++

		sp, ok := selfProd[a.node]
		if !ok {
			sp = 1
		}
		if sp == 0 {
			return nil, &wastelca.SingularSystemError{Node: a.node, Reason: "zero self-production"}
		}
		act := a.amount / sp

		for _, e := range emissions[a.node] {
			total := e.Amount * act
			if e.Temporal == nil {
				tl.entries = append(tl.entries, Emission{Time: a.t, Flow: e.Consumer, Amount: total})
				continue
			}
			for i, off := range e.Temporal.Offsets {
				tl.entries = append(tl.entries, Emission{
					Time:   a.t + off,
					Flow:   e.Consumer,
					Amount: total * e.Temporal.Fractions[i],
				})
			}
		}

		for _, e := range inputs[a.node] {
			up := e.Amount * act
			if up == 0 {
				continue
			}
			if cfg.Policy.Cut(up, root, a.depth+1, a.t) {
				tl.residual[e.Producer] += up
				continue
			}
			if e.Temporal == nil {
				queue = append(queue, activation{node: e.Producer, t: a.t, amount: up, depth: a.depth + 1})
				continue
			}
			for i, off := range e.Temporal.Offsets {
				part := up * e.Temporal.Fractions[i]
				if a.t+off > cfg.Horizon {
					tl.residual[e.Producer] += part
					continue
				}
				queue = append(queue, activation{node: e.Producer, t: a.t + off, amount: part, depth: a.depth + 1})
			}
		}
	}

	tl.finalize()

	if len(tl.residual) == 0 && !tl.truncated {
		totals := tl.FlowTotals()
		for _, id := range g.FlowNodes() {
			want := inv[id]
			have := totals[id]
			tol := wastelca.MassTolerance * math.Max(1, math.Abs(want))
			if math.Abs(have-want) > tol {
				return nil, &wastelca.TemporalMassBalanceError{Flow: id, Timeline: have, Inventory: want}
			}
		}
	}
	return tl, nil
}

// finalize sorts the entries and merges those sharing a time and flow.
func (tl *Timeline) finalize() {
	sort.Slice(tl.entries, func(i, j int) bool {
		if tl.entries[i].Time != tl.entries[j].Time {
			return tl.entries[i].Time < tl.entries[j].Time
		}
		return tl.entries[i].Flow < tl.entries[j].Flow
	})
	merged := tl.entries[:0]
	for _, e := range tl.entries {
		if n := len(merged); n > 0 && merged[n-1].Time == e.Time && merged[n-1].Flow == e.Flow {
			merged[n-1].Amount += e.Amount
			continue
		}
		merged = append(merged, e)
	}
	tl.entries = merged
}
