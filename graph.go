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

package wastelca

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/unit"
)

// NodeID is a globally unique node identifier.
type NodeID string

// NodeKind specifies whether a node is a technosphere activity or a
// biosphere (elementary) flow.
type NodeKind int

const (
	// Technosphere specifies a human-engineered process or activity.
	Technosphere NodeKind = iota + 1

	// Biosphere specifies a direct environmental exchange (an emission
	// or resource extraction) that is not further decomposed.
	Biosphere
)

// Node identifies a technosphere activity or a biosphere flow.
// Nodes are immutable once added to a graph.
type Node struct {
	ID   NodeID
	Kind NodeKind

	// Unit is the unit of the node's reference output, e.g. "kg", "MJ"
	// or "1000 kg" (a multiplier followed by a base unit).
	Unit string

	// Name is the display name.
	Name string
}

// Exchange is a directed edge from a producing node to a consuming node.
// For an edge between two technosphere nodes, Amount is the amount of
// the producer consumed per unit output of the consumer. For an edge
// from a technosphere node to a biosphere flow, Amount is the amount of
// the flow emitted per unit output of the producing activity.
// A self-exchange (Producer == Consumer) sets the activity's
// self-production coefficient, which is otherwise 1 by convention.
type Exchange struct {
	Producer, Consumer NodeID

	Amount float64

	// Uncertainty describes how the amount varies between Monte Carlo
	// samples. A nil Uncertainty means the amount is fixed.
	Uncertainty *Uncertainty

	// Temporal optionally spreads the exchange over time relative to
	// the consuming activity's activation. A nil Temporal means the
	// whole amount occurs at the moment of activation.
	Temporal *TemporalDist
}

// Demand is a sparse functional-unit demand vector mapping technosphere
// node IDs to externally demanded amounts.
type Demand map[NodeID]float64

// Graph is a process graph model: the set of nodes and exchanges that
// the matrix builder, the temporal traversal, and the Monte Carlo
// propagator all consume. A Graph is treated as an immutable snapshot
// per solve; Monte Carlo sampling works on clones, never on the
// original.
type Graph struct {
	// AllowNegativeOffsets permits temporal distributions with negative
	// time offsets, representing uptake before the triggering
	// activation (e.g. biogenic carbon sequestration). Set it before
	// adding exchanges.
	AllowNegativeOffsets bool

	nodes     map[NodeID]*Node
	techOrder []NodeID // technosphere nodes in insertion order
	flowOrder []NodeID // biosphere nodes in insertion order

	// exchanges holds all exchanges in insertion order. This order is
	// the canonical entry order for matrix assembly and resampling, so
	// that a vector of resampled values maps positionally onto the
	// matrix entries.
	exchanges []*Exchange
	exchIndex map[[2]NodeID]int
}

// NewGraph returns an empty process graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[NodeID]*Node),
		exchIndex: make(map[[2]NodeID]int),
	}
}

// AddNode adds a node to the graph. Adding two nodes with the same ID is
// an error.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("wastelca: node has empty ID")
	}
	if n.Kind != Technosphere && n.Kind != Biosphere {
		return fmt.Errorf("wastelca: node %q has invalid kind %d", n.ID, n.Kind)
	}
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("wastelca: duplicate node %q", n.ID)
	}
	nn := n
	g.nodes[n.ID] = &nn
	switch n.Kind {
	case Technosphere:
		g.techOrder = append(g.techOrder, n.ID)
	case Biosphere:
		g.flowOrder = append(g.flowOrder, n.ID)
	}
	return nil
}

// AddExchange adds an exchange to the graph, validating its endpoints,
// its amount, and its temporal distribution. Biosphere flows can only
// appear on the consumer side of an exchange whose producer is a
// technosphere activity.
func (g *Graph) AddExchange(e Exchange) error {
	p, ok := g.nodes[e.Producer]
	if !ok {
		return &UnknownNodeError{ID: e.Producer}
	}
	if _, ok := g.nodes[e.Consumer]; !ok {
		return &UnknownNodeError{ID: e.Consumer}
	}
	if p.Kind == Biosphere {
		return fmt.Errorf("wastelca: exchange (%s, %s): a biosphere flow cannot be a producer", e.Producer, e.Consumer)
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) {
		return &BadAmountError{Producer: e.Producer, Consumer: e.Consumer, Amount: e.Amount}
	}
	if e.Temporal != nil {
		if err := e.Temporal.check(g.AllowNegativeOffsets); err != nil {
			terr := err.(*InvalidTemporalDistributionError)
			terr.Producer, terr.Consumer = e.Producer, e.Consumer
			return terr
		}
	}
	key := [2]NodeID{e.Producer, e.Consumer}
	if _, ok := g.exchIndex[key]; ok {
		return fmt.Errorf("wastelca: duplicate exchange (%s, %s)", e.Producer, e.Consumer)
	}
	ee := e
	g.exchIndex[key] = len(g.exchanges)
	g.exchanges = append(g.exchanges, &ee)
	return nil
}

// Node returns the node with the given ID, or nil if it doesn't exist.
func (g *Graph) Node(id NodeID) *Node {
	return g.nodes[id]
}

// TechNodes returns the technosphere node IDs in insertion order.
func (g *Graph) TechNodes() []NodeID { return g.techOrder }

// FlowNodes returns the biosphere node IDs in insertion order.
func (g *Graph) FlowNodes() []NodeID { return g.flowOrder }

// Exchanges returns the exchanges in canonical entry order. The returned
// slice must not be modified.
func (g *Graph) Exchanges() []*Exchange { return g.exchanges }

// SetAmount updates the amount of an existing exchange, for example from
// a recalculated process-model report. Updating an exchange that does
// not exist fails with an UnknownExchangeError rather than inserting it,
// because inserting would silently change the matrix structure.
func (g *Graph) SetAmount(producer, consumer NodeID, amount float64) error {
	i, ok := g.exchIndex[[2]NodeID{producer, consumer}]
	if !ok {
		return &UnknownExchangeError{Producer: producer, Consumer: consumer}
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return &BadAmountError{Producer: producer, Consumer: consumer, Amount: amount}
	}
	g.exchanges[i].Amount = amount
	return nil
}

// Clone returns a deep copy of the graph. Node values are shared
// because they are immutable once added; the index maps, order slices,
// and exchanges are copied so that amount updates, resampling, and even
// adding nodes or exchanges on the clone never touch the receiver.
func (g *Graph) Clone() *Graph {
	o := &Graph{
		AllowNegativeOffsets: g.AllowNegativeOffsets,
		nodes:                make(map[NodeID]*Node, len(g.nodes)),
		techOrder:            append([]NodeID(nil), g.techOrder...),
		flowOrder:            append([]NodeID(nil), g.flowOrder...),
		exchanges:            make([]*Exchange, len(g.exchanges)),
		exchIndex:            make(map[[2]NodeID]int, len(g.exchIndex)),
	}
	for id, n := range g.nodes {
		o.nodes[id] = n
	}
	for k, i := range g.exchIndex {
		o.exchIndex[k] = i
	}
	for i, e := range g.exchanges {
		ee := *e
		if e.Temporal != nil {
			ee.Temporal = e.Temporal.clone()
		}
		o.exchanges[i] = &ee
	}
	return o
}

// MassFlow sums the scaled activity of all technosphere nodes whose IDs
// begin with the given prefix, returning the total as a dimensioned
// mass. Node units such as "1000 kg" are interpreted as a multiplier on
// the base unit; "Mg" is a megagram (metric ton). Nodes whose units are
// not mass units are skipped.
func MassFlow(g *Graph, s ScalingVector, prefix string) *unit.Unit {
	total := unit.New(0, unit.Kilogram)
	for id, v := range s {
		if !strings.HasPrefix(string(id), prefix) {
			continue
		}
		n := g.nodes[id]
		if n == nil {
			continue
		}
		kg, ok := massMultiplier(n.Unit)
		if !ok {
			continue
		}
		total.Add(unit.New(v*kg, unit.Kilogram))
	}
	return total
}

// massMultiplier converts a unit string to kilograms per unit, handling
// "multiplier base" forms like "1000 kg".
func massMultiplier(u string) (float64, bool) {
	mult := 1.0
	fields := strings.Fields(u)
	if len(fields) == 2 {
		if _, err := fmt.Sscanf(fields[0], "%g", &mult); err != nil {
			return 0, false
		}
		u = fields[1]
	}
	switch u {
	case "kg":
		return mult, true
	case "g":
		return mult * 1e-3, true
	case "Mg", "t", "tonne":
		return mult * 1e3, true
	default:
		return 0, false
	}
}
