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
	"github.com/ctessum/sparse"
)

// triple is one (row, column, value) matrix entry. Matrices are
// reassembled from an explicit triple list on every solve; no mutable
// matrix object is ever shared between solves or samples.
type triple struct {
	row, col int
	val      float64
}

// Matrices holds the technosphere matrix A and the biosphere matrix B
// assembled from a process graph snapshot, together with the index
// mappings between matrix positions and node IDs.
//
// A is square over the technosphere nodes: the diagonal holds
// self-production coefficients (1 by convention unless a self-exchange
// overrides it) and the off-diagonal entries hold negative per-unit
// consumption coefficients. B maps technosphere activity to biosphere
// flow amounts per unit activity.
type Matrices struct {
	A *sparse.SparseArray // nTech × nTech
	B *sparse.SparseArray // nFlow × nTech

	// TechIndex and FlowIndex map node IDs to matrix positions.
	TechIndex map[NodeID]int
	FlowIndex map[NodeID]int

	techNodes []NodeID
	flowNodes []NodeID

	// aTriples and bTriples keep the entries in canonical order, for
	// deterministic iteration independent of map ordering.
	aTriples []triple
	bTriples []triple

	// consumers[i] lists the A-matrix entries in row i excluding the
	// diagonal, i.e. the consumption of product i by other activities.
	consumers [][]triple
}

// Assemble builds the technosphere and biosphere matrices from the
// current exchange amounts of the graph. Assembly is O(E) in the number
// of exchanges and is a pure function of the graph snapshot.
func Assemble(g *Graph) (*Matrices, error) {
	tech := g.TechNodes()
	flows := g.FlowNodes()
	m := &Matrices{
		A:         sparse.ZerosSparse(len(tech), len(tech)),
		B:         sparse.ZerosSparse(len(flows), len(tech)),
		TechIndex: make(map[NodeID]int, len(tech)),
		FlowIndex: make(map[NodeID]int, len(flows)),
		techNodes: tech,
		flowNodes: flows,
		consumers: make([][]triple, len(tech)),
	}
	for i, id := range tech {
		m.TechIndex[id] = i
	}
	for i, id := range flows {
		m.FlowIndex[id] = i
	}

	// Unit self-production on the diagonal by convention.
	for i := range tech {
		m.A.Set(1, i, i)
		m.aTriples = append(m.aTriples, triple{row: i, col: i, val: 1})
	}

	for _, e := range g.Exchanges() {
		c := g.Node(e.Consumer)
		switch {
		case c.Kind == Biosphere:
			t := triple{row: m.FlowIndex[e.Consumer], col: m.TechIndex[e.Producer], val: e.Amount}
			m.B.AddVal(t.val, t.row, t.col)
			m.bTriples = append(m.bTriples, t)
		case e.Producer == e.Consumer:
			// Self-exchange overrides the default self-production.
			// SparseArray.Set drops explicit zeros, leaving the default
			// 1 in place, so the triple list is the authoritative
			// record of the diagonal.
			i := m.TechIndex[e.Producer]
			m.A.Set(e.Amount, i, i)
			m.aTriples[i].val = e.Amount
		default:
			t := triple{row: m.TechIndex[e.Producer], col: m.TechIndex[e.Consumer], val: -e.Amount}
			m.A.AddVal(t.val, t.row, t.col)
			m.aTriples = append(m.aTriples, t)
			m.consumers[t.row] = append(m.consumers[t.row], t)
		}
	}
	return m, nil
}

// Dim returns the number of technosphere nodes (the order of A).
func (m *Matrices) Dim() int { return len(m.techNodes) }

// diagonal returns the self-production coefficient of row i. The first
// Dim() entries of aTriples are the diagonals in row order, and unlike
// the sparse store they keep explicit zeros.
func (m *Matrices) diagonal(i int) float64 { return m.aTriples[i].val }
