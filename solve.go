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
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ScalingVector maps each technosphere node to the amount of its
// activity required to satisfy a functional-unit demand. It is the
// solution s of A·s = f.
type ScalingVector map[NodeID]float64

// InventoryVector maps each biosphere flow to its cumulative amount for
// a functional-unit demand: g = B·s. One scalar per flow ID.
type InventoryVector map[NodeID]float64

// Solve builds the technosphere and biosphere matrices from the graph
// snapshot and solves A·s = f for the given demand, returning the
// scaling vector and the inventory vector. It is a pure function of its
// inputs: neither the graph nor any shared state is modified, so it is
// safe to call concurrently from Monte Carlo workers on separate
// snapshots.
//
// Unit-process conventions make A diagonally dominant and mostly
// triangular, so Solve first permutes the system toward lower-triangular
// order and back-substitutes. Cyclic subgraphs (material recycling
// loops) fall back to a dense LU factorization.
func Solve(g *Graph, demand Demand) (ScalingVector, InventoryVector, error) {
	for id := range demand {
		n := g.Node(id)
		if n == nil {
			return nil, nil, &UnknownNodeError{ID: id}
		}
		if n.Kind != Technosphere {
			return nil, nil, fmt.Errorf("wastelca: demand for %q, which is a biosphere flow, not an activity", id)
		}
	}
	m, err := Assemble(g)
	if err != nil {
		return nil, nil, err
	}
	s, err := m.scale(demand)
	if err != nil {
		return nil, nil, err
	}
	return s, m.inventory(s), nil
}

// scale solves A·s = f.
func (m *Matrices) scale(demand Demand) (ScalingVector, error) {
	n := m.Dim()
	f := make([]float64, n)
	for id, v := range demand {
		f[m.TechIndex[id]] = v
	}

	for i, id := range m.techNodes {
		if m.diagonal(i) == 0 {
			return nil, &SingularSystemError{Node: id, Reason: "zero self-production"}
		}
	}

	order, acyclic := m.topoOrder()
	var s []float64
	var err error
	if acyclic {
		s = m.substitute(order, f)
	} else {
		s, err = m.denseSolve(f)
		if err != nil {
			return nil, err
		}
	}

	out := make(ScalingVector, n)
	for i, id := range m.techNodes {
		if math.IsNaN(s[i]) || math.IsInf(s[i], 0) {
			return nil, &SingularSystemError{Node: id, Reason: fmt.Sprintf("non-finite scaling value %g", s[i])}
		}
		out[id] = s[i]
	}
	return out, nil
}

// topoOrder attempts a topological ordering of the technosphere nodes
// such that every activity is ordered after the activities that consume
// its product. If the consumption structure is acyclic the returned
// order permutes A to lower-triangular form; otherwise acyclic is false.
func (m *Matrices) topoOrder() (order []int, acyclic bool) {
	n := m.Dim()
	// colRows[j] lists the rows i≠j where activity j consumes product i.
	colRows := make([][]int, n)
	indegree := make([]int, n)
	for _, t := range m.aTriples {
		if t.row == t.col {
			continue
		}
		colRows[t.col] = append(colRows[t.col], t.row)
		indegree[t.row]++
	}
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]
		order = append(order, j)
		for _, i := range colRows[j] {
			indegree[i]--
			if indegree[i] == 0 {
				queue = append(queue, i)
			}
		}
	}
	return order, len(order) == n
}

// substitute solves the permuted-triangular system by forward
// substitution in topological order.
func (m *Matrices) substitute(order []int, f []float64) []float64 {
	s := make([]float64, len(f))
	for _, i := range order {
		v := f[i]
		for _, t := range m.consumers[i] {
			v -= t.val * s[t.col]
		}
		s[i] = v / m.diagonal(i)
	}
	return s
}

// denseSolve is the general fallback for cyclic subgraphs: an LU
// factorization of the dense form of A, built from the triple list so
// explicit zeros survive.
func (m *Matrices) denseSolve(f []float64) ([]float64, error) {
	n := m.Dim()
	data := make([]float64, n*n)
	for _, t := range m.aTriples {
		data[t.row*n+t.col] += t.val
	}
	a := mat.NewDense(n, n, data)
	var lu mat.LU
	lu.Factorize(a)
	s := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(s, false, mat.NewVecDense(n, f)); err != nil {
		return nil, &SingularSystemError{Reason: fmt.Sprintf("LU solve failed: %v", err)}
	}
	return s.RawVector().Data, nil
}

// inventory computes g = B·s, iterating the biosphere entries in
// canonical order so repeated solves give bit-identical results.
func (m *Matrices) inventory(s ScalingVector) InventoryVector {
	g := make(InventoryVector, len(m.flowNodes))
	for _, id := range m.flowNodes {
		g[id] = 0
	}
	for _, t := range m.bTriples {
		g[m.flowNodes[t.row]] += t.val * s[m.techNodes[t.col]]
	}
	return g
}

// Table returns the inventory as rows of [flow ID, flow name, amount,
// unit], sorted by flow ID so output is the same every time.
func (g InventoryVector) Table(graph *Graph) [][]string {
	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	out := [][]string{{"Flow", "Name", "Amount", "Unit"}}
	for _, id := range ids {
		var name, u string
		if n := graph.Node(NodeID(id)); n != nil {
			name, u = n.Name, n.Unit
		}
		out = append(out, []string{id, name, fmt.Sprintf("%g", g[NodeID(id)]), u})
	}
	return out
}
