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

package dynamic

import (
	"errors"
	"math"
	"testing"

	"github.com/spatialmodel/wastelca"
)

const tolerance = 1.e-8

func different(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return true
	}
	if math.Abs(a-b) > tolerance && math.Abs((a-b)/b) > tolerance {
		return true
	}
	return false
}

// landfillGraph builds a collection process that sends half its input
// to a landfill, which releases methane over ten years.
func landfillGraph(t *testing.T) *wastelca.Graph {
	t.Helper()
	g := wastelca.NewGraph()
	for _, n := range []wastelca.Node{
		{ID: "Collection", Kind: wastelca.Technosphere, Unit: "1000 kg"},
		{ID: "Landfill", Kind: wastelca.Technosphere, Unit: "1000 kg"},
		{ID: "CH4", Kind: wastelca.Biosphere, Unit: "kg"},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []wastelca.Exchange{
		{Producer: "Landfill", Consumer: "Collection", Amount: 0.5},
		{Producer: "Landfill", Consumer: "CH4", Amount: 10,
			Temporal: &wastelca.TemporalDist{
				Offsets:   []float64{0, 10},
				Fractions: []float64{0.5, 0.5},
			}},
	} {
		if err := g.AddExchange(e); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestBuild(t *testing.T) {
	t.Parallel()

	g := landfillGraph(t)
	demand := wastelca.Demand{"Collection": 1}
	_, inv, err := wastelca.Solve(g, demand)
	if err != nil {
		t.Fatal(err)
	}
	tl, err := Build(g, demand, inv, Config{})
	if err != nil {
		t.Fatal(err)
	}

	entries := tl.Entries()
	if len(entries) != 2 {
		t.Fatalf("timeline should have 2 entries but has %d: %v", len(entries), entries)
	}
	want := []Emission{
		{Time: 0, Flow: "CH4", Amount: 2.5},
		{Time: 10, Flow: "CH4", Amount: 2.5},
	}
	for i, e := range entries {
		if e.Time != want[i].Time || e.Flow != want[i].Flow || different(e.Amount, want[i].Amount) {
			t.Errorf("entry %d should be %+v but is %+v", i, want[i], e)
		}
	}
	if tl.Residual() != 0 {
		t.Errorf("residual should be 0 but is %g", tl.Residual())
	}
	if tl.Truncated() {
		t.Error("traversal should not be truncated")
	}
	if different(tl.FlowTotals()["CH4"], inv["CH4"]) {
		t.Errorf("timeline total %g should match inventory %g",
			tl.FlowTotals()["CH4"], inv["CH4"])
	}
}

func TestBuildUnknownDemand(t *testing.T) {
	t.Parallel()

	g := landfillGraph(t)
	_, err := Build(g, wastelca.Demand{"nope": 1}, nil, Config{})
	var uErr *wastelca.UnknownNodeError
	if !errors.As(err, &uErr) || uErr.ID != "nope" {
		t.Errorf("unknown demand node: got %v", err)
	}
}

func TestBuildZeroSelfProduction(t *testing.T) {
	t.Parallel()

	g := landfillGraph(t)
	if err := g.AddExchange(wastelca.Exchange{Producer: "Collection", Consumer: "Collection", Amount: 0}); err != nil {
		t.Fatal(err)
	}
	_, err := Build(g, wastelca.Demand{"Collection": 1}, nil, Config{})
	var sErr *wastelca.SingularSystemError
	if !errors.As(err, &sErr) || sErr.Node != "Collection" {
		t.Errorf("zero self-production: got %v", err)
	}
}

// TestBuildCyclic checks that a recycling loop terminates through the
// cutoff policy, with the cut mass tracked as residual.
func TestBuildCyclic(t *testing.T) {
	t.Parallel()

	g := wastelca.NewGraph()
	for _, n := range []wastelca.Node{
		{ID: "Sorting", Kind: wastelca.Technosphere, Unit: "kg"},
		{ID: "Reman", Kind: wastelca.Technosphere, Unit: "kg"},
		{ID: "CO2", Kind: wastelca.Biosphere, Unit: "kg"},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []wastelca.Exchange{
		{Producer: "Reman", Consumer: "Sorting", Amount: 0.5},
		{Producer: "Sorting", Consumer: "Reman", Amount: 0.2},
		{Producer: "Sorting", Consumer: "CO2", Amount: 1},
	} {
		if err := g.AddExchange(e); err != nil {
			t.Fatal(err)
		}
	}
	demand := wastelca.Demand{"Sorting": 1}
	_, inv, err := wastelca.Solve(g, demand)
	if err != nil {
		t.Fatal(err)
	}

	tl, err := Build(g, demand, inv, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if tl.Truncated() {
		t.Error("cutoff should terminate the loop before the visit bound")
	}
	if tl.Residual() == 0 {
		t.Error("cutting the loop should leave a residual")
	}
	got := tl.FlowTotals()["CO2"]
	if got >= inv["CO2"] {
		t.Errorf("timeline total %g should fall short of inventory %g", got, inv["CO2"])
	}
	// Each loop pass shrinks by 0.1, so the cutoff at 1e-3 keeps all
	// but the last fraction of a percent.
	if got < 0.99*inv["CO2"] {
		t.Errorf("timeline total %g should capture most of inventory %g", got, inv["CO2"])
	}
}

func TestBuildTruncated(t *testing.T) {
	t.Parallel()

	g := wastelca.NewGraph()
	for _, n := range []wastelca.Node{
		{ID: "Sorting", Kind: wastelca.Technosphere, Unit: "kg"},
		{ID: "Reman", Kind: wastelca.Technosphere, Unit: "kg"},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []wastelca.Exchange{
		{Producer: "Reman", Consumer: "Sorting", Amount: 0.5},
		{Producer: "Sorting", Consumer: "Reman", Amount: 0.5},
	} {
		if err := g.AddExchange(e); err != nil {
			t.Fatal(err)
		}
	}
	tl, err := Build(g, wastelca.Demand{"Sorting": 1}, nil,
		Config{MaxVisits: 3, Policy: RelativeCutoff(1e-300)})
	if err != nil {
		t.Fatal(err)
	}
	if !tl.Truncated() {
		t.Error("hitting the visit bound should mark the timeline truncated")
	}
	if tl.Residual() == 0 {
		t.Error("truncation should leave the frontier as residual")
	}
}

func TestBuildHorizon(t *testing.T) {
	t.Parallel()

	g := landfillGraph(t)
	// Delay the landfill input past the horizon.
	g.Exchanges()[0].Temporal = &wastelca.TemporalDist{
		Offsets:   []float64{0, 200},
		Fractions: []float64{0.5, 0.5},
	}
	demand := wastelca.Demand{"Collection": 1}
	tl, err := Build(g, demand, nil, Config{Horizon: 100})
	if err != nil {
		t.Fatal(err)
	}
	if different(tl.ResidualByNode()["Landfill"], 0.25) {
		t.Errorf("residual beyond the horizon should be 0.25 but is %g",
			tl.ResidualByNode()["Landfill"])
	}
	if different(tl.FlowTotals()["CH4"], 2.5) {
		t.Errorf("in-horizon methane should be 2.5 but is %g", tl.FlowTotals()["CH4"])
	}
}

func TestBuildMassBalance(t *testing.T) {
	t.Parallel()

	g := landfillGraph(t)
	demand := wastelca.Demand{"Collection": 1}
	// An inventory that disagrees with the graph must be rejected
	// when nothing was cut.
	_, err := Build(g, demand, wastelca.InventoryVector{"CH4": 999}, Config{})
	var mErr *wastelca.TemporalMassBalanceError
	if !errors.As(err, &mErr) || mErr.Flow != "CH4" {
		t.Fatalf("mass balance: got %v", err)
	}
	want := math.Abs(5-999) / 999
	if different(mErr.Divergence(), want) {
		t.Errorf("divergence should be %g but is %g", want, mErr.Divergence())
	}
}

func TestCutoffPolicies(t *testing.T) {
	t.Parallel()

	rc := RelativeCutoff(1e-3)
	if rc.Cut(0.01, 1, 1, 0) {
		t.Error("1% of the root should not be cut")
	}
	if !rc.Cut(1e-4, 1, 1, 0) {
		t.Error("0.01% of the root should be cut")
	}
	dc := DepthCutoff(2)
	if dc.Cut(1, 1, 2, 0) {
		t.Error("depth 2 should not be cut")
	}
	if !dc.Cut(1, 1, 3, 0) {
		t.Error("depth 3 should be cut")
	}
}
