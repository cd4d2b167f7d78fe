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
along with WasteLCA.  If not, see <http://www.gnu.org/licenses/>.
*/

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/wastelca"
)

const testConfig = `
[[Node]]
ID = "Collection"
Kind = "technosphere"
Unit = "1000 kg"

[[Node]]
ID = "Landfill"
Kind = "technosphere"
Unit = "1000 kg"

[[Node]]
ID = "CH4"
Kind = "biosphere"
Unit = "kg"

[[Exchange]]
Producer = "Landfill"
Consumer = "Collection"
Amount = 0.5

[[Exchange]]
Producer = "Landfill"
Consumer = "CH4"
Amount = 10.0

[Demand]
Collection = 1.0
`

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wastelca.toml")
	if err := os.WriteFile(path, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	old := configFile
	configFile = path
	defer func() { configFile = old }()

	g, demand, err := loadModel()
	if err != nil {
		t.Fatal(err)
	}
	if len(g.TechNodes()) != 2 || len(g.FlowNodes()) != 1 {
		t.Errorf("node counts: tech %d, flow %d", len(g.TechNodes()), len(g.FlowNodes()))
	}
	if demand[wastelca.NodeID("Collection")] != 1 {
		t.Errorf("demand is %v", demand)
	}

	_, inv, err := wastelca.Solve(g, demand)
	if err != nil {
		t.Fatal(err)
	}
	if inv["CH4"] != 5 {
		t.Errorf("CH4 inventory should be 5 but is %g", inv["CH4"])
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	old := configFile
	configFile = filepath.Join(t.TempDir(), "does-not-exist.toml")
	defer func() { configFile = old }()

	if _, _, err := loadModel(); err == nil {
		t.Error("loading a missing configuration file should fail")
	}
}

func TestWriteTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	old := outputFile
	outputFile = path
	defer func() { outputFile = old }()

	rows := [][]string{{"Flow", "Amount"}, {"CH4", "5"}}
	if err := writeTable(rows); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(b)
	if !strings.HasPrefix(got, "Flow,Amount\nCH4,5\n") {
		t.Errorf("output is %q", got)
	}
}
