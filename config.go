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
	"io"

	"github.com/BurntSushi/toml"
)

// ModelConfig is the TOML representation of a process graph model and a
// functional-unit demand. It is the translation layer between model
// files and the in-memory Graph; the engine itself only ever sees the
// Graph.
type ModelConfig struct {
	// AllowNegativeOffsets permits temporal distributions with
	// negative time offsets (uptake before emission).
	AllowNegativeOffsets bool

	Node     []NodeConfig
	Exchange []ExchangeConfig

	// Demand maps technosphere node IDs to functional-unit amounts.
	Demand map[string]float64
}

// NodeConfig describes one node in a model file.
type NodeConfig struct {
	ID   string
	Kind string // "technosphere" or "biosphere"
	Unit string
	Name string
}

// ExchangeConfig describes one exchange in a model file.
type ExchangeConfig struct {
	Producer, Consumer string
	Amount             float64

	Uncertainty *UncertaintyConfig
	Temporal    *TemporalConfig
}

// UncertaintyConfig describes an exchange's uncertainty specification.
type UncertaintyConfig struct {
	Family         string // "fixed", "normal", "lognormal", "uniform", "triangular"
	Loc, Scale     float64
	Min, Max, Mode float64
}

// TemporalConfig describes an exchange's temporal distribution.
type TemporalConfig struct {
	Offsets    []float64
	Fractions  []float64
	FractionSD []float64
}

// LoadModel decodes a TOML model definition and builds the process
// graph and demand from it.
func LoadModel(r io.Reader) (*Graph, Demand, error) {
	var cfg ModelConfig
	if _, err := toml.DecodeReader(r, &cfg); err != nil {
		return nil, nil, fmt.Errorf("wastelca: decoding model: %v", err)
	}
	return cfg.Build()
}

// Build constructs the Graph and Demand described by the receiver.
func (cfg *ModelConfig) Build() (*Graph, Demand, error) {
	g := NewGraph()
	g.AllowNegativeOffsets = cfg.AllowNegativeOffsets
	for _, nc := range cfg.Node {
		var kind NodeKind
		switch nc.Kind {
		case "technosphere":
			kind = Technosphere
		case "biosphere":
			kind = Biosphere
		default:
			return nil, nil, fmt.Errorf("wastelca: node %q has unknown kind %q", nc.ID, nc.Kind)
		}
		if err := g.AddNode(Node{ID: NodeID(nc.ID), Kind: kind, Unit: nc.Unit, Name: nc.Name}); err != nil {
			return nil, nil, err
		}
	}
	for _, ec := range cfg.Exchange {
		e := Exchange{
			Producer: NodeID(ec.Producer),
			Consumer: NodeID(ec.Consumer),
			Amount:   ec.Amount,
		}
		if ec.Uncertainty != nil {
			u, err := ec.Uncertainty.build()
			if err != nil {
				return nil, nil, fmt.Errorf("wastelca: exchange (%s, %s): %v", ec.Producer, ec.Consumer, err)
			}
			e.Uncertainty = u
		}
		if ec.Temporal != nil {
			e.Temporal = &TemporalDist{
				Offsets:    ec.Temporal.Offsets,
				Fractions:  ec.Temporal.Fractions,
				FractionSD: ec.Temporal.FractionSD,
			}
		}
		if err := g.AddExchange(e); err != nil {
			return nil, nil, err
		}
	}
	demand := make(Demand, len(cfg.Demand))
	for id, v := range cfg.Demand {
		demand[NodeID(id)] = v
	}
	return g, demand, nil
}

func (uc *UncertaintyConfig) build() (*Uncertainty, error) {
	u := &Uncertainty{
		Loc:   uc.Loc,
		Scale: uc.Scale,
		Min:   uc.Min,
		Max:   uc.Max,
		Mode:  uc.Mode,
	}
	switch uc.Family {
	case "", "fixed":
		u.Family = Fixed
	case "normal":
		u.Family = Normal
	case "lognormal":
		u.Family = Lognormal
	case "uniform":
		u.Family = Uniform
	case "triangular":
		u.Family = Triangular
	default:
		return nil, fmt.Errorf("unknown uncertainty family %q", uc.Family)
	}
	return u, nil
}
