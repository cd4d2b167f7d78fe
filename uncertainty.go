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

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DistFamily identifies an uncertainty distribution family.
type DistFamily int

const (
	// Fixed means the amount never varies.
	Fixed DistFamily = iota

	// Normal is a normal distribution with mean Loc and standard
	// deviation Scale.
	Normal

	// Lognormal is a lognormal distribution whose underlying normal
	// has mean Loc and standard deviation Scale.
	Lognormal

	// Uniform is a uniform distribution on [Min, Max].
	Uniform

	// Triangular is a triangular distribution on [Min, Max] with
	// mode Mode.
	Triangular
)

// String implements fmt.Stringer.
func (f DistFamily) String() string {
	switch f {
	case Fixed:
		return "fixed"
	case Normal:
		return "normal"
	case Lognormal:
		return "lognormal"
	case Uniform:
		return "uniform"
	case Triangular:
		return "triangular"
	default:
		return fmt.Sprintf("DistFamily(%d)", int(f))
	}
}

// Uncertainty specifies how an exchange amount varies between Monte
// Carlo samples.
type Uncertainty struct {
	Family DistFamily

	// Loc and Scale parameterize Normal and Lognormal.
	Loc, Scale float64

	// Min, Max and Mode parameterize Uniform and Triangular.
	Min, Max, Mode float64
}

// Sample draws an amount from the distribution using the given random
// source. For a Fixed family it returns base, the exchange's static
// amount.
func (u *Uncertainty) Sample(base float64, src rand.Source) float64 {
	if u == nil {
		return base
	}
	switch u.Family {
	case Fixed:
		return base
	case Normal:
		return distuv.Normal{Mu: u.Loc, Sigma: u.Scale, Src: src}.Rand()
	case Lognormal:
		return distuv.LogNormal{Mu: u.Loc, Sigma: u.Scale, Src: src}.Rand()
	case Uniform:
		return distuv.Uniform{Min: u.Min, Max: u.Max, Src: src}.Rand()
	case Triangular:
		return distuv.NewTriangle(u.Min, u.Max, u.Mode, src).Rand()
	default:
		return base
	}
}

// Resample returns a copy of the graph with every uncertain exchange
// amount redrawn from its uncertainty specification, walking the
// exchanges in canonical entry order so that the draw sequence is a pure
// function of the random source. If resampleTemporal is true, temporal
// distribution fractions that carry standard deviations are also
// perturbed and renormalized. The receiver is never modified.
func (g *Graph) Resample(src rand.Source, resampleTemporal bool) *Graph {
	o := g.Clone()
	for _, e := range o.exchanges {
		if e.Uncertainty != nil && e.Uncertainty.Family != Fixed {
			e.Amount = e.Uncertainty.Sample(e.Amount, src)
		}
		if resampleTemporal && e.Temporal != nil && e.Temporal.FractionSD != nil {
			resampleFractions(e.Temporal, src)
		}
	}
	return o
}

// resampleFractions perturbs each fraction with a normal draw, clamps
// negatives to zero, and renormalizes so the fractions still sum to one.
func resampleFractions(td *TemporalDist, src rand.Source) {
	sum := 0.
	for i, f := range td.Fractions {
		sd := td.FractionSD[i]
		if sd > 0 {
			f = distuv.Normal{Mu: f, Sigma: sd, Src: src}.Rand()
		}
		if f < 0 {
			f = 0
		}
		td.Fractions[i] = f
		sum += f
	}
	if sum == 0 {
		// Degenerate draw; fall back to the first offset taking
		// everything rather than dividing by zero.
		td.Fractions[0] = 1
		return
	}
	for i := range td.Fractions {
		td.Fractions[i] /= sum
	}
}
