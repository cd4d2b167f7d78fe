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
)

// TemporalDist is a normalized split of an exchange's amount across time
// offsets (in years) relative to the triggering activation. The
// fractions must sum to one within FractionTolerance so that
// fractions × amount reproduces the exchange amount exactly.
type TemporalDist struct {
	Offsets   []float64
	Fractions []float64

	// FractionSD optionally gives a standard deviation for each
	// fraction, used only when Monte Carlo temporal resampling is
	// enabled. Resampled fractions are renormalized so the
	// sum-to-one invariant is preserved.
	FractionSD []float64
}

// NewTemporalDist creates a temporal distribution from ordered
// (offset, fraction) pairs. The offsets must be strictly increasing.
// The fractions are validated, never normalized: a sum away from one is
// an error in the caller's data.
func NewTemporalDist(offsets, fractions []float64) (*TemporalDist, error) {
	td := &TemporalDist{Offsets: offsets, Fractions: fractions}
	if err := td.check(true); err != nil {
		return nil, err
	}
	return td, nil
}

// check validates the receiver. The producer and consumer fields of any
// returned InvalidTemporalDistributionError are filled in by the caller.
func (td *TemporalDist) check(allowNegative bool) error {
	if len(td.Offsets) == 0 || len(td.Offsets) != len(td.Fractions) {
		return &InvalidTemporalDistributionError{
			Reason: fmt.Sprintf("%d offsets but %d fractions", len(td.Offsets), len(td.Fractions)),
		}
	}
	if td.FractionSD != nil && len(td.FractionSD) != len(td.Fractions) {
		return &InvalidTemporalDistributionError{
			Reason: fmt.Sprintf("%d fractions but %d fraction standard deviations", len(td.Fractions), len(td.FractionSD)),
		}
	}
	sum := 0.
	for i, f := range td.Fractions {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &InvalidTemporalDistributionError{
				Reason: fmt.Sprintf("fraction %d is %g", i, f),
			}
		}
		sum += f
	}
	if math.Abs(sum-1) > FractionTolerance {
		return &InvalidTemporalDistributionError{
			Sum:    sum,
			Reason: fmt.Sprintf("fractions sum to %g, not 1 (tolerance %g)", sum, FractionTolerance),
		}
	}
	for i, o := range td.Offsets {
		if i > 0 && o <= td.Offsets[i-1] {
			return &InvalidTemporalDistributionError{
				Offset: o,
				Reason: fmt.Sprintf("offsets are not strictly increasing at index %d", i),
			}
		}
		if o < 0 && !allowNegative {
			return &InvalidTemporalDistributionError{
				Offset: o,
				Reason: fmt.Sprintf("negative time offset %g is not allowed for this graph", o),
			}
		}
	}
	return nil
}

func (td *TemporalDist) clone() *TemporalDist {
	o := &TemporalDist{
		Offsets:   td.Offsets,
		Fractions: append([]float64(nil), td.Fractions...),
	}
	if td.FractionSD != nil {
		o.FractionSD = td.FractionSD
	}
	return o
}

// Immediate returns a temporal distribution with the whole amount at the
// moment of activation.
func Immediate() *TemporalDist {
	return &TemporalDist{Offsets: []float64{0}, Fractions: []float64{1}}
}

// UniformSpread returns a temporal distribution spreading the amount
// evenly over the given number of steps between start and end years
// (inclusive).
func UniformSpread(start, end float64, steps int) *TemporalDist {
	if steps < 1 {
		steps = 1
	}
	td := &TemporalDist{
		Offsets:   make([]float64, steps),
		Fractions: make([]float64, steps),
	}
	for i := 0; i < steps; i++ {
		if steps == 1 {
			td.Offsets[i] = start
		} else {
			td.Offsets[i] = start + (end-start)*float64(i)/float64(steps-1)
		}
		td.Fractions[i] = 1 / float64(steps)
	}
	return td
}

// ExponentialDecay returns a temporal distribution that discretizes a
// first-order decay with rate constant k (1/year) over the given period
// in years, one step per year from 0 to period inclusive. This is the
// shape of, for example, landfill gas generation over decades. The
// fractions are normalized so they sum to one exactly.
func ExponentialDecay(k float64, period int) *TemporalDist {
	if period < 0 {
		period = 0
	}
	td := &TemporalDist{
		Offsets:   make([]float64, period+1),
		Fractions: make([]float64, period+1),
	}
	sum := 0.
	for i := 0; i <= period; i++ {
		td.Offsets[i] = float64(i)
		td.Fractions[i] = k * math.Exp(-k*float64(i))
		sum += td.Fractions[i]
	}
	for i := range td.Fractions {
		td.Fractions[i] /= sum
	}
	return td
}
