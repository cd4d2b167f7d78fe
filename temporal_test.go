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
	"testing"
)

func fractionSum(td *TemporalDist) float64 {
	sum := 0.
	for _, f := range td.Fractions {
		sum += f
	}
	return sum
}

func TestNewTemporalDist(t *testing.T) {
	t.Parallel()

	if _, err := NewTemporalDist([]float64{0, 1}, []float64{0.5, 0.5}); err != nil {
		t.Error(err)
	}
	if _, err := NewTemporalDist([]float64{0, 1}, []float64{0.5}); err == nil {
		t.Error("mismatched lengths should fail")
	}
	if _, err := NewTemporalDist([]float64{0, 1}, []float64{0.5, 0.6}); err == nil {
		t.Error("fractions summing to 1.1 should fail, not be normalized")
	}
	if _, err := NewTemporalDist([]float64{1, 1}, []float64{0.5, 0.5}); err == nil {
		t.Error("non-increasing offsets should fail")
	}
	if _, err := NewTemporalDist(nil, nil); err == nil {
		t.Error("an empty distribution should fail")
	}
}

func TestImmediate(t *testing.T) {
	t.Parallel()

	td := Immediate()
	if len(td.Offsets) != 1 || td.Offsets[0] != 0 || td.Fractions[0] != 1 {
		t.Errorf("immediate distribution is %+v", td)
	}
}

func TestUniformSpread(t *testing.T) {
	t.Parallel()

	td := UniformSpread(0, 9, 10)
	if len(td.Offsets) != 10 {
		t.Fatalf("should have 10 steps but has %d", len(td.Offsets))
	}
	if td.Offsets[0] != 0 || td.Offsets[9] != 9 {
		t.Errorf("offsets should span [0, 9] but are [%g, %g]", td.Offsets[0], td.Offsets[9])
	}
	for i, f := range td.Fractions {
		if different(f, 0.1) {
			t.Errorf("fraction %d should be 0.1 but is %g", i, f)
		}
	}
	if err := td.check(false); err != nil {
		t.Error(err)
	}

	// A single step collapses to the start time.
	td = UniformSpread(3, 7, 1)
	if len(td.Offsets) != 1 || td.Offsets[0] != 3 || td.Fractions[0] != 1 {
		t.Errorf("single-step spread is %+v", td)
	}
}

func TestExponentialDecay(t *testing.T) {
	t.Parallel()

	td := ExponentialDecay(0.1, 50)
	if len(td.Offsets) != 51 {
		t.Fatalf("should have 51 steps but has %d", len(td.Offsets))
	}
	if different(fractionSum(td), 1) {
		t.Errorf("fractions should sum to 1 but sum to %g", fractionSum(td))
	}
	// First-order decay peaks at the start and decreases
	// monotonically.
	for i := 1; i < len(td.Fractions); i++ {
		if td.Fractions[i] >= td.Fractions[i-1] {
			t.Fatalf("fraction %d (%g) should be below fraction %d (%g)",
				i, td.Fractions[i], i-1, td.Fractions[i-1])
		}
	}
	if err := td.check(false); err != nil {
		t.Error(err)
	}
}
