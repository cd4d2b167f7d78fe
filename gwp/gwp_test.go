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

package gwp

import (
	"math"
	"testing"
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

func TestCO2(t *testing.T) {
	t.Parallel()

	k := CO2()
	// The impulse-response coefficients sum to one at t = 0.
	if different(k(0), co2RadiativeEfficiency) {
		t.Errorf("forcing at t=0 should be %g but is %g", co2RadiativeEfficiency, k(0))
	}
	// The airborne fraction decays toward the permanent fraction.
	if different(k(1e6), co2RadiativeEfficiency*co2A[0]) {
		t.Errorf("asymptotic forcing should be %g but is %g",
			co2RadiativeEfficiency*co2A[0], k(1e6))
	}
	for y := 1.0; y <= 500; y++ {
		if k(y) >= k(y-1) {
			t.Fatalf("forcing should decay but rises at year %g", y)
		}
	}
	if k(-1) != 0 {
		t.Errorf("forcing before the emission should be 0 but is %g", k(-1))
	}
}

func TestMethane(t *testing.T) {
	t.Parallel()

	k := Methane()
	if different(k(0), ch4RadiativeEfficiency) {
		t.Errorf("forcing at t=0 should be %g but is %g", ch4RadiativeEfficiency, k(0))
	}
	if different(k(ch4Lifetime), ch4RadiativeEfficiency/math.E) {
		t.Errorf("forcing after one lifetime should be %g but is %g",
			ch4RadiativeEfficiency/math.E, k(ch4Lifetime))
	}
	if k(-1) != 0 {
		t.Errorf("forcing before the emission should be 0 but is %g", k(-1))
	}
	// Per kilogram, methane forces far more strongly than CO2 while it
	// lasts.
	if k(0) <= CO2()(0) {
		t.Error("methane forcing should exceed CO2 forcing at t=0")
	}
}

func TestPulse(t *testing.T) {
	t.Parallel()

	k := Pulse(28)
	if k(0) != 28 || k(0.5) != 28 {
		t.Errorf("pulse should be 28 in the emission year but is %g, %g", k(0), k(0.5))
	}
	if k(1) != 0 || k(-0.5) != 0 {
		t.Errorf("pulse should be 0 outside the emission year but is %g, %g", k(1), k(-0.5))
	}
}
