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
	"errors"
	"testing"
)

func TestMigrate(t *testing.T) {
	t.Parallel()

	m := FlowMigration{"CH4-old": "CH4"}
	if got := m.Migrate("CH4-old"); got != "CH4" {
		t.Errorf("stale ID should map to CH4 but maps to %s", got)
	}
	if got := m.Migrate("CO2"); got != "CO2" {
		t.Errorf("unmapped ID should pass through but is %s", got)
	}
	var nilM FlowMigration
	if got := nilM.Migrate("CO2"); got != "CO2" {
		t.Errorf("nil migration should pass through but gives %s", got)
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	inv := InventoryVector{"CO2": 2, "CH4-old": 3}
	cf := CFTable{"CO2": 1, "CH4": 28}

	// Without migration the stale flow has no factor.
	_, err := Score(inv, cf, nil)
	var uErr *UnresolvedFlowError
	if !errors.As(err, &uErr) || uErr.Flow != "CH4-old" {
		t.Errorf("unresolved flow: got %v", err)
	}

	got, err := Score(inv, cf, FlowMigration{"CH4-old": "CH4"})
	if err != nil {
		t.Fatal(err)
	}
	want := 2.0*1 + 3*28
	if different(got, want) {
		t.Errorf("score should be %g but is %g", want, got)
	}
}
