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

import "sort"

// FlowMigration maps stale biosphere flow IDs to their current
// equivalents. Inventory databases occasionally rename flows between
// releases; characterization tables built against an older release can
// be reconciled by supplying a migration instead of editing either side.
type FlowMigration map[NodeID]NodeID

// Migrate returns the current ID for the given flow, or the flow
// unchanged if it is not in the table.
func (m FlowMigration) Migrate(id NodeID) NodeID {
	if m == nil {
		return id
	}
	if to, ok := m[id]; ok {
		return to
	}
	return id
}

// CFTable maps biosphere flows to static characterization factors (for
// example kg CO2-equivalents per kg of flow).
type CFTable map[NodeID]float64

// Score computes the static impact score Σ cf(flow)·g(flow) of an
// inventory against a characterization-factor table. Flows absent from
// the table are first remapped through the migration; a flow that still
// has no factor fails with an UnresolvedFlowError.
func Score(g InventoryVector, cf CFTable, mig FlowMigration) (float64, error) {
	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	total := 0.
	for _, s := range ids {
		id := NodeID(s)
		f, ok := cf[id]
		if !ok {
			f, ok = cf[mig.Migrate(id)]
		}
		if !ok {
			return 0, &UnresolvedFlowError{Flow: id}
		}
		total += f * g[id]
	}
	return total, nil
}
