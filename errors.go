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

// UnknownNodeError is returned when a demand or an exchange refers to a
// node that is not part of the process graph.
type UnknownNodeError struct {
	ID NodeID
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("wastelca: unknown node %q", e.ID)
}

// UnknownExchangeError is returned by Graph.SetAmount when the
// (producer, consumer) pair does not exist in the graph. Amounts can only
// be updated for exchanges that were present when the graph was built.
type UnknownExchangeError struct {
	Producer, Consumer NodeID
}

func (e *UnknownExchangeError) Error() string {
	return fmt.Sprintf("wastelca: exchange (%s, %s) is calculated but does not exist in the process graph",
		e.Producer, e.Consumer)
}

// BadAmountError is returned when an exchange amount is NaN or infinite.
// Amounts must be numbers; a NaN usually means a process-model
// calculation upstream went wrong.
type BadAmountError struct {
	Producer, Consumer NodeID
	Amount             float64
}

func (e *BadAmountError) Error() string {
	return fmt.Sprintf("wastelca: amount for exchange (%s, %s) is %g; check the calculations in the process model",
		e.Producer, e.Consumer, e.Amount)
}

// SingularSystemError is returned when the technosphere matrix cannot be
// inverted for the given demand, for example when an activity has zero
// self-production. It is fatal for the functional unit being solved.
type SingularSystemError struct {
	// Node identifies the offending activity if it could be determined,
	// otherwise it is empty.
	Node NodeID

	Reason string
}

func (e *SingularSystemError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("wastelca: singular technosphere matrix at node %q: %s", e.Node, e.Reason)
	}
	return fmt.Sprintf("wastelca: singular technosphere matrix: %s", e.Reason)
}

// InvalidTemporalDistributionError is returned at construction time when
// a temporal distribution's fractions do not sum to one within
// FractionTolerance, or when it contains a negative time offset that the
// graph has not been configured to allow. It is never silently
// normalized away.
type InvalidTemporalDistributionError struct {
	Producer, Consumer NodeID
	Sum                float64 // sum of fractions, where that is the problem
	Offset             float64 // offending offset, where that is the problem
	Reason             string
}

func (e *InvalidTemporalDistributionError) Error() string {
	return fmt.Sprintf("wastelca: invalid temporal distribution on exchange (%s, %s): %s",
		e.Producer, e.Consumer, e.Reason)
}

// TemporalMassBalanceError is returned when the total mass emitted into a
// timeline diverges from the matrix-derived inventory beyond
// MassTolerance. The divergence is reported, not corrected.
type TemporalMassBalanceError struct {
	Flow               NodeID
	Timeline, Inventory float64
}

func (e *TemporalMassBalanceError) Error() string {
	return fmt.Sprintf("wastelca: timeline mass for flow %q is %g but inventory is %g (divergence %g, tolerance %g)",
		e.Flow, e.Timeline, e.Inventory, e.Divergence(), MassTolerance)
}

// Divergence returns the magnitude of the relative mass-balance violation.
func (e *TemporalMassBalanceError) Divergence() float64 {
	d := math.Abs(e.Timeline - e.Inventory)
	if m := math.Abs(e.Inventory); m > 1 {
		return d / m
	}
	return d
}

// UnresolvedFlowError is returned when a biosphere flow has no
// characterization factor or kernel, even after applying any supplied
// flow migration table. This typically means the flow was renamed
// between inventory database releases.
type UnresolvedFlowError struct {
	Flow NodeID
}

func (e *UnresolvedFlowError) Error() string {
	return fmt.Sprintf("wastelca: no characterization for flow %q; it may have been renamed (a FlowMigration can remap it)", e.Flow)
}
