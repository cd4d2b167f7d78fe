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

// Package wastelca computes environmental inventories for modeled
// waste-management supply chains by building and solving a linear
// technosphere model. A process graph of technosphere activities and
// biosphere (elementary) flows is assembled into sparse technosphere and
// biosphere matrices, and a functional-unit demand is solved against them
// to give the activity scaling vector and the life cycle inventory.
//
// The dynamic subpackage distributes the inventory in time using the
// graph's temporal distributions, and the montecarlo subpackage
// quantifies uncertainty by repeatedly resampling exchange amounts and
// re-solving the system in parallel.
package wastelca

// Version gives the version number.
const Version = "0.3.0"

// FractionTolerance is the tolerance within which the fractions
// of a temporal distribution must sum to one.
const FractionTolerance = 1.e-9

// MassTolerance is the relative tolerance for the mass-balance
// cross-check between the temporal traversal and the static inventory.
const MassTolerance = 1.e-6
