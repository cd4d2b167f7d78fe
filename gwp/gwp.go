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

// Package gwp provides dynamic characterization kernels for greenhouse
// gases based on instantaneous radiative forcing, for use with the
// dynamic package's impact-curve convolution.
package gwp

import (
	"math"

	"github.com/spatialmodel/wastelca/dynamic"
)

// Radiative efficiencies [W m⁻² kg⁻¹ in atmosphere].
const (
	co2RadiativeEfficiency = 1.76e-15
	ch4RadiativeEfficiency = 2.01e-13
)

// Impulse-response fit for the airborne fraction of a CO2 pulse
// (Joos et al. 2013, doi:10.5194/acp-13-2793-2013), consistent with the
// IPCC AR5/AR6 metric calculations.
var (
	co2A   = [4]float64{0.2173, 0.2240, 0.2824, 0.2763}
	co2Tau = [3]float64{394.4, 36.54, 4.304}
)

// ch4Lifetime is the atmospheric perturbation lifetime of methane in
// years.
const ch4Lifetime = 11.8

// CO2 returns a kernel giving the radiative forcing [W m⁻²] per kg of
// CO2 as a function of years since emission.
func CO2() dynamic.Kernel {
	return func(t float64) float64 {
		if t < 0 {
			return 0
		}
		f := co2A[0]
		for i, tau := range co2Tau {
			f += co2A[i+1] * math.Exp(-t/tau)
		}
		return co2RadiativeEfficiency * f
	}
}

// Methane returns a kernel giving the radiative forcing [W m⁻²] per kg
// of CH4 as a function of years since emission, using first-order decay
// with the atmospheric perturbation lifetime. Indirect effects (ozone,
// stratospheric water vapor) are not included.
func Methane() dynamic.Kernel {
	return func(t float64) float64 {
		if t < 0 {
			return 0
		}
		return ch4RadiativeEfficiency * math.Exp(-t/ch4Lifetime)
	}
}

// Pulse returns a kernel that applies the whole characterization factor
// in the year of emission, reproducing a static factor such as a GWP100
// value within a dynamic calculation.
func Pulse(factor float64) dynamic.Kernel {
	return func(t float64) float64 {
		if t >= 0 && t < 1 {
			return factor
		}
		return 0
	}
}
