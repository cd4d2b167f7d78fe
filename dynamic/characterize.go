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

package dynamic

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/wastelca"
)

// Kernel is a characterization function: the environmental response to
// a unit emission as a function of elapsed time in years since the
// emission. Kernels are supplied by the impact-method layer; the gwp
// subpackage provides radiative-forcing kernels for common greenhouse
// gases.
type Kernel func(years float64) float64

// KernelMap assigns a characterization kernel to each biosphere flow.
type KernelMap map[wastelca.NodeID]Kernel

// ImpactPoint is one point of a cumulative impact curve.
type ImpactPoint struct {
	Time  float64 // years from the reference time
	Value float64 // cumulative impact up to and including Time
}

// ImpactCurve is a time-ordered cumulative dynamic-impact curve. For
// flows with non-negative kernels it is monotonically non-decreasing.
type ImpactCurve []ImpactPoint

// Final returns the cumulative impact at the end of the curve.
func (c ImpactCurve) Final() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].Value
}

// Table returns the curve as rows of [time, cumulative impact].
func (c ImpactCurve) Table() [][]string {
	out := [][]string{{"Time (y)", "Cumulative impact"}}
	for _, p := range c {
		out = append(out, []string{fmt.Sprintf("%g", p.Time), fmt.Sprintf("%g", p.Value)})
	}
	return out
}

// Characterizer convolves timelines with per-flow characterization
// kernels. Kernel discretizations are cached so that characterizing
// many timelines (for example one per Monte Carlo sample) samples each
// kernel only once.
type Characterizer struct {
	// Kernels assigns a kernel to each biosphere flow.
	Kernels KernelMap

	// Migration optionally remaps stale flow IDs before kernel lookup.
	Migration wastelca.FlowMigration

	// Horizon is the characterization horizon in years after each
	// emission. The default is 100.
	Horizon float64

	cache     *requestcache.Cache
	cacheOnce sync.Once
}

type discretizeRequest struct {
	kernel Kernel
	steps  int
}

// discretize samples the kernel at yearly resolution from 0 to the
// horizon inclusive, through the cache.
func (c *Characterizer) discretize(flow wastelca.NodeID, k Kernel) ([]float64, error) {
	c.cacheOnce.Do(func() {
		c.cache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			r := req.(*discretizeRequest)
			o := make([]float64, r.steps+1)
			for i := range o {
				o[i] = r.kernel(float64(i))
			}
			return o, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(1000))
	})
	steps := int(math.Ceil(c.horizon()))
	req := c.cache.NewRequest(context.Background(), &discretizeRequest{kernel: k, steps: steps},
		fmt.Sprintf("%s_%d", flow, steps))
	v, err := req.Result()
	if err != nil {
		return nil, err
	}
	return v.([]float64), nil
}

func (c *Characterizer) horizon() float64 {
	if c.Horizon == 0 {
		return 100
	}
	return c.Horizon
}

// Characterize convolves each timeline entry with its flow's kernel at
// yearly resolution, accumulating a cumulative impact curve. A flow
// with no kernel, even after migration, fails with an
// UnresolvedFlowError.
func (c *Characterizer) Characterize(tl *Timeline) (ImpactCurve, error) {
	entries := tl.Entries()
	if len(entries) == 0 {
		return nil, nil
	}

	horizon := int(math.Ceil(c.horizon()))
	minYear, maxYear := math.MaxInt32, math.MinInt32
	for _, e := range entries {
		y := int(math.Floor(e.Time))
		if y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}
	maxYear += horizon

	impact := make([]float64, maxYear-minYear+1)
	for _, e := range entries {
		k, ok := c.Kernels[e.Flow]
		if !ok {
			k, ok = c.Kernels[c.Migration.Migrate(e.Flow)]
		}
		if !ok {
			return nil, &wastelca.UnresolvedFlowError{Flow: e.Flow}
		}
		disc, err := c.discretize(e.Flow, k)
		if err != nil {
			return nil, err
		}
		ey := int(math.Floor(e.Time))
		for i, kv := range disc {
			y := ey + i - minYear
			if y >= len(impact) {
				break
			}
			impact[y] += e.Amount * kv
		}
	}

	curve := make(ImpactCurve, len(impact))
	cum := 0.
	for i, v := range impact {
		cum += v
		curve[i] = ImpactPoint{Time: float64(minYear + i), Value: cum}
	}
	return curve, nil
}
