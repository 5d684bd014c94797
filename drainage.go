/*
Copyright © 2021 the MeritLDD authors.
This file is part of MeritLDD.

MeritLDD is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

MeritLDD is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with MeritLDD.  If not, see <http://www.gnu.org/licenses/>.
*/

package meritldd

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// DrainageConfig holds the parameters of the synthetic elevation surface.
type DrainageConfig struct {
	// Ceiling is the constant that upstream area is subtracted from.
	// Cells whose upstream area is at least Ceiling (the ocean sentinel)
	// are treated as open water.
	Ceiling float64

	// Sigma is the standard deviation, in cells, of the Gaussian used to
	// build the gradients on flat areas. Larger values give longer,
	// gentler slopes; at coarse resolutions the same Sigma spans a larger
	// distance on the ground.
	Sigma float64

	// GradientScale is the height of the gradient surface before
	// smoothing.
	GradientScale float64
}

// DefaultDrainageConfig returns the default drainage parameters.
func DefaultDrainageConfig() DrainageConfig {
	return DrainageConfig{
		Ceiling:       DefaultSentinel,
		Sigma:         25,
		GradientScale: 100,
	}
}

// SyntheticElevation converts the upstream area grid ups into an
// elevation-like surface, Ceiling minus upstream area, so that water flows
// toward larger upstream areas.
//
// Two kinds of cells would otherwise be flat. Cells with zero upstream
// area get a smoothed gradient added that rises away from the cells
// that are not flat, so they drain toward the nearest river. Open-water
// cells (upstream area at or above Ceiling) are replaced by a smoothed
// gradient that falls away from the coast, so rivers keep flowing
// offshore. Both gradients are shifted so their maximum over the cells
// they apply to is zero.
func SyntheticElevation(ups *Grid, cfg DrainageConfig) (*Grid, error) {
	n := len(ups.Elements)
	elev := NewGrid(ups.Rows(), ups.Cols(), ups.Res, ups.North, ups.West)
	flat := make([]bool, n)
	water := make([]bool, n)
	var nFlat, nWater int
	for i, u := range ups.Elements {
		e := cfg.Ceiling - u
		elev.Elements[i] = e
		switch {
		case u == 0:
			flat[i] = true
			nFlat++
		case e <= 0:
			water[i] = true
			nWater++
		}
	}

	if nFlat > 0 {
		g, err := maskGradient(ups.Shape, flat, true, cfg)
		if err != nil {
			return nil, err
		}
		for i, f := range flat {
			if f {
				elev.Elements[i] += g[i]
			}
		}
	}
	if nWater > 0 {
		g, err := maskGradient(ups.Shape, water, false, cfg)
		if err != nil {
			return nil, err
		}
		for i, w := range water {
			if w {
				elev.Elements[i] = g[i]
			}
		}
	}
	return elev, nil
}

// maskGradient smooths a surface that is GradientScale where mask equals
// want and zero elsewhere, and shifts it so its maximum over the cells
// where mask is true is zero.
func maskGradient(shape []int, mask []bool, want bool, cfg DrainageConfig) ([]float64, error) {
	a := sparse.ZerosDense(shape...)
	for i, m := range mask {
		if m == want {
			a.Elements[i] = cfg.GradientScale
		}
	}
	s, err := GaussianFilter(a, cfg.Sigma)
	if err != nil {
		return nil, err
	}
	top := math.Inf(-1)
	for i, m := range mask {
		if m && s.Elements[i] > top {
			top = s.Elements[i]
		}
	}
	floats.AddConst(-top, s.Elements)
	return s.Elements, nil
}

// Drainage is the result of deriving a drainage network.
type Drainage struct {
	// LDD holds the direction codes, with NaN where there is no data.
	LDD *Grid

	// Ups is the upstream area in km² recomputed by accumulating cell
	// areas over the network.
	Ups *Grid

	// Network is the drainage network itself.
	Network *LDD
}

// Derive derives a drainage network for the cropped upstream area grid ups
// using router, and recomputes upstream area over it. Cells of ups that
// are NaN are excluded.
func Derive(ups *Grid, router Router, cfg DrainageConfig) (*Drainage, error) {
	if math.IsNaN(cfg.Ceiling) || cfg.Ceiling <= 0 {
		return nil, configErrorf("elevation ceiling must be positive, got %g", cfg.Ceiling)
	}
	elev, err := SyntheticElevation(ups, cfg)
	if err != nil {
		return nil, err
	}
	nodata := make([]bool, len(ups.Elements))
	for i, v := range ups.Elements {
		nodata[i] = math.IsNaN(v)
	}
	ldd, err := router.Route(elev.DenseArray, nodata)
	if err != nil {
		return nil, fmt.Errorf("meritldd: deriving drainage directions: %w", err)
	}
	area := CellArea(ups)
	acc, err := Accumulate(ldd, area.Elements)
	if err != nil {
		return nil, err
	}
	out := NewGrid(ups.Rows(), ups.Cols(), ups.Res, ups.North, ups.West)
	copy(out.Elements, acc)
	return &Drainage{
		LDD:     ldd.Grid(ups),
		Ups:     out,
		Network: ldd,
	}, nil
}
