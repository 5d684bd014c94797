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

// Package meritldd derives local drainage direction (LDD) and upstream area
// grids from the MERIT Hydro upstream area dataset at a configurable
// resolution.
package meritldd

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// Version is the version of MeritLDD.
const Version = "1.0.0"

// ErrConfig is returned (wrapped) for all configuration errors, such as
// mismatched resolutions or a non-integer resample factor.
var ErrConfig = errors.New("configuration error")

// configErrorf returns an error wrapping ErrConfig.
func configErrorf(format string, a ...interface{}) error {
	return fmt.Errorf("meritldd: %w: %s", ErrConfig, fmt.Sprintf(format, a...))
}

// Grid is a regular latitude-longitude grid. Row 0 is the northernmost row
// and column 0 the westernmost column.
type Grid struct {
	*sparse.DenseArray

	// Res is the cell edge length in degrees.
	Res float64

	// North is the latitude of the top edge of the grid and West
	// is the longitude of its left edge.
	North, West float64
}

// NewGrid returns a zero-valued grid with the given shape and geometry.
func NewGrid(rows, cols int, res, north, west float64) *Grid {
	return &Grid{
		DenseArray: sparse.ZerosDense(rows, cols),
		Res:        res,
		North:      north,
		West:       west,
	}
}

// NewGlobalGrid returns a grid covering the whole Earth at resolution res,
// with every cell set to NaN.
func NewGlobalGrid(res float64) *Grid {
	g := NewGrid(int(math.Round(180/res)), int(math.Round(360/res)), res, 90, -180)
	for i := range g.Elements {
		g.Elements[i] = math.NaN()
	}
	return g
}

// Rows returns the number of rows in the grid.
func (g *Grid) Rows() int { return g.Shape[0] }

// Cols returns the number of columns in the grid.
func (g *Grid) Cols() int { return g.Shape[1] }

// Lats returns the latitudes of the row centers, north to south.
func (g *Grid) Lats() []float64 {
	o := make([]float64, g.Rows())
	for r := range o {
		o[r], _ = RowColToLatLon(r, 0, g.Res, g.North, g.West)
	}
	return o
}

// Lons returns the longitudes of the column centers, west to east.
func (g *Grid) Lons() []float64 {
	o := make([]float64, g.Cols())
	for c := range o {
		_, o[c] = RowColToLatLon(0, c, g.Res, g.North, g.West)
	}
	return o
}

// MaxFinite returns the largest value in the grid that is neither NaN
// nor infinite. It returns NaN if there is no such value.
func (g *Grid) MaxFinite() float64 {
	max := math.NaN()
	for _, v := range g.Elements {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if math.IsNaN(max) || v > max {
			max = v
		}
	}
	return max
}

// Sum returns the sum of all the values in the grid.
func (g *Grid) Sum() float64 { return floats.Sum(g.Elements) }

// LatLonToRowCol returns the row and column of the cell containing the
// given point in a grid with resolution res whose top edge is at latitude
// north and left edge at longitude west.
func LatLonToRowCol(lat, lon, res, north, west float64) (row, col int) {
	row = int(math.RoundToEven((north-lat)/res - 0.5))
	col = int(math.RoundToEven((lon-west)/res - 0.5))
	return row, col
}

// RowColToLatLon returns the latitude and longitude of the center
// of the given cell. It is the inverse of LatLonToRowCol.
func RowColToLatLon(row, col int, res, north, west float64) (lat, lon float64) {
	lat = north - float64(row)*res - res/2
	lon = west + float64(col)*res + res/2
	return lat, lon
}

// kmPerDegree is the length of one degree of longitude at the equator.
const kmPerDegree = 40075.0 / 360

// CellArea returns a grid with the same geometry as g holding the
// approximate surface area of each cell in km².
func CellArea(g *Grid) *Grid {
	o := NewGrid(g.Rows(), g.Cols(), g.Res, g.North, g.West)
	side := kmPerDegree * g.Res
	for r, lat := range g.Lats() {
		a := side * side * math.Cos(lat*math.Pi/180)
		for c := 0; c < g.Cols(); c++ {
			o.Set(a, r, c)
		}
	}
	return o
}
