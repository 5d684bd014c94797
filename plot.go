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

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// maxPlotCols is the largest number of columns drawn in a quick-look
// plot; larger grids are decimated.
const maxPlotCols = 2000

// log10Grid adapts a Grid to plotter.GridXYZ, plotting log10 of the
// values clamped to [min, max].
type log10Grid struct {
	g        *Grid
	step     int
	min, max float64
}

func (l log10Grid) Dims() (c, r int) {
	return (l.g.Cols() + l.step - 1) / l.step, (l.g.Rows() + l.step - 1) / l.step
}

func (l log10Grid) Z(c, r int) float64 {
	// Rows are counted from the bottom in plotter.GridXYZ.
	_, nr := l.Dims()
	row := (nr - 1 - r) * l.step
	v := math.Log10(l.g.Elements[row*l.g.Cols()+c*l.step])
	switch {
	case math.IsNaN(v) || v < l.min:
		return l.min
	case v > l.max:
		return l.max
	}
	return v
}

func (l log10Grid) X(c int) float64 {
	return l.g.West + (float64(c*l.step)+0.5)*l.g.Res
}

func (l log10Grid) Y(r int) float64 {
	_, nr := l.Dims()
	return l.g.North - (float64((nr-1-r)*l.step)+0.5)*l.g.Res
}

// PlotLog10 saves a heat map of log10(g) to path as a quick-look image.
// The color scale runs from 0 to 6. The image format is chosen from the
// file extension (e.g. ".png").
func PlotLog10(g *Grid, title, path string) error {
	step := 1
	if g.Cols() > maxPlotCols {
		step = (g.Cols() + maxPlotCols - 1) / maxPlotCols
	}
	const zMin, zMax = 0., 6.

	cm := moreland.ExtendedBlackBody()
	cm.SetMin(zMin)
	cm.SetMax(zMax)
	hm := plotter.NewHeatMap(log10Grid{g: g, step: step, min: zMin, max: zMax}, cm.Palette(255))
	hm.Min, hm.Max = zMin, zMax

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.Add(hm)

	c, r := hm.GridXYZ.Dims()
	width := 10 * vg.Inch
	height := width * vg.Length(r) / vg.Length(c)
	if height < 2*vg.Inch {
		height = 2 * vg.Inch
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("meritldd: saving plot %s: %w", path, err)
	}
	return nil
}
