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
	"math"
)

// Crop returns the part of global covered by clone. res is the configured
// resolution, which must match the clone grid's resolution to within 1e-6
// degrees. Cells of the result that lie outside global or are NaN in
// global are set to the largest finite value in global, so that areas
// without data never attract drainage. global is not modified.
func Crop(global *Grid, clone *Clone, res float64) (*Grid, error) {
	if math.Round((clone.Res-res)*1e6) != 0 {
		return nil, configErrorf("clone map resolution %g does not match the configured resolution %g",
			clone.Res, res)
	}
	rows, cols := len(clone.Lat), len(clone.Lon)
	north, west := clone.North(), clone.West()
	r0, c0 := LatLonToRowCol(north-res/2, west+res/2, global.Res, global.North, global.West)

	fill := global.MaxFinite()
	o := NewGrid(rows, cols, res, north, west)
	for r := 0; r < rows; r++ {
		gr := r0 + r
		for c := 0; c < cols; c++ {
			gc := c0 + c
			v := math.NaN()
			if gr >= 0 && gr < global.Rows() && gc >= 0 && gc < global.Cols() {
				v = global.Elements[gr*global.Cols()+gc]
			}
			if math.IsNaN(v) {
				v = fill
			}
			o.Elements[r*cols+c] = v
		}
	}
	return o, nil
}
