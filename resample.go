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
)

// ResampleFactor returns the number of native MERIT Hydro cells along each
// edge of a cell at resolution res. The ratio is rounded to 12 decimal
// places before checking that it is a whole number; an error wrapping
// ErrConfig is returned if it is not.
func ResampleFactor(res float64) (int, error) {
	if !(res > 0) {
		return 0, configErrorf("resolution must be positive, got %g", res)
	}
	f := math.Round(res/NativeRes*1e12) / 1e12
	if f != math.Round(f) || f < 1 {
		return 0, configErrorf("resize factor of %g is not an integer; the resolution %g "+
			"must be a whole multiple of %g", f, res, NativeRes)
	}
	return int(f), nil
}

// ResampleMax downsamples the 2-D array a by splitting it into
// factor×factor blocks and keeping the largest value in each block.
// NaN values are ignored unless the whole block is NaN. Trailing rows or
// columns that do not fill a block are dropped.
func ResampleMax(a *sparse.DenseArray, factor int) (*sparse.DenseArray, error) {
	if len(a.Shape) != 2 {
		return nil, fmt.Errorf("meritldd: ResampleMax needs a 2-D array, got %d dimensions", len(a.Shape))
	}
	if factor < 1 {
		return nil, configErrorf("resize factor must be at least 1, got %d", factor)
	}
	stride := a.Shape[1]
	ny, nx := a.Shape[0]/factor, stride/factor
	o := sparse.ZerosDense(ny, nx)
	for i := range o.Elements {
		o.Elements[i] = math.NaN()
	}
	// Row-major sweep over the source; each source row updates one row of blocks.
	for ii := 0; ii < ny*factor; ii++ {
		src := a.Elements[ii*stride : ii*stride+nx*factor]
		dst := o.Elements[(ii/factor)*nx : (ii/factor+1)*nx]
		for jj, v := range src {
			j := jj / factor
			if v > dst[j] || math.IsNaN(dst[j]) {
				dst[j] = v
			}
		}
	}
	return o, nil
}
