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

// GaussianFilter returns a copy of the 2-D array a smoothed with a
// Gaussian kernel of standard deviation sigma cells. The kernel is
// truncated at 4 standard deviations and the array is mirrored at its
// edges (d c b a | a b c d | d c b a). A sigma of zero returns a copy.
func GaussianFilter(a *sparse.DenseArray, sigma float64) (*sparse.DenseArray, error) {
	if len(a.Shape) != 2 {
		return nil, fmt.Errorf("meritldd: GaussianFilter needs a 2-D array, got %d dimensions", len(a.Shape))
	}
	if sigma < 0 || math.IsNaN(sigma) {
		return nil, configErrorf("gaussian sigma must not be negative, got %g", sigma)
	}
	out := a.Copy()
	if sigma == 0 {
		return out, nil
	}
	k := gaussianKernel(sigma)
	ny, nx := a.Shape[0], a.Shape[1]

	// Rows.
	line := make([]float64, nx)
	for r := 0; r < ny; r++ {
		row := out.Elements[r*nx : (r+1)*nx]
		copy(line, row)
		convolve1D(row, line, k)
	}
	// Columns.
	col := make([]float64, ny)
	res := make([]float64, ny)
	for c := 0; c < nx; c++ {
		for r := 0; r < ny; r++ {
			col[r] = out.Elements[r*nx+c]
		}
		convolve1D(res, col, k)
		for r := 0; r < ny; r++ {
			out.Elements[r*nx+c] = res[r]
		}
	}
	return out, nil
}

// gaussianKernel returns the normalized weights for offsets
// -radius..radius.
func gaussianKernel(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	k := make([]float64, 2*radius+1)
	var sum float64
	for i := range k {
		x := float64(i - radius)
		k[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// convolve1D writes the convolution of src with the symmetric kernel k
// into dst, mirroring src at both ends.
func convolve1D(dst, src, k []float64) {
	n := len(src)
	radius := len(k) / 2
	for i := range dst {
		var v float64
		for j, w := range k {
			v += w * src[reflectIndex(i+j-radius, n)]
		}
		dst[i] = v
	}
}

// reflectIndex maps i onto [0, n) by mirroring about the array edges,
// repeating the edge value.
func reflectIndex(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
