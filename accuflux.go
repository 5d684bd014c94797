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
)

// Accumulate returns, for every cell, the sum of material (e.g., cell area)
// over the cell itself and all cells upstream of it in ldd. material holds
// one value per cell in row-major order. Cells without a direction are
// NaN in the result. An error is returned if ldd contains a cycle.
func Accumulate(ldd *LDD, material []float64) ([]float64, error) {
	n := len(ldd.Dir)
	if len(material) != n {
		return nil, fmt.Errorf("meritldd: Accumulate: %d material values for %d cells", len(material), n)
	}
	acc := make([]float64, n)
	inflow := make([]int32, n)
	for i, d := range ldd.Dir {
		if d == LDDNoData {
			acc[i] = math.NaN()
			continue
		}
		acc[i] = material[i]
		if j, ok := ldd.Downstream(i); ok {
			if ldd.Dir[j] == LDDNoData {
				return nil, fmt.Errorf("meritldd: cell %d drains into cell %d, which has no direction", i, j)
			}
			inflow[j]++
		}
	}

	// Start from the headwater cells and pass each total downstream once
	// all of a cell's inflows have arrived.
	queue := make([]int, 0, n)
	for i, d := range ldd.Dir {
		if d != LDDNoData && inflow[i] == 0 {
			queue = append(queue, i)
		}
	}
	done := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		done++
		j, ok := ldd.Downstream(i)
		if !ok {
			continue
		}
		acc[j] += acc[i]
		inflow[j]--
		if inflow[j] == 0 {
			queue = append(queue, j)
		}
	}

	valid := 0
	for _, d := range ldd.Dir {
		if d != LDDNoData {
			valid++
		}
	}
	if done != valid {
		return nil, fmt.Errorf("meritldd: drainage network has a cycle (%d of %d cells resolved)", done, valid)
	}
	return acc, nil
}
