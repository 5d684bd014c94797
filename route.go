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
	"container/heap"
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// LDD direction codes, laid out like a numeric keypad with north at the
// top: 7 8 9 / 4 5 6 / 1 2 3. Code 5 marks a pit (sink) and LDDNoData a
// cell without a direction.
const (
	LDDNoData uint8 = 0
	LDDPit    uint8 = 5
)

// lddOffsets holds the row and column offset of the downstream cell for
// each direction code.
var lddOffsets = [10][2]int{
	1: {1, -1}, 2: {1, 0}, 3: {1, 1},
	4: {0, -1}, 5: {0, 0}, 6: {0, 1},
	7: {-1, -1}, 8: {-1, 0}, 9: {-1, 1},
}

// lddCode returns the direction code pointing from a cell to the neighbor
// at the given row and column offset.
func lddCode(dr, dc int) uint8 {
	return uint8(5 - 3*dr + dc)
}

// LDD is a local drainage direction network: every cell holds the code
// of the single neighbor its water flows to.
type LDD struct {
	Rows, Cols int
	Dir        []uint8
}

// NewLDD returns an LDD with every cell set to LDDNoData.
func NewLDD(rows, cols int) *LDD {
	return &LDD{Rows: rows, Cols: cols, Dir: make([]uint8, rows*cols)}
}

// Downstream returns the index of the cell that cell i drains to. ok is
// false if i is a pit, has no data, or drains off the grid.
func (l *LDD) Downstream(i int) (j int, ok bool) {
	d := l.Dir[i]
	if d == LDDNoData || d == LDDPit || d > 9 {
		return 0, false
	}
	r, c := i/l.Cols+lddOffsets[d][0], i%l.Cols+lddOffsets[d][1]
	if r < 0 || r >= l.Rows || c < 0 || c >= l.Cols {
		return 0, false
	}
	return r*l.Cols + c, true
}

// Sink returns the index of the pit that cell i ultimately drains to. It
// returns an error if the path is longer than the number of cells, which
// can only happen if the network has a cycle.
func (l *LDD) Sink(i int) (int, error) {
	for steps := 0; steps <= len(l.Dir); steps++ {
		j, ok := l.Downstream(i)
		if !ok {
			return i, nil
		}
		i = j
	}
	return 0, fmt.Errorf("meritldd: drainage network has a cycle through cell %d", i)
}

// Grid returns the direction codes as a grid with the geometry of like.
// Cells without data are NaN.
func (l *LDD) Grid(like *Grid) *Grid {
	o := NewGrid(l.Rows, l.Cols, like.Res, like.North, like.West)
	for i, d := range l.Dir {
		if d == LDDNoData {
			o.Elements[i] = math.NaN()
		} else {
			o.Elements[i] = float64(d)
		}
	}
	return o
}

// Router derives a drainage network from an elevation surface. elev is a
// 2-D array and nodata marks the cells (in row-major order) to exclude;
// it may be nil. Implementations must return an acyclic network in which
// every cell with data drains to a pit.
type Router interface {
	Route(elev *sparse.DenseArray, nodata []bool) (*LDD, error)
}

// PriorityFlood routes flow by flooding the surface from its regional
// minima. Each regional minimum (a connected set of equal-elevation
// cells with no lower neighbor) gets one pit. Cells are then claimed in
// order of increasing flood level, and each cell drains to the neighbor
// that claimed it. Ties are broken in first-in first-out order, so flat
// areas drain along the shortest path. Depressions are not filled: every
// regional minimum keeps its own pit.
type PriorityFlood struct{}

// Route implements Router.
func (PriorityFlood) Route(elev *sparse.DenseArray, nodata []bool) (*LDD, error) {
	if len(elev.Shape) != 2 {
		return nil, fmt.Errorf("meritldd: Route needs a 2-D array, got %d dimensions", len(elev.Shape))
	}
	rows, cols := elev.Shape[0], elev.Shape[1]
	n := rows * cols
	if nodata != nil && len(nodata) != n {
		return nil, fmt.Errorf("meritldd: nodata mask has %d cells but the surface has %d", len(nodata), n)
	}
	z := elev.Elements
	valid := func(i int) bool {
		return !math.IsNaN(z[i]) && (nodata == nil || !nodata[i])
	}
	ldd := NewLDD(rows, cols)

	hasLower := make([]bool, n)
	for i := 0; i < n; i++ {
		if !valid(i) {
			continue
		}
		forNeighbors(i, rows, cols, func(j, _, _ int) {
			if valid(j) && z[j] < z[i] {
				hasLower[i] = true
			}
		})
	}

	var q floodQueue
	claimed := make([]bool, n)
	push := func(i int, level float64) {
		heap.Push(&q, floodItem{level: level, seq: q.seq, cell: i})
		q.seq++
	}

	// Find regional minima by walking each equal-elevation component.
	seen := make([]bool, n)
	var stack []int
	for i := 0; i < n; i++ {
		if seen[i] || !valid(i) || hasLower[i] {
			continue
		}
		stack = append(stack[:0], i)
		seen[i] = true
		isMin := true
		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if hasLower[c] {
				isMin = false
			}
			forNeighbors(c, rows, cols, func(j, _, _ int) {
				if !seen[j] && valid(j) && z[j] == z[c] {
					seen[j] = true
					stack = append(stack, j)
				}
			})
		}
		if !isMin {
			continue
		}
		// The scan reaches the first cell of each component first.
		pit := i
		ldd.Dir[pit] = LDDPit
		claimed[pit] = true
		push(pit, z[pit])
	}

	for q.Len() > 0 {
		it := heap.Pop(&q).(floodItem)
		forNeighbors(it.cell, rows, cols, func(j, dr, dc int) {
			if claimed[j] || !valid(j) {
				return
			}
			claimed[j] = true
			ldd.Dir[j] = lddCode(-dr, -dc)
			push(j, math.Max(z[j], it.level))
		})
	}

	for i := 0; i < n; i++ {
		if valid(i) && !claimed[i] {
			return nil, fmt.Errorf("meritldd: cell %d was not reached by any pit", i)
		}
	}
	return ldd, nil
}

// forNeighbors calls f for each of the up to 8 neighbors of cell i, with
// the neighbor's index and its row and column offset from i.
func forNeighbors(i, rows, cols int, f func(j, dr, dc int)) {
	r, c := i/cols, i%cols
	for dr := -1; dr <= 1; dr++ {
		rr := r + dr
		if rr < 0 || rr >= rows {
			continue
		}
		for dc := -1; dc <= 1; dc++ {
			cc := c + dc
			if (dr == 0 && dc == 0) || cc < 0 || cc >= cols {
				continue
			}
			f(rr*cols+cc, dr, dc)
		}
	}
}

type floodItem struct {
	level float64
	seq   int
	cell  int
}

// floodQueue is a min-heap of cells ordered by flood level and then by
// insertion order.
type floodQueue struct {
	items []floodItem
	seq   int
}

func (q *floodQueue) Len() int { return len(q.items) }
func (q *floodQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.level != b.level {
		return a.level < b.level
	}
	return a.seq < b.seq
}
func (q *floodQueue) Swap(i, j int)      { q.items[i], q.items[j] = q.items[j], q.items[i] }
func (q *floodQueue) Push(x interface{}) { q.items = append(q.items, x.(floodItem)) }
func (q *floodQueue) Pop() interface{} {
	old := q.items
	it := old[len(old)-1]
	q.items = old[:len(old)-1]
	return it
}
