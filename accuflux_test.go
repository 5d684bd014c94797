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
	"math/rand"
	"testing"
)

func TestAccumulateConservation(t *testing.T) {
	const rows, cols = 19, 27
	elev := randomSurface(rows, cols, 7)
	nodata := make([]bool, rows*cols)
	nodata[3] = true
	ldd, err := PriorityFlood{}.Route(elev, nodata)
	if err != nil {
		t.Fatal(err)
	}
	rnd := rand.New(rand.NewSource(1))
	area := make([]float64, rows*cols)
	for i := range area {
		area[i] = 1 + rnd.Float64()
	}
	acc, err := Accumulate(ldd, area)
	if err != nil {
		t.Fatal(err)
	}

	// Each pit receives exactly the area of the cells that drain to it.
	want := make(map[int]float64)
	var total float64
	for i, d := range ldd.Dir {
		if d == LDDNoData {
			continue
		}
		sink, err := ldd.Sink(i)
		if err != nil {
			t.Fatal(err)
		}
		want[sink] += area[i]
		total += area[i]
	}
	var pitTotal float64
	for sink, w := range want {
		if math.Abs(acc[sink]-w) > 1e-9*w {
			t.Errorf("pit %d: want %g, have %g", sink, w, acc[sink])
		}
		pitTotal += acc[sink]
	}
	if math.Abs(pitTotal-total) > 1e-9*total {
		t.Errorf("total: want %g, have %g", total, pitTotal)
	}
	if !math.IsNaN(acc[3]) {
		t.Errorf("no-data cell: want NaN, have %g", acc[3])
	}
	for i, d := range ldd.Dir {
		if d != LDDNoData && acc[i] < area[i] {
			t.Errorf("cell %d: accumulation %g is less than its own area %g", i, acc[i], area[i])
		}
	}
}

func TestAccumulateChain(t *testing.T) {
	// 1×4 row draining east into a pit.
	ldd := &LDD{Rows: 1, Cols: 4, Dir: []uint8{6, 6, 6, LDDPit}}
	acc, err := Accumulate(ldd, []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 3, 6, 10}
	for i, w := range want {
		if acc[i] != w {
			t.Errorf("cell %d: want %g, have %g", i, w, acc[i])
		}
	}
}

func TestAccumulateCycle(t *testing.T) {
	ldd := &LDD{Rows: 1, Cols: 3, Dir: []uint8{LDDPit, 6, 4}}
	if _, err := Accumulate(ldd, []float64{1, 1, 1}); err == nil {
		t.Error("expected an error for a cycle")
	}
	if _, err := ldd.Sink(1); err == nil {
		t.Error("Sink: expected an error for a cycle")
	}
}

func TestAccumulateMismatch(t *testing.T) {
	ldd := NewLDD(2, 2)
	if _, err := Accumulate(ldd, []float64{1}); err == nil {
		t.Error("expected an error for mismatched lengths")
	}
}
