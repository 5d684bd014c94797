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
	"os"
	"path/filepath"
	"testing"
)

func TestPlotLog10(t *testing.T) {
	g := NewGrid(20, 40, 1, 10, 0)
	for i := range g.Elements {
		g.Elements[i] = math.Pow(10, float64(i%8))
	}
	g.Elements[3] = math.NaN()
	g.Elements[4] = 0

	path := filepath.Join(t.TempDir(), "ups.png")
	if err := PlotLog10(g, "test", path); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("plot was not written: %v", err)
	}
}

func TestLog10GridDecimate(t *testing.T) {
	g := NewGrid(3, 5000, 1, 0, 0)
	for i := range g.Elements {
		g.Elements[i] = 1e8
	}
	lg := log10Grid{g: g, step: 3, min: 0, max: 6}
	c, r := lg.Dims()
	if c != 1667 || r != 1 {
		t.Errorf("dims: want 1667×1, have %d×%d", c, r)
	}
	if z := lg.Z(0, 0); z != 6 {
		t.Errorf("values above the range should be clamped, have %g", z)
	}
}
