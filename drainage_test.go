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
	"errors"
	"math"
	"testing"
)

// cornerPeak returns a 4×4 upstream area grid that is zero except for
// the northwest corner.
func cornerPeak() *Grid {
	g := NewGrid(4, 4, 1, 2, 10)
	g.Set(1000, 0, 0)
	return g
}

func testDrainageConfig() DrainageConfig {
	return DrainageConfig{Ceiling: DefaultSentinel, Sigma: 1, GradientScale: 100}
}

func TestDeriveCornerPeak(t *testing.T) {
	global := cornerPeak()
	clone := regularClone(4, 4, 1, global.North, global.West)
	ups, err := Crop(global, clone, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range ups.Elements {
		if ups.Elements[i] != global.Elements[i] {
			t.Fatalf("crop to the full extent changed cell %d", i)
		}
	}

	d, err := Derive(ups, PriorityFlood{}, testDrainageConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i := range d.Network.Dir {
		sink, err := d.Network.Sink(i)
		if err != nil {
			t.Fatal(err)
		}
		if sink != 0 {
			t.Errorf("cell %d drains to %d instead of the corner", i, sink)
		}
	}
	if v := d.LDD.Get(0, 0); v != float64(LDDPit) {
		t.Errorf("corner direction: want %d, have %g", LDDPit, v)
	}
	area := CellArea(ups).Sum()
	if have := d.Ups.Get(0, 0); math.Abs(have-area) > 1e-9*area {
		t.Errorf("corner upstream area: want %g, have %g", area, have)
	}
	if d.Ups.Res != 1 || d.Ups.North != 2 || d.Ups.West != 10 {
		t.Error("output geometry does not match the input")
	}
}

func TestSyntheticElevationFlat(t *testing.T) {
	elev, err := SyntheticElevation(cornerPeak(), testDrainageConfig())
	if err != nil {
		t.Fatal(err)
	}
	if v := elev.Get(0, 0); v != DefaultSentinel-1000 {
		t.Errorf("corner: want %g, have %g", DefaultSentinel-1000., v)
	}
	// Flat cells rise away from the corner and stay above it.
	for r := 0; r < 4; r++ {
		for c := 1; c < 4; c++ {
			if elev.Get(r, c) <= elev.Get(r, c-1) {
				t.Errorf("(%d, %d) = %g is not above (%d, %d) = %g", r, c, elev.Get(r, c), r, c-1, elev.Get(r, c-1))
			}
		}
	}
	top := math.Inf(-1)
	for i, v := range elev.Elements {
		if v > DefaultSentinel {
			t.Errorf("cell %d: %g is above the ceiling", i, v)
		}
		top = math.Max(top, v)
	}
	if top != DefaultSentinel {
		t.Errorf("the highest flat cell should be at the ceiling, have %g", top)
	}
}

func TestSyntheticElevationWater(t *testing.T) {
	// Land to the west, open water to the east.
	ups := NewGrid(1, 8, 1, 0, 0)
	copy(ups.Elements, []float64{5, 8, 20, DefaultSentinel, DefaultSentinel, DefaultSentinel, DefaultSentinel, DefaultSentinel})
	elev, err := SyntheticElevation(ups, testDrainageConfig())
	if err != nil {
		t.Fatal(err)
	}
	for c := 0; c < 3; c++ {
		if elev.Elements[c] <= 0 {
			t.Errorf("land cell %d: elevation %g should be positive", c, elev.Elements[c])
		}
	}
	if elev.Elements[3] != 0 {
		t.Errorf("the coastal water cell should be at zero, have %g", elev.Elements[3])
	}
	for c := 3; c < 8; c++ {
		if elev.Elements[c] > 0 {
			t.Errorf("water cell %d: elevation %g should not be positive", c, elev.Elements[c])
		}
		if c > 3 && elev.Elements[c] > elev.Elements[c-1] {
			t.Errorf("water cell %d is higher than the cell nearer the coast", c)
		}
	}

	d, err := Derive(ups, PriorityFlood{}, testDrainageConfig())
	if err != nil {
		t.Fatal(err)
	}
	sink, err := d.Network.Sink(0)
	if err != nil {
		t.Fatal(err)
	}
	if sink < 3 {
		t.Errorf("the river should reach the open water, it ends at %d", sink)
	}
}

func TestDeriveNoData(t *testing.T) {
	ups := cornerPeak()
	ups.Set(math.NaN(), 3, 3)
	d, err := Derive(ups, PriorityFlood{}, testDrainageConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(d.LDD.Get(3, 3)) || !math.IsNaN(d.Ups.Get(3, 3)) {
		t.Error("no-data cells should stay NaN")
	}
}

func TestDeriveBadConfig(t *testing.T) {
	cfg := testDrainageConfig()
	cfg.Ceiling = 0
	if _, err := Derive(cornerPeak(), PriorityFlood{}, cfg); !errors.Is(err, ErrConfig) {
		t.Errorf("want a configuration error, have %v", err)
	}
}
