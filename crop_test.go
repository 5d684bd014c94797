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
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
)

// regularClone returns a clone grid with rows×cols cells whose northwest
// corner is at (north, west).
func regularClone(rows, cols int, res, north, west float64) *Clone {
	c := &Clone{Res: res, Lat: make([]float64, rows), Lon: make([]float64, cols)}
	for i := range c.Lat {
		c.Lat[i] = north - res/2 - float64(i)*res
	}
	for i := range c.Lon {
		c.Lon[i] = west + res/2 + float64(i)*res
	}
	return c
}

func TestCrop(t *testing.T) {
	global := NewGlobalGrid(1)
	for i := range global.Elements {
		global.Elements[i] = float64(i % 100)
	}
	global.Set(math.NaN(), 10, 190) // lat 79.5, lon 10.5
	global.Set(1234, 100, 100)      // outside the clone

	clone := regularClone(3, 4, 1, 81, 8)
	o, err := Crop(global, clone, 1)
	if err != nil {
		t.Fatal(err)
	}
	if o.Rows() != 3 || o.Cols() != 4 {
		t.Fatalf("shape: %d×%d", o.Rows(), o.Cols())
	}
	if o.North != 81 || o.West != 8 {
		t.Errorf("origin: (%g, %g)", o.North, o.West)
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			want := global.Get(9+r, 188+c)
			if r == 1 && c == 2 {
				want = 1234
			}
			if have := o.Get(r, c); have != want {
				t.Errorf("cell (%d, %d): want %g, have %g", r, c, want, have)
			}
		}
	}
	if !math.IsNaN(global.Get(10, 190)) {
		t.Error("the global grid should not be modified")
	}
}

func TestCropSouthUp(t *testing.T) {
	global := NewGlobalGrid(1)
	for i := range global.Elements {
		global.Elements[i] = float64(i)
	}
	north := regularClone(2, 2, 1, 1, 0)
	south := regularClone(2, 2, 1, 1, 0)
	south.Lat[0], south.Lat[1] = south.Lat[1], south.Lat[0]

	a, err := Crop(global, north, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Crop(global, south, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Elements {
		if a.Elements[i] != b.Elements[i] {
			t.Errorf("cell %d: %g != %g", i, a.Elements[i], b.Elements[i])
		}
	}
}

func TestCropOutsideGlobal(t *testing.T) {
	global := NewGrid(2, 2, 1, 1, 0)
	copy(global.Elements, []float64{1, 2, 3, 4})
	o, err := Crop(global, regularClone(2, 3, 1, 1, 0), 1)
	if err != nil {
		t.Fatal(err)
	}
	if v := o.Get(0, 2); v != 4 {
		t.Errorf("cell outside the global grid: want 4, have %g", v)
	}
}

func TestCropResolutionMismatch(t *testing.T) {
	global := NewGlobalGrid(1)
	if _, err := Crop(global, regularClone(2, 2, 0.5, 1, 0), 1); !errors.Is(err, ErrConfig) {
		t.Errorf("want a configuration error, have %v", err)
	}
	if _, err := Crop(global, regularClone(2, 2, 1+1e-9, 1, 0), 1); err != nil {
		t.Errorf("difference below tolerance: %v", err)
	}
}

// writeClone writes a classic netCDF clone map for c.
func writeClone(t *testing.T, path string, c *Clone) {
	t.Helper()
	h := cdf.NewHeader([]string{"lat", "lon"}, []int{len(c.Lat), len(c.Lon)})
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddVariable("mask", []string{"lat", "lon"}, []float32{0})
	h.Define()
	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	f, err := cdf.Create(w, h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Writer("lat", []int{0}, []int{len(c.Lat)}).Write(c.Lat); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Writer("lon", []int{0}, []int{len(c.Lon)}).Write(c.Lon); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Writer("mask", []int{0, 0}, []int{len(c.Lat), len(c.Lon)}).Write(make([]float32, len(c.Lat)*len(c.Lon))); err != nil {
		t.Fatal(err)
	}
	if err := cdf.UpdateNumRecs(w); err != nil {
		t.Fatal(err)
	}
}

func TestReadClone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clone.nc")
	want := regularClone(4, 6, 0.25, 45, 5)
	writeClone(t, path, want)

	c, err := ReadClone(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Lat) != 4 || len(c.Lon) != 6 {
		t.Fatalf("axes: %d lat, %d lon", len(c.Lat), len(c.Lon))
	}
	if math.Abs(c.Res-0.25) > 1e-12 {
		t.Errorf("res: want 0.25, have %g", c.Res)
	}
	if c.North() != 45 || c.West() != 5 {
		t.Errorf("origin: (%g, %g)", c.North(), c.West())
	}
}

func TestReadCloneMissing(t *testing.T) {
	if _, err := ReadClone(filepath.Join(t.TempDir(), "missing.nc")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
