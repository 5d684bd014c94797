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

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// Clone is the geometry of a reference ("clone") grid that output products
// must match.
type Clone struct {
	// Lat and Lon are the cell center coordinates, as stored in the file.
	Lat, Lon []float64

	// Res is the cell size in degrees.
	Res float64
}

// North returns the latitude of the top edge of the clone grid, whichever
// way its latitude axis is ordered.
func (c *Clone) North() float64 {
	return math.Max(c.Lat[0], c.Lat[len(c.Lat)-1]) + c.Res/2
}

// West returns the longitude of the left edge of the clone grid.
func (c *Clone) West() float64 { return c.Lon[0] - c.Res/2 }

// ReadClone reads the geometry of the reference grid stored in the netCDF
// file at path. The file must have 1-D "lat" and "lon" variables and at
// least one 2-D variable; the values of the 2-D variables are not read.
func ReadClone(path string) (*Clone, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("meritldd: opening clone map: %w", err)
	}
	defer nc.Close()

	c := new(Clone)
	if c.Lat, err = axisValues(nc, "lat"); err != nil {
		return nil, err
	}
	if c.Lon, err = axisValues(nc, "lon"); err != nil {
		return nil, err
	}
	if len(c.Lat) < 2 || len(c.Lon) < 2 {
		return nil, configErrorf("clone map %s must have at least 2 cells along each axis", path)
	}
	has2D := false
	for _, name := range nc.ListVariables() {
		vg, err := nc.GetVarGetter(name)
		if err != nil {
			return nil, fmt.Errorf("meritldd: clone map variable %s: %w", name, err)
		}
		if len(vg.Dimensions()) == 2 {
			has2D = true
			break
		}
	}
	if !has2D {
		return nil, configErrorf("clone map %s has no 2-D variable", path)
	}
	c.Res = c.Lon[1] - c.Lon[0]
	return c, nil
}

func axisValues(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, configErrorf("clone map has no %s variable: %v", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("meritldd: reading clone map %s: %w", name, err)
	}
	switch vv := v.(type) {
	case []float64:
		return vv, nil
	case []float32:
		o := make([]float64, len(vv))
		for i, x := range vv {
			o[i] = float64(x)
		}
		return o, nil
	default:
		return nil, configErrorf("clone map %s has unsupported type %T", name, v)
	}
}
