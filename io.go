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
	"os"
	"path/filepath"
	"strconv"

	"github.com/airbusgeo/godal"
	"github.com/ctessum/sparse"
	"github.com/google/uuid"
)

// NoData is the missing value written to output files.
const NoData = -9999

func init() {
	godal.RegisterAll()
}

// GDALTileReader reads raster tiles with GDAL.
type GDALTileReader struct{}

// ReadTile implements TileReader. Only the first band is read.
func (GDALTileReader) ReadTile(path string) (*sparse.DenseArray, error) {
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, err
	}
	defer ds.Close()
	st := ds.Structure()
	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("%s has no raster bands", path)
	}
	buf := make([]float64, st.SizeX*st.SizeY)
	if err := bands[0].Read(0, 0, buf, st.SizeX, st.SizeY); err != nil {
		return nil, err
	}
	a := sparse.ZerosDense(st.SizeY, st.SizeX)
	a.Elements = buf
	return a, nil
}

// OutputOptions controls the NetCDF output files.
type OutputOptions struct {
	// DeflateLevel is the zlib compression level, 1 to 9.
	DeflateLevel int
}

// DefaultOutputOptions are used by WriteNetCDF.
var DefaultOutputOptions = OutputOptions{DeflateLevel: 6}

// WriteNetCDF writes g to a compressed NetCDF-4 file at path as the 2-D
// variable varname with dimensions lat and lon, replacing any existing
// file. NaN cells are written as NoData. dtype is the storage type of
// the variable, e.g. godal.Int16 or godal.Float32.
func WriteNetCDF(path, varname string, g *Grid, dtype godal.DataType) error {
	return DefaultOutputOptions.WriteNetCDF(path, varname, g, dtype)
}

// WriteNetCDF writes g to path using the options in o.
// See the WriteNetCDF function for details.
func (o OutputOptions) WriteNetCDF(path, varname string, g *Grid, dtype godal.DataType) error {
	mem, err := godal.Create(godal.Memory, "", 1, dtype, g.Cols(), g.Rows())
	if err != nil {
		return fmt.Errorf("meritldd: writing %s: %w", path, err)
	}
	defer mem.Close()

	if err := mem.SetGeoTransform([6]float64{g.West, g.Res, 0, g.North, 0, -g.Res}); err != nil {
		return fmt.Errorf("meritldd: writing %s: %w", path, err)
	}
	sr, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return fmt.Errorf("meritldd: writing %s: %w", path, err)
	}
	defer sr.Close()
	if err := mem.SetSpatialRef(sr); err != nil {
		return fmt.Errorf("meritldd: writing %s: %w", path, err)
	}

	band := mem.Bands()[0]
	if err := band.SetNoData(NoData); err != nil {
		return fmt.Errorf("meritldd: writing %s: %w", path, err)
	}
	if err := band.SetMetadata("NETCDF_VARNAME", varname); err != nil {
		return fmt.Errorf("meritldd: writing %s: %w", path, err)
	}
	buf := make([]float64, len(g.Elements))
	for i, v := range g.Elements {
		if math.IsNaN(v) {
			v = NoData
		}
		buf[i] = v
	}
	if err := band.Write(0, 0, buf, g.Cols(), g.Rows()); err != nil {
		return fmt.Errorf("meritldd: writing %s: %w", path, err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("meritldd: replacing %s: %w", path, err)
	}
	// Translate into a temporary name so an existing reader never sees a
	// half-written file.
	tmp := filepath.Join(filepath.Dir(path), "."+uuid.New().String()+filepath.Ext(path))
	out, err := mem.Translate(tmp, nil,
		godal.DriverName("netCDF"),
		godal.CreationOption(
			"FORMAT=NC4",
			"COMPRESS=DEFLATE",
			"ZLEVEL="+strconv.Itoa(o.DeflateLevel),
			"CHUNKING=YES",
		))
	if err != nil {
		return fmt.Errorf("meritldd: writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("meritldd: writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("meritldd: writing %s: %w", path, err)
	}
	return nil
}
