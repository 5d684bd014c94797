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
	"path/filepath"
	"strconv"
)

// NativeRes is the resolution of the MERIT Hydro rasters in degrees
// (3 arc-seconds).
const NativeRes = 5.0 / 6000

// Latitude and longitude bands of the MERIT Hydro distribution archives.
// Each archive covers 30°×30° and is named after its southwest corner.
var (
	latBands = []string{"n60", "n30", "n00", "s30", "s60"}
	lonBands = []string{"w180", "w150", "w120", "w090", "w060", "w030",
		"e000", "e030", "e060", "e090", "e120", "e150"}
)

// TileID identifies one upstream area archive in the MERIT Hydro
// distribution.
type TileID struct {
	Lat, Lon string
}

// TileIDs returns the identifiers of all 60 upstream area archives.
func TileIDs() []TileID {
	o := make([]TileID, 0, len(latBands)*len(lonBands))
	for _, lat := range latBands {
		for _, lon := range lonBands {
			o = append(o, TileID{Lat: lat, Lon: lon})
		}
	}
	return o
}

func (t TileID) String() string { return "upa_" + t.Lat + t.Lon }

// Archive returns the file name of the archive on the remote server.
func (t TileID) Archive() string { return t.String() + ".tar" }

// Dir returns the name of the directory the archive extracts to.
func (t TileID) Dir() string { return t.String() }

// ParseTileCorner returns the latitude and longitude of the southwest corner
// of a MERIT Hydro raster from its file name, e.g. "n30w120_upa.tif"
// or "s05e010_upa.tif".
func ParseTileCorner(path string) (lat, lon float64, err error) {
	name := filepath.Base(path)
	if len(name) < 7 {
		return 0, 0, fmt.Errorf("meritldd: invalid tile name %q", name)
	}
	lat, err = parseCoordToken(name[:3], 'n', 's')
	if err != nil {
		return 0, 0, fmt.Errorf("meritldd: tile %q latitude: %w", name, err)
	}
	lon, err = parseCoordToken(name[3:7], 'e', 'w')
	if err != nil {
		return 0, 0, fmt.Errorf("meritldd: tile %q longitude: %w", name, err)
	}
	return lat, lon, nil
}

// parseCoordToken parses a hemisphere letter followed by whole degrees.
func parseCoordToken(tok string, pos, neg byte) (float64, error) {
	var sign float64
	switch tok[0] {
	case pos:
		sign = 1
	case neg:
		sign = -1
	default:
		return 0, fmt.Errorf("invalid hemisphere in %q", tok)
	}
	v, err := strconv.Atoi(tok[1:])
	if err != nil {
		return 0, fmt.Errorf("invalid degrees in %q", tok)
	}
	return sign * float64(v), nil
}
