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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// DefaultSentinel is the value that replaces negative (no-data and ocean)
// cells of the MERIT Hydro rasters. It is larger than any real upstream
// area so that max-resampling never lets an ocean cell be swallowed by a
// land cell, and rivers keep draining into the sea.
const DefaultSentinel = 9999999.

// TileReader reads the first band of a raster file into a 2-D array with
// shape [rows, cols], row 0 being the northern edge.
type TileReader interface {
	ReadTile(path string) (*sparse.DenseArray, error)
}

// TileFile describes one raster file found in the tile directory.
type TileFile struct {
	Name string
	Size int64
	path string
}

// FindTiles returns the raster files under dir in discovery order.
// Hidden directories are skipped.
func FindTiles(dir string) ([]TileFile, error) {
	var o []TileFile
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Hidden directories hold partial extractions.
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".tif") {
			return nil
		}
		o = append(o, TileFile{Name: info.Name(), Size: info.Size(), path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("meritldd: searching for tiles in %s: %w", dir, err)
	}
	return o, nil
}

// MosaicBuilder assembles the global upstream area grid from MERIT Hydro
// tiles.
type MosaicBuilder struct {
	// Res is the target resolution in degrees.
	Res float64

	// Reader reads the individual tiles.
	Reader TileReader

	// Sentinel replaces negative tile values. If zero, DefaultSentinel
	// is used.
	Sentinel float64

	// Log receives progress messages. If nil, the standard logger is used.
	Log logrus.FieldLogger

	// OnTile, if not nil, is called after each tile is inserted.
	OnTile func(TileFile)
}

func (b *MosaicBuilder) log() logrus.FieldLogger {
	if b.Log == nil {
		return logrus.StandardLogger()
	}
	return b.Log
}

// Build resamples every tile in tiles and inserts it into a new global
// grid. Cells not covered by any tile are NaN. Any error aborts the build.
func (b *MosaicBuilder) Build(tiles []TileFile) (*Grid, error) {
	factor, err := ResampleFactor(b.Res)
	if err != nil {
		return nil, err
	}
	sentinel := b.Sentinel
	if sentinel == 0 {
		sentinel = DefaultSentinel
	}
	global := NewGlobalGrid(b.Res)
	for _, tf := range tiles {
		start := time.Now()
		lat, lon, err := ParseTileCorner(tf.Name)
		if err != nil {
			return nil, err
		}
		tile, err := b.Reader.ReadTile(tf.path)
		if err != nil {
			return nil, fmt.Errorf("meritldd: reading tile %s: %w", tf.path, err)
		}
		for i, v := range tile.Elements {
			if v < 0 {
				tile.Elements[i] = sentinel
			}
		}
		small, err := ResampleMax(tile, factor)
		if err != nil {
			return nil, err
		}
		if err := global.Insert(small, lat, lon); err != nil {
			return nil, fmt.Errorf("meritldd: inserting tile %s: %w", tf.Name, err)
		}
		b.log().WithFields(logrus.Fields{
			"tile":    tf.Name,
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Debug("inserted tile")
		if b.OnTile != nil {
			b.OnTile(tf)
		}
	}
	return global, nil
}

// Insert copies the 2-D array block into g so that its southwest
// corner is at the given latitude and longitude.
func (g *Grid) Insert(block *sparse.DenseArray, latBottom, lonLeft float64) error {
	rowBottom, colLeft := LatLonToRowCol(latBottom+g.Res/2, lonLeft+g.Res/2, g.Res, g.North, g.West)
	ny, nx := block.Shape[0], block.Shape[1]
	rowTop := rowBottom - ny + 1
	if rowTop < 0 || rowBottom >= g.Rows() || colLeft < 0 || colLeft+nx > g.Cols() {
		return fmt.Errorf("block of %d×%d cells at (%g, %g) is outside the grid", ny, nx, latBottom, lonLeft)
	}
	for i := 0; i < ny; i++ {
		dst := (rowTop+i)*g.Cols() + colLeft
		copy(g.Elements[dst:dst+nx], block.Elements[i*nx:(i+1)*nx])
	}
	return nil
}

// cacheKeyTiles returns the tile list in a stable order for hashing.
func cacheKeyTiles(tiles []TileFile) []TileFile {
	o := make([]TileFile, len(tiles))
	copy(o, tiles)
	sort.Slice(o, func(i, j int) bool { return o[i].Name < o[j].Name })
	return o
}
