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

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/google/uuid"

	"github.com/spatialmodel/meritldd/internal/hash"
)

// DataVersion is the version of the global cache file format. Cache files
// with a different version are rebuilt rather than read.
const DataVersion = "1.0.0"

// CacheKey returns the key identifying the global grid built at resolution
// res from the given tiles, with negative tile values replaced by
// sentinel. Any change in resolution, sentinel, tile names or tile sizes
// changes the key.
func CacheKey(res, sentinel float64, tiles []TileFile) string {
	return hash.Key(DataVersion, res, sentinel, cacheKeyTiles(tiles))
}

// GlobalCache stores an assembled global upstream area grid on disk so it
// does not need to be rebuilt on every run.
type GlobalCache struct {
	// Path is the location of the cache file.
	Path string
}

// Load returns the cached grid if the cache file exists and was written
// with the given key and the current DataVersion. ok is false if the grid
// needs to be rebuilt.
func (c *GlobalCache) Load(key string) (g *Grid, ok bool, err error) {
	ff, err := os.Open(c.Path)
	if os.IsNotExist(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("meritldd: opening global cache: %w", err)
	}
	defer ff.Close()

	f, err := cdf.Open(ff)
	if err != nil {
		return nil, false, fmt.Errorf("meritldd: reading global cache %s: %w", c.Path, err)
	}
	version, _ := f.Header.GetAttribute("", "data_version").(string)
	storedKey, _ := f.Header.GetAttribute("", "cache_key").(string)
	if version != DataVersion || storedKey != key {
		return nil, false, nil
	}
	res, err := float64Attr(f, "res")
	if err != nil {
		return nil, false, err
	}
	north, err := float64Attr(f, "north")
	if err != nil {
		return nil, false, err
	}
	west, err := float64Attr(f, "west")
	if err != nil {
		return nil, false, err
	}

	dims := f.Header.Lengths("upa")
	if len(dims) != 2 {
		return nil, false, fmt.Errorf("meritldd: global cache %s: upa has %d dimensions", c.Path, len(dims))
	}
	tmp := make([]float32, dims[0]*dims[1])
	r := f.Reader("upa", nil, nil)
	if _, err := r.Read(tmp); err != nil {
		return nil, false, fmt.Errorf("meritldd: reading global cache %s: %w", c.Path, err)
	}
	g = &Grid{DenseArray: sparse.ZerosDense(dims...), Res: res, North: north, West: west}
	for i, v := range tmp {
		g.Elements[i] = float64(v)
	}
	return g, true, nil
}

func float64Attr(f *cdf.File, name string) (float64, error) {
	v, ok := f.Header.GetAttribute("", name).([]float64)
	if !ok || len(v) != 1 {
		return 0, fmt.Errorf("meritldd: global cache attribute %s is missing or malformed", name)
	}
	return v[0], nil
}

// Save writes g to the cache file under key. The grid is written to a
// temporary file in the same directory which is renamed when complete, so
// a failed write never leaves a cache file that appears valid.
func (c *GlobalCache) Save(g *Grid, key string) error {
	tmpPath := filepath.Join(filepath.Dir(c.Path), "."+filepath.Base(c.Path)+"."+uuid.New().String())
	w, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("meritldd: creating global cache: %w", err)
	}
	if err := writeCache(w, g, key); err != nil {
		w.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("meritldd: writing global cache: %w", err)
	}
	if err := w.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("meritldd: writing global cache: %w", err)
	}
	if err := os.Rename(tmpPath, c.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("meritldd: writing global cache: %w", err)
	}
	return nil
}

func writeCache(w *os.File, g *Grid, key string) error {
	h := cdf.NewHeader([]string{"lat", "lon"}, []int{g.Rows(), g.Cols()})
	h.AddAttribute("", "comment", "MeritLDD global upstream area cache")
	h.AddAttribute("", "res", []float64{g.Res})
	h.AddAttribute("", "north", []float64{g.North})
	h.AddAttribute("", "west", []float64{g.West})
	h.AddAttribute("", "cache_key", key)
	h.AddAttribute("", "data_version", DataVersion)
	h.AddVariable("upa", []string{"lat", "lon"}, []float32{0})
	h.AddAttribute("upa", "units", "km2")
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return err
	}
	data32 := make([]float32, len(g.Elements))
	for i, e := range g.Elements {
		data32[i] = float32(e)
	}
	if _, err := f.Writer("upa", []int{0, 0}, []int{g.Rows(), g.Cols()}).Write(data32); err != nil {
		return err
	}
	return cdf.UpdateNumRecs(w)
}
