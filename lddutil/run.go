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

package lddutil

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/gosuri/uiprogress"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spatialmodel/meritldd"
)

// FetchTiles downloads any missing upstream area tiles for cfg. Tiles that
// fail are logged and the run continues with the tiles present on disk.
func FetchTiles(ctx context.Context, cfg *Config) (*FetchReport, error) {
	creds, err := ReadCredentials(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	f := &TileFetcher{
		BaseURL:     cfg.BaseURL,
		Dir:         cfg.TileDir,
		Credentials: creds,
		MaxRetries:  cfg.MaxRetries,
	}
	report, err := f.Fetch(ctx, meritldd.TileIDs())
	if err != nil {
		return report, err
	}
	logrus.WithFields(logrus.Fields{
		"fetched": len(report.Fetched),
		"skipped": len(report.Skipped),
		"failed":  len(report.Failed),
	}).Info("tile download finished")
	return report, nil
}

// GlobalGrid returns the global upstream area grid for cfg, loading it
// from the cache when the cache matches the current tile set and
// resolution and building (and caching) it otherwise.
func GlobalGrid(cfg *Config) (*meritldd.Grid, error) {
	return globalGrid(cfg, meritldd.GDALTileReader{})
}

func globalGrid(cfg *Config, reader meritldd.TileReader) (*meritldd.Grid, error) {
	tiles, err := meritldd.FindTiles(cfg.TileDir)
	if err != nil {
		return nil, err
	}
	if len(tiles) == 0 {
		return nil, fmt.Errorf("lddutil: no tiles found in %s", cfg.TileDir)
	}
	key := meritldd.CacheKey(cfg.Resolution, cfg.Drainage.Ceiling, tiles)
	cache := &meritldd.GlobalCache{Path: cfg.CachePath()}
	g, ok, err := cache.Load(key)
	if err != nil {
		return nil, err
	}
	if ok {
		logrus.WithField("path", cache.Path).Info("loaded global grid from cache")
		return g, nil
	}

	logrus.WithFields(logrus.Fields{
		"tiles":      len(tiles),
		"resolution": cfg.Resolution,
	}).Info("building global grid")
	progress := uiprogress.New()
	progress.Start()
	bar := progress.AddBar(len(tiles)).AppendCompleted().PrependElapsed()
	b := &meritldd.MosaicBuilder{
		Res:      cfg.Resolution,
		Reader:   reader,
		Sentinel: cfg.Drainage.Ceiling,
		OnTile:   func(meritldd.TileFile) { bar.Incr() },
	}
	g, err = b.Build(tiles)
	progress.Stop()
	if err != nil {
		return nil, err
	}
	if err := cache.Save(g, key); err != nil {
		return nil, err
	}
	return g, nil
}

// Run runs the whole pipeline: it fetches missing tiles, builds or loads
// the global grid, crops it to the clone map, derives the drainage
// network, and writes ldd.nc, ups.nc and the quick-look plots to the
// output directory.
func Run(ctx context.Context, cfg *Config) error {
	if err := PrepareDirs(cfg); err != nil {
		return err
	}
	if _, err := FetchTiles(ctx, cfg); err != nil {
		return err
	}
	global, err := GlobalGrid(cfg)
	if err != nil {
		return err
	}
	return derive(cfg, global)
}

func derive(cfg *Config, global *meritldd.Grid) error {
	clone, err := meritldd.ReadClone(cfg.CloneMap)
	if err != nil {
		return err
	}
	ups, err := meritldd.Crop(global, clone, cfg.Resolution)
	if err != nil {
		return err
	}
	start := time.Now()
	d, err := meritldd.Derive(ups, meritldd.PriorityFlood{}, cfg.Drainage)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"rows":    ups.Rows(),
		"cols":    ups.Cols(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("derived drainage network")

	lddPath := filepath.Join(cfg.OutputDir, "ldd.nc")
	if err := meritldd.WriteNetCDF(lddPath, "ldd", d.LDD, godal.Int16); err != nil {
		return err
	}
	upsPath := filepath.Join(cfg.OutputDir, "ups.nc")
	if err := meritldd.WriteNetCDF(upsPath, "ups", d.Ups, godal.Float32); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"ldd": lddPath, "ups": upsPath}).Info("wrote output files")

	plots := []struct {
		g           *meritldd.Grid
		title, file string
	}{
		{d.Ups, "Derived upstream area (log10 km²)", "ups_derived.png"},
		{global, "MERIT Hydro upstream area (log10 km²)", "ups_merit_global.png"},
	}
	for _, p := range plots {
		path := filepath.Join(cfg.OutputDir, p.file)
		if err := meritldd.PlotLog10(p.g, p.title, path); err != nil {
			return err
		}
		if cfg.ShowPlots {
			if err := open.Run(path); err != nil {
				logrus.WithField("path", path).Warnf("could not open plot: %v", err)
			}
		}
	}
	return nil
}
