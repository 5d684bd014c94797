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
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/meritldd"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config holds the typed settings of a run.
type Config struct {
	// Resolution is the output resolution in degrees. It must be a whole
	// multiple of meritldd.NativeRes.
	Resolution float64

	// TileDir is where the MERIT Hydro tiles are downloaded and extracted,
	// and where the global grid cache is kept.
	TileDir string

	// OutputDir receives ldd.nc, ups.nc and the quick-look plots.
	OutputDir string

	// CloneMap is the reference grid file.
	CloneMap string

	// CredentialsFile holds the MERIT Hydro user name and password.
	CredentialsFile string

	// BaseURL is the address of the upstream area archives.
	BaseURL string

	Drainage meritldd.DrainageConfig

	// MaxRetries is the number of times a failed tile download is retried.
	MaxRetries int

	// ShowPlots opens the quick-look plots in the system viewer.
	ShowPlots bool

	LogLevel logrus.Level
}

// CachePath returns the location of the global grid cache.
func (c *Config) CachePath() string {
	return filepath.Join(c.TileDir, fmt.Sprintf("upa_global_%gdeg.nc", c.Resolution))
}

// requiredKeys must be present in every configuration.
var requiredKeys = []string{"res", "merit_folder", "output_folder", "clonemap_path"}

// ConfigMap returns every setting in cfg, with values that can be
// interpreted as numbers converted to float64 and all others kept as
// strings.
func ConfigMap(cfg *viper.Viper) map[string]interface{} {
	o := make(map[string]interface{})
	for _, k := range cfg.AllKeys() {
		v := cfg.Get(k)
		if f, err := cast.ToFloat64E(v); err == nil {
			o[k] = f
		} else {
			o[k] = cast.ToString(v)
		}
	}
	return o
}

// LoadConfig reads the run settings from cfg. Missing required keys,
// malformed numbers and a resolution that is not a whole multiple of the
// MERIT Hydro resolution result in an error wrapping meritldd.ErrConfig.
func LoadConfig(cfg *viper.Viper) (*Config, error) {
	for _, k := range requiredKeys {
		if cfg.GetString(k) == "" {
			return nil, configErrorf("missing required setting %q", k)
		}
	}
	c := &Config{
		TileDir:         os.ExpandEnv(cfg.GetString("merit_folder")),
		OutputDir:       os.ExpandEnv(cfg.GetString("output_folder")),
		CloneMap:        os.ExpandEnv(cfg.GetString("clonemap_path")),
		CredentialsFile: os.ExpandEnv(cfg.GetString("credentials_file")),
		BaseURL:         cfg.GetString("merit_url"),
	}
	var err error
	if c.Resolution, err = floatSetting(cfg, "res"); err != nil {
		return nil, err
	}
	if _, err := meritldd.ResampleFactor(c.Resolution); err != nil {
		return nil, err
	}
	if c.Drainage.Sigma, err = floatSetting(cfg, "gaussian_sigma"); err != nil {
		return nil, err
	}
	if c.Drainage.GradientScale, err = floatSetting(cfg, "gradient_scale"); err != nil {
		return nil, err
	}
	if c.Drainage.Ceiling, err = floatSetting(cfg, "elevation_ceiling"); err != nil {
		return nil, err
	}
	if c.MaxRetries, err = cast.ToIntE(cfg.Get("download_retries")); err != nil {
		return nil, configErrorf("download_retries: %v", err)
	}
	if c.ShowPlots, err = cast.ToBoolE(cfg.Get("show_plots")); err != nil {
		return nil, configErrorf("show_plots: %v", err)
	}
	if c.LogLevel, err = logrus.ParseLevel(cfg.GetString("log_level")); err != nil {
		return nil, configErrorf("log_level: %v", err)
	}
	return c, nil
}

func floatSetting(cfg *viper.Viper, key string) (float64, error) {
	f, err := cast.ToFloat64E(cfg.Get(key))
	if err != nil {
		return 0, configErrorf("%s: %v", key, err)
	}
	return f, nil
}

func configErrorf(format string, a ...interface{}) error {
	return fmt.Errorf("lddutil: %w: %s", meritldd.ErrConfig, fmt.Sprintf(format, a...))
}

// PrepareDirs creates the tile and output directories if they do not
// already exist.
func PrepareDirs(c *Config) error {
	for _, dir := range []string{c.TileDir, c.OutputDir} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("lddutil: creating directory: %w", err)
		}
	}
	return nil
}
