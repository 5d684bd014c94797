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

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/meritldd"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage string
	defaultVal  interface{}
	flagsets    []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to MeritLDD.
	// Only options with flag sets are available as command-line flags;
	// the others are read from the configuration file or the environment.
	options = []struct {
		name, usage string
		defaultVal  interface{}
		flagsets    []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "config.cfg",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "res",
			usage: `
              res is the output resolution in degrees. It must be a whole
              multiple of the MERIT Hydro resolution of 5/6000 degrees.`,
		},
		{
			name: "merit_folder",
			usage: `
              merit_folder is the directory the MERIT Hydro tiles are
              downloaded to. The global grid cache is also kept here.`,
		},
		{
			name: "output_folder",
			usage: `
              output_folder is the directory ldd.nc, ups.nc and the
              quick-look plots are written to.`,
		},
		{
			name: "clonemap_path",
			usage: `
              clonemap_path is the NetCDF file defining the output grid. It
              must have lat and lon variables and at least one 2-D variable.`,
		},
		{
			name: "credentials_file",
			usage: `
              credentials_file holds the MERIT Hydro user name and password
              on its first two lines.`,
			defaultVal: "merit_user_pw.txt",
		},
		{
			name: "merit_url",
			usage: `
              merit_url is the address of the MERIT Hydro archives.`,
			defaultVal: DefaultBaseURL,
		},
		{
			name: "gaussian_sigma",
			usage: `
              gaussian_sigma is the standard deviation, in grid cells, of
              the smoothing used to build slopes across flat areas and
              open water.`,
			defaultVal: meritldd.DefaultDrainageConfig().Sigma,
		},
		{
			name: "gradient_scale",
			usage: `
              gradient_scale is the height of the slopes built across flat
              areas and open water.`,
			defaultVal: meritldd.DefaultDrainageConfig().GradientScale,
		},
		{
			name: "elevation_ceiling",
			usage: `
              elevation_ceiling is the constant upstream area is subtracted
              from to form the synthetic elevation. It is also the value
              given to ocean and no-data cells in the tiles.`,
			defaultVal: meritldd.DefaultDrainageConfig().Ceiling,
		},
		{
			name: "download_retries",
			usage: `
              download_retries is the number of times a failed tile
              download is retried.`,
			defaultVal: 3,
		},
		{
			name: "show_plots",
			usage: `
              show_plots specifies whether to open the quick-look plots
              in the system image viewer.`,
			defaultVal: false,
		},
		{
			name: "log_level",
			usage: `
              log_level is the logging verbosity: debug, info, warn or
              error.`,
			defaultVal: "info",
		},
	}

	Cfg = viper.New()
	Cfg.SetConfigType("properties")

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("MERITLDD")
	Cfg.AutomaticEnv()

	for _, option := range options {
		if option.defaultVal != nil {
			Cfg.SetDefault(option.name, option.defaultVal)
		}
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				set.String(option.name, option.defaultVal.(string), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(fetchCmd)
	Root.AddCommand(mosaicCmd)
}

// setConfig reads in the configuration file.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return configErrorf("problem reading configuration file: %v", err)
		}
	}
	return nil
}

// loadConfig reads the typed configuration from Cfg, sets the log level
// and creates the working directories.
func loadConfig() (*Config, error) {
	cfg, err := LoadConfig(Cfg)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(cfg.LogLevel)
	logrus.WithFields(logrus.Fields(ConfigMap(Cfg))).Debug("configuration")
	return cfg, PrepareDirs(cfg)
}

// Root is the main command. Run without a subcommand, it runs the whole
// pipeline.
var Root = &cobra.Command{
	Use:   "meritldd",
	Short: "Derive drainage direction maps from MERIT Hydro.",
	Long: `MeritLDD derives a local drainage direction (LDD) map and a matching
upstream area map from the MERIT Hydro upstream area dataset at a chosen
resolution, cropped to the extent of a reference (clone) map.

Run without a subcommand to run the whole pipeline, or use the subcommands
below to run individual stages.
Configuration is read from a file of name=value lines (by default
config.cfg in the working directory; use --config to choose another) or
from environment variables in the format 'MERITLDD_var' where 'var' is
the name of the setting. Paths may contain environment variables.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of MeritLDD.",
	// The version does not depend on the configuration.
	PersistentPreRun: func(*cobra.Command, []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("MeritLDD v%s\n", meritldd.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline.",
	Long: `run downloads any missing MERIT Hydro tiles, builds or loads the
global upstream area grid, crops it to the clone map, derives the drainage
directions and upstream area, and writes ldd.nc, ups.nc and quick-look
plots to output_folder.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return Run(cmd.Context(), cfg)
	},
	DisableAutoGenTag: true,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the MERIT Hydro upstream area tiles.",
	Long: `fetch downloads and extracts all MERIT Hydro upstream area tiles
that are not already in merit_folder. Tiles that fail after retrying are
reported and can be fetched by running the command again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		report, err := FetchTiles(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if len(report.Failed) > 0 {
			return fmt.Errorf("lddutil: %d tiles could not be fetched", len(report.Failed))
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var mosaicCmd = &cobra.Command{
	Use:   "mosaic",
	Short: "Build the global upstream area grid.",
	Long: `mosaic resamples the downloaded tiles to the configured resolution
and saves the global grid to the cache in merit_folder, unless a cache
built from the same tiles at the same resolution already exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, err = GlobalGrid(cfg)
		return err
	},
	DisableAutoGenTag: true,
}
