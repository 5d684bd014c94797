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
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLoadConfigSetsLogLevel(t *testing.T) {
	dir := t.TempDir()
	contents := "res = 0.05\n" +
		"merit_folder = " + filepath.Join(dir, "tiles") + "\n" +
		"output_folder = " + filepath.Join(dir, "out") + "\n" +
		"clonemap_path = clone.nc\n" +
		"log_level = debug\n"

	saved, savedLevel := Cfg, logrus.GetLevel()
	defer func() {
		Cfg = saved
		logrus.SetLevel(savedLevel)
	}()
	Cfg = testViper(t, contents)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != logrus.DebugLevel {
		t.Errorf("configured level: want debug, have %v", cfg.LogLevel)
	}
	if lvl := logrus.GetLevel(); lvl != logrus.DebugLevel {
		t.Errorf("logger level: want debug, have %v", lvl)
	}
}
