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

// Command meritldd derives drainage direction and upstream area maps from
// the MERIT Hydro dataset.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/meritldd/lddutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// With no subcommand the whole pipeline runs with ./config.cfg.
	if err := lddutil.Root.ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		stop()
		os.Exit(1)
	}
}
