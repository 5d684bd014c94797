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
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Credentials are the user name and password for the MERIT Hydro
// distribution server.
type Credentials struct {
	User, Password string
}

// ReadCredentials reads a credentials file whose first two non-empty
// lines are the user name and the password.
func ReadCredentials(path string) (*Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, configErrorf("reading credentials: %v", err)
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() && len(lines) < 2 {
		if l := strings.TrimSpace(s.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("lddutil: reading credentials: %w", err)
	}
	if len(lines) < 2 {
		return nil, configErrorf("credentials file %s must contain a user name and a password on separate lines", path)
	}
	return &Credentials{User: lines[0], Password: lines[1]}, nil
}
