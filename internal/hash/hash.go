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

// Package hash computes content keys for cached data products.
package hash

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

// Key returns a hexadecimal FNV-128a key for the given values. Values are
// gob-encoded in order; if any of them cannot be gob-encoded (e.g., a
// NaN inside a map key or an unexported-only struct), all of them are
// printed with spew instead so the key is still deterministic.
func Key(values ...interface{}) string {
	h := fnv.New128a()

	var buf bytes.Buffer
	e := gob.NewEncoder(&buf)
	ok := true
	for _, v := range values {
		if err := e.Encode(v); err != nil {
			ok = false
			break
		}
	}
	if ok {
		h.Write(buf.Bytes())
		return fmt.Sprintf("%x", h.Sum(nil))
	}

	printer := spew.ConfigState{
		Indent:                  " ",
		SortKeys:                true,
		DisableMethods:          true,
		SpewKeys:                true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	for _, v := range values {
		printer.Fprintf(h, "%#v\n", v)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
