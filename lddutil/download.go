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
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/meritldd"
)

// DefaultBaseURL is the location of the MERIT Hydro v1.0 archives.
const DefaultBaseURL = "http://hydro.iis.u-tokyo.ac.jp/~yamadai/MERIT_Hydro/distribute/v1.0/"

// TileFetcher downloads and extracts MERIT Hydro upstream area archives.
type TileFetcher struct {
	// BaseURL is prepended to the archive names.
	BaseURL string

	// Dir is the directory the archives are extracted into.
	Dir string

	// Credentials are used for HTTP basic authentication, if not nil.
	Credentials *Credentials

	// MaxRetries is the number of times a failed download is retried.
	MaxRetries int

	// Client is used for the requests. If nil, http.DefaultClient is used.
	Client *http.Client

	// BackOff, if not nil, returns the retry policy for one tile.
	// The default is exponential backoff.
	BackOff func() backoff.BackOff

	// Log receives progress and failure messages. If nil, the standard
	// logger is used.
	Log logrus.FieldLogger
}

// FetchReport summarizes the outcome of Fetch.
type FetchReport struct {
	Fetched []meritldd.TileID
	Skipped []meritldd.TileID
	Failed  map[meritldd.TileID]error
}

func (f *TileFetcher) log() logrus.FieldLogger {
	if f.Log == nil {
		return logrus.StandardLogger()
	}
	return f.Log
}

// Fetch downloads and extracts each of the given tiles whose directory
// does not already exist under f.Dir. A tile that cannot be fetched is
// logged and recorded in the report, and the remaining tiles are still
// attempted. The returned error is only non-nil if ctx is cancelled.
func (f *TileFetcher) Fetch(ctx context.Context, ids []meritldd.TileID) (*FetchReport, error) {
	r := &FetchReport{Failed: make(map[meritldd.TileID]error)}
	for _, id := range ids {
		if _, err := os.Stat(filepath.Join(f.Dir, id.Dir())); err == nil {
			f.log().WithField("tile", id).Debug("tile already present")
			r.Skipped = append(r.Skipped, id)
			continue
		}
		start := time.Now()
		if err := f.fetchTile(ctx, id); err != nil {
			if ctx.Err() != nil {
				return r, ctx.Err()
			}
			f.log().WithFields(logrus.Fields{"tile": id, "error": err}).Error("failed to fetch tile")
			r.Failed[id] = err
			continue
		}
		f.log().WithFields(logrus.Fields{
			"tile":    id,
			"elapsed": time.Since(start).Round(time.Second),
		}).Info("fetched tile")
		r.Fetched = append(r.Fetched, id)
	}
	return r, nil
}

func (f *TileFetcher) backOff() backoff.BackOff {
	if f.BackOff != nil {
		return f.BackOff()
	}
	return backoff.NewExponentialBackOff()
}

// fetchTile downloads and extracts one archive, retrying as configured.
func (f *TileFetcher) fetchTile(ctx context.Context, id meritldd.TileID) error {
	url := strings.TrimSuffix(f.BaseURL, "/") + "/" + id.Archive()
	archive := filepath.Join(f.Dir, id.Archive())
	b := backoff.WithContext(backoff.WithMaxRetries(f.backOff(), uint64(f.MaxRetries)), ctx)
	err := backoff.RetryNotify(
		func() error {
			if err := f.download(ctx, url, archive); err != nil {
				return err
			}
			return f.extract(archive, id)
		},
		b,
		func(err error, d time.Duration) {
			f.log().WithFields(logrus.Fields{"tile": id, "error": err}).Warnf("retrying in %v", d)
		},
	)
	if err != nil {
		return err
	}
	return os.Remove(archive)
}

// download saves url to path. The data is written to a uniquely named
// partial file first, so an interrupted download is never mistaken for a
// complete archive.
func (f *TileFetcher) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	if f.Credentials != nil {
		req.SetBasicAuth(f.Credentials.User, f.Credentials.Password)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return backoff.Permanent(fmt.Errorf("lddutil: downloading %s: %s", url, resp.Status))
	default:
		return fmt.Errorf("lddutil: downloading %s: %s", url, resp.Status)
	}

	part := path + "." + uuid.New().String() + ".part"
	w, err := os.Create(part)
	if err != nil {
		return backoff.Permanent(err)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		w.Close()
		os.Remove(part)
		return fmt.Errorf("lddutil: downloading %s: %w", url, err)
	}
	if err := w.Close(); err != nil {
		os.Remove(part)
		return err
	}
	return os.Rename(part, path)
}

// extract unpacks archive into the tile directory for id. The archive is
// unpacked into a temporary directory and moved into place when complete.
func (f *TileFetcher) extract(archive string, id meritldd.TileID) error {
	tmp, err := os.MkdirTemp(f.Dir, "."+id.Dir()+".")
	if err != nil {
		return backoff.Permanent(err)
	}
	defer os.RemoveAll(tmp)
	if err := extractTar(archive, tmp); err != nil {
		// The archive is likely corrupt; download it again.
		os.Remove(archive)
		return err
	}
	src := filepath.Join(tmp, id.Dir())
	if _, err := os.Stat(src); err != nil {
		// The archive has no top-level directory.
		src = tmp
	}
	return os.Rename(src, filepath.Join(f.Dir, id.Dir()))
}

var errUnsafePath = errors.New("archive entry outside of the destination directory")

// extractTar unpacks the tar file at path into dir.
func extractTar(path, dir string) error {
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	root := filepath.Clean(dir) + string(os.PathSeparator)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("lddutil: extracting %s: %w", path, err)
		}
		target := filepath.Join(dir, hdr.Name)
		if !strings.HasPrefix(target+string(os.PathSeparator), root) {
			return fmt.Errorf("lddutil: extracting %s: %q: %w", path, hdr.Name, errUnsafePath)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.ModePerm); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
				return err
			}
			if err := writeFile(target, tr); err != nil {
				return fmt.Errorf("lddutil: extracting %s: %w", path, err)
			}
		}
	}
}

func writeFile(path string, r io.Reader) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
