// Package session manages the per-run local working area.
//
// Each run gets a directory named after its start time in Unix milliseconds
// under a shared root. Directories left behind by crashed runs are removed by
// CleanupStale once they are older than the retention interval.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"github.com/yuya-takeyama/atm-sync/pkg/logger"
)

// DefaultInterval is how long a working area is kept before it counts as stale.
const DefaultInterval = 15 * 24 * time.Hour

type Area struct {
	fs   afero.Fs
	root string
	dir  string
	id   int64
}

// New creates the working area for a run started at now.
func New(fsys afero.Fs, root string, now time.Time) (*Area, error) {
	id := now.UnixMilli()
	dir := filepath.Join(root, strconv.FormatInt(id, 10))
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create working area: %w", err)
	}
	return &Area{fs: fsys, root: root, dir: dir, id: id}, nil
}

func (a *Area) Dir() string {
	return a.dir
}

func (a *Area) ID() int64 {
	return a.id
}

// Stage writes data to name inside the working area and returns its path.
func (a *Area) Stage(name string, data []byte) (string, error) {
	path := filepath.Join(a.dir, name)
	if err := afero.WriteFile(a.fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	return path, nil
}

// Remove deletes the working area and everything in it.
func (a *Area) Remove() error {
	if err := a.fs.RemoveAll(a.dir); err != nil {
		return fmt.Errorf("remove working area: %w", err)
	}
	return nil
}

// CleanupStale removes working areas under root older than interval. Entries
// whose names are not Unix-millisecond timestamps are left alone. Failures are
// logged and never returned. It reports how many areas were removed.
func CleanupStale(fsys afero.Fs, root string, interval time.Duration, now time.Time, log logger.Logger) int {
	if log == nil {
		log = &logger.NullLogger{}
	}

	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("list working areas", "root", root, "error", err)
		}
		return 0
	}

	cutoff := now.Add(-interval).UnixMilli()
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		started, err := strconv.ParseInt(entry.Name(), 10, 64)
		if err != nil {
			log.Debug("skipping non-session entry", "name", entry.Name())
			continue
		}
		if started >= cutoff {
			continue
		}

		path := filepath.Join(root, entry.Name())
		if err := fsys.RemoveAll(path); err != nil {
			log.Warn("remove stale working area", "path", path, "error", err)
			continue
		}
		log.Debug("removed stale working area", "path", path)
		removed++
	}
	return removed
}
