package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/yuya-takeyama/atm-sync/internal/checksum"
	"github.com/yuya-takeyama/atm-sync/pkg/logger"
)

// Entry represents a local regular file and its content fingerprint
type Entry struct {
	ID          string // PathId relative to root, forward slashes
	Path        string // Local path
	Size        int64
	Fingerprint string
}

// Walker scans a local tree and fingerprints every regular file under it
type Walker struct {
	fs     afero.Fs
	root   string
	logger logger.Logger
}

// NewWalker creates a new file walker
func NewWalker(fsys afero.Fs, root string, log logger.Logger) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	info, err := fsys.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	if log == nil {
		log = &logger.NullLogger{}
	}

	return &Walker{
		fs:     fsys,
		root:   absRoot,
		logger: log,
	}, nil
}

// Scan walks the tree and returns one entry per regular file, ordered by path.
// Symlinked directories are followed; a link leading back into a directory
// already being walked is skipped with a warning. A file that disappears
// between listing and reading is skipped with a warning; any other I/O error
// aborts the scan.
func (w *Walker) Scan() ([]Entry, error) {
	start, err := w.resolve(w.root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	var entries []Entry
	active := map[string]struct{}{start: {}}
	if err := w.walk(start, "", active, &entries); err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	return entries, nil
}

// walk scans dir, naming its files under the PathId prefix idBase. active
// holds the resolved directories on the current chain of followed links.
func (w *Walker) walk(dir, idBase string, active map[string]struct{}, entries *[]Entry) error {
	return afero.Walk(w.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path != dir && errors.Is(err, fs.ErrNotExist) {
				w.logger.Warn("file vanished before it could be read", "path", path)
				return nil
			}
			return err
		}

		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("get relative path: %w", err)
		}
		id := Join(idBase, relPath)

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := w.fs.Stat(path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					w.logger.Warn("dangling symlink skipped", "path", path)
					return nil
				}
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if target.IsDir() {
				return w.follow(path, id, active, entries)
			}
			info = target
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		fingerprint, err := checksum.FingerprintFile(w.fs, path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				w.logger.Warn("file vanished before it could be read", "path", path)
				return nil
			}
			return fmt.Errorf("read %s: %w", path, err)
		}

		*entries = append(*entries, Entry{
			ID:          id,
			Path:        path,
			Size:        info.Size(),
			Fingerprint: fingerprint,
		})

		return nil
	})
}

// follow walks the directory behind the symlink link as if it were a plain
// directory named id.
func (w *Walker) follow(link, id string, active map[string]struct{}, entries *[]Entry) error {
	target, err := w.resolve(link)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", link, err)
	}
	parent, err := w.resolve(filepath.Dir(link))
	if err != nil {
		return fmt.Errorf("resolve %s: %w", filepath.Dir(link), err)
	}

	if _, ok := active[target]; ok || within(parent, target) {
		w.logger.Warn("symlink cycle skipped", "path", link, "target", target)
		return nil
	}

	active[target] = struct{}{}
	defer delete(active, target)
	return w.walk(target, id, active, entries)
}

// resolve returns the symlink-free form of path. Only the host filesystem
// has links to evaluate.
func (w *Walker) resolve(path string) (string, error) {
	if _, ok := w.fs.(*afero.OsFs); ok {
		return filepath.EvalSymlinks(path)
	}
	return filepath.Clean(path), nil
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	if path == dir {
		return true
	}
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Join joins path elements with the host rules and then rewrites every
// backslash to a forward slash, producing a PathId. Remote destinations are
// always forward-slash addressed, so the rewrite is applied on every platform.
func Join(base string, elem ...string) string {
	joined := filepath.Join(append([]string{base}, elem...)...)
	return strings.ReplaceAll(joined, `\`, "/")
}
