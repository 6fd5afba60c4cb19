// Package exclude resolves glob exclusion patterns against the source tree.
package exclude

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/afero"
	"github.com/yuya-takeyama/atm-sync/internal/walker"
)

// Set holds the PathIds (relative to the source root) matched by any pattern.
type Set = mapset.Set[string]

// Options controls how patterns are evaluated.
type Options struct {
	// Cwd is the directory patterns are evaluated against. Relative values are
	// resolved under the source root; empty means the source root itself.
	Cwd            string `mapstructure:"cwd"`
	FilesOnly      bool   `mapstructure:"files_only"`
	NoFollow       bool   `mapstructure:"no_follow"`
	FailOnIOErrors bool   `mapstructure:"fail_on_io_errors"`
}

// NewSet returns a set containing ids.
func NewSet(ids ...string) Set {
	return mapset.NewSet(ids...)
}

// Resolve expands every pattern and returns the union of matches that lie
// inside src. A file is excluded if any pattern matches it.
func Resolve(fsys afero.Fs, src string, patterns []string, opts Options) (Set, error) {
	excluded := NewSet()
	if len(patterns) == 0 {
		return excluded, nil
	}

	root, err := filepath.Abs(src)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	cwd := root
	if opts.Cwd != "" {
		if filepath.IsAbs(opts.Cwd) {
			cwd = filepath.Clean(opts.Cwd)
		} else {
			cwd = filepath.Join(root, opts.Cwd)
		}
	}

	globFS := afero.NewIOFS(afero.NewBasePathFs(fsys, cwd))
	globOpts := opts.globOptions()

	for _, pattern := range patterns {
		rel, err := relativePattern(cwd, pattern)
		if err != nil {
			return nil, err
		}

		matches, err := doublestar.Glob(globFS, rel, globOpts...)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}

		for _, m := range matches {
			abs := filepath.Join(cwd, filepath.FromSlash(m))
			id, ok := insideRoot(root, abs)
			if !ok {
				continue
			}
			excluded.Add(id)
		}
	}

	return excluded, nil
}

func (o Options) globOptions() []doublestar.GlobOption {
	var opts []doublestar.GlobOption
	if o.FilesOnly {
		opts = append(opts, doublestar.WithFilesOnly())
	}
	if o.NoFollow {
		opts = append(opts, doublestar.WithNoFollow())
	}
	if o.FailOnIOErrors {
		opts = append(opts, doublestar.WithFailOnIOErrors())
	}
	return opts
}

// relativePattern turns an absolute pattern into one relative to cwd, since
// globbing happens inside an fs.FS rooted at cwd.
func relativePattern(cwd, pattern string) (string, error) {
	if !filepath.IsAbs(pattern) {
		return filepath.ToSlash(pattern), nil
	}
	rel, err := filepath.Rel(cwd, pattern)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("pattern %q is outside %s", pattern, cwd)
	}
	return filepath.ToSlash(rel), nil
}

func insideRoot(root, abs string) (string, bool) {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return walker.Join(rel), true
}
