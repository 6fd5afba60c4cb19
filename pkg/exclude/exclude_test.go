package exclude

import (
	"errors"
	"slices"
	"sort"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

func newTree(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for _, name := range files {
		if err := afero.WriteFile(fsys, name, []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return fsys
}

func sorted(s Set) []string {
	ids := s.ToSlice()
	sort.Strings(ids)
	return ids
}

func TestResolve(t *testing.T) {
	fsys := newTree(t,
		"/src/a.txt",
		"/src/secret.key",
		"/src/dir/nested.key",
		"/src/dir/.DS_Store",
		"/src/logs/app.log",
		"/other/outside.txt",
	)

	tests := []struct {
		name     string
		patterns []string
		opts     Options
		want     []string
	}{
		{
			name: "no patterns",
			want: []string{},
		},
		{
			name:     "recursive extension",
			patterns: []string{"**/*.key"},
			want:     []string{"dir/nested.key", "secret.key"},
		},
		{
			name:     "union of patterns",
			patterns: []string{"**/*.key", "**/.DS_Store", "logs/*"},
			want:     []string{"dir/.DS_Store", "dir/nested.key", "logs/app.log", "secret.key"},
		},
		{
			name:     "overlapping patterns counted once",
			patterns: []string{"*.key", "**/*.key"},
			want:     []string{"dir/nested.key", "secret.key"},
		},
		{
			name:     "brace alternatives",
			patterns: []string{"{a.txt,logs/app.log}"},
			want:     []string{"a.txt", "logs/app.log"},
		},
		{
			name:     "no match",
			patterns: []string{"**/*.zip"},
			want:     []string{},
		},
		{
			name:     "relative cwd",
			patterns: []string{"*.key"},
			opts:     Options{Cwd: "dir"},
			want:     []string{"dir/nested.key"},
		},
		{
			name:     "matches outside src dropped",
			patterns: []string{"other/*.txt", "src/a.txt"},
			opts:     Options{Cwd: ".."},
			want:     []string{"a.txt"},
		},
		{
			name:     "absolute pattern",
			patterns: []string{"/src/logs/*.log"},
			want:     []string{"logs/app.log"},
		},
		{
			name:     "files only skips directories",
			patterns: []string{"*"},
			opts:     Options{FilesOnly: true},
			want:     []string{"a.txt", "secret.key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(fsys, "/src", tt.patterns, tt.opts)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			gotIDs := sorted(got)
			if len(gotIDs) != len(tt.want) {
				t.Fatalf("Resolve() = %v, want %v", gotIDs, tt.want)
			}
			for i := range gotIDs {
				if gotIDs[i] != tt.want[i] {
					t.Errorf("Resolve()[%d] = %q, want %q", i, gotIDs[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolveBadPattern(t *testing.T) {
	fsys := newTree(t, "/src/a.txt")

	_, err := Resolve(fsys, "/src", []string{"[a-"}, Options{})
	if !errors.Is(err, doublestar.ErrBadPattern) {
		t.Errorf("Resolve() error = %v, want ErrBadPattern", err)
	}
}

func TestResolveAbsolutePatternOutsideCwd(t *testing.T) {
	fsys := newTree(t, "/src/a.txt", "/other/b.txt")

	if _, err := Resolve(fsys, "/src", []string{"/other/*.txt"}, Options{}); err == nil {
		t.Error("Resolve() expected error for pattern outside cwd")
	}
}

func TestResolveMatchesDotEntries(t *testing.T) {
	fsys := newTree(t,
		"/src/a.key",
		"/src/.hidden/b.key",
		"/src/.env.key",
	)

	got, err := Resolve(fsys, "/src", []string{"**/*.key"}, Options{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{".env.key", ".hidden/b.key", "a.key"}
	if ids := sorted(got); !slices.Equal(ids, want) {
		t.Errorf("Resolve() = %v, want %v", ids, want)
	}
}
