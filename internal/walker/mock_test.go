package walker

import (
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

// mockLogger is a mock implementation of logger.Logger for testing
type mockLogger struct {
	warnCalls  []string
	debugCalls []string
}

func (m *mockLogger) Stage(name string)                       {}
func (m *mockLogger) Upload(localPath, remotePath string)     {}
func (m *mockLogger) Skip(path, reason string)                {}
func (m *mockLogger) Info(message string, args ...any)        {}
func (m *mockLogger) Error(operation, path string, err error) {}

func (m *mockLogger) Warn(message string, args ...any) {
	m.warnCalls = append(m.warnCalls, message)
}

func (m *mockLogger) Debug(message string, args ...any) {
	m.debugCalls = append(m.debugCalls, message)
}

// faultyFs makes opening selected files fail with the given error,
// simulating files that change between listing and reading.
type faultyFs struct {
	afero.Fs
	failures map[string]error
}

func (f *faultyFs) Open(name string) (afero.File, error) {
	if err, ok := f.failures[name]; ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return f.Fs.Open(name)
}

var (
	errGone   = os.ErrNotExist
	errDenied = os.ErrPermission
)
