package syncer

import (
	"context"
	"io/fs"
	"sync"

	"github.com/spf13/afero"
	"github.com/yuya-takeyama/atm-sync/pkg/transport"
)

// recordingTransport wraps a filesystem transport, recording every remote
// mutation and injecting failures for selected remote paths.
type recordingTransport struct {
	*transport.FSTransport

	uploadErrs map[string]error
	writeErrs  map[string]error

	mu     sync.Mutex
	writes []string
}

func newRecordingTransport(remote, local afero.Fs) *recordingTransport {
	return &recordingTransport{
		FSTransport: transport.NewFSTransport(remote, local),
		uploadErrs:  map[string]error{},
		writeErrs:   map[string]error{},
	}
}

func (r *recordingTransport) Write(ctx context.Context, remotePath string, data []byte) error {
	r.record("write " + remotePath)
	if err, ok := r.writeErrs[remotePath]; ok {
		return err
	}
	return r.FSTransport.Write(ctx, remotePath, data)
}

func (r *recordingTransport) Upload(ctx context.Context, localPath, remotePath string) error {
	r.record("upload " + remotePath)
	if err, ok := r.uploadErrs[remotePath]; ok {
		return err
	}
	return r.FSTransport.Upload(ctx, localPath, remotePath)
}

func (r *recordingTransport) record(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, op)
}

func (r *recordingTransport) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = nil
}

// vanishingFs makes opening selected files fail as if they were deleted
// after being listed.
type vanishingFs struct {
	afero.Fs
	gone map[string]bool
}

func (v *vanishingFs) Open(name string) (afero.File, error) {
	if v.gone[name] {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return v.Fs.Open(name)
}

// mockLogger is a mock implementation of logger.Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	stages []string
	warns  []string
	errors []string
}

func (m *mockLogger) Stage(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, name)
}

func (m *mockLogger) Warn(message string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, message)
}

func (m *mockLogger) Error(operation, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, operation)
}

func (m *mockLogger) Upload(localPath, remotePath string) {}
func (m *mockLogger) Skip(path, reason string)            {}
func (m *mockLogger) Info(message string, args ...any)    {}
func (m *mockLogger) Debug(message string, args ...any)   {}
