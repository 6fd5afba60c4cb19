package executor

import (
	"context"
	"fmt"
	"sync"
)

// mockTransport is a mock implementation of transport.Transport for testing
type mockTransport struct {
	uploadFunc func(ctx context.Context, localPath, remotePath string) error

	mu      sync.Mutex
	uploads []string
}

func (m *mockTransport) Exists(ctx context.Context, remotePath string) (bool, error) {
	return false, fmt.Errorf("Exists not implemented")
}

func (m *mockTransport) Read(ctx context.Context, remotePath string) ([]byte, error) {
	return nil, fmt.Errorf("Read not implemented")
}

func (m *mockTransport) Write(ctx context.Context, remotePath string, data []byte) error {
	return fmt.Errorf("Write not implemented")
}

func (m *mockTransport) Upload(ctx context.Context, localPath, remotePath string) error {
	m.mu.Lock()
	m.uploads = append(m.uploads, remotePath)
	m.mu.Unlock()
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, localPath, remotePath)
	}
	return nil
}

func (m *mockTransport) Close() error {
	return nil
}

// mockLogger is a mock implementation of logger.Logger for testing
type mockLogger struct {
	mu          sync.Mutex
	uploadCalls []string
	errorCalls  []string
}

func (m *mockLogger) Stage(name string)                 {}
func (m *mockLogger) Skip(path, reason string)          {}
func (m *mockLogger) Info(message string, args ...any)  {}
func (m *mockLogger) Warn(message string, args ...any)  {}
func (m *mockLogger) Debug(message string, args ...any) {}

func (m *mockLogger) Upload(localPath, remotePath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadCalls = append(m.uploadCalls, remotePath)
}

func (m *mockLogger) Error(operation, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCalls = append(m.errorCalls, operation+" "+path)
}
