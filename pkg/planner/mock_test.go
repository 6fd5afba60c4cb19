package planner

// mockLogger is a mock implementation of logger.Logger for testing
type mockLogger struct {
	skipCalls []skipCall
}

type skipCall struct {
	path   string
	reason string
}

func (m *mockLogger) Stage(name string)                       {}
func (m *mockLogger) Upload(localPath, remotePath string)     {}
func (m *mockLogger) Info(message string, args ...any)        {}
func (m *mockLogger) Warn(message string, args ...any)        {}
func (m *mockLogger) Error(operation, path string, err error) {}
func (m *mockLogger) Debug(message string, args ...any)       {}

func (m *mockLogger) Skip(path, reason string) {
	m.skipCalls = append(m.skipCalls, skipCall{path, reason})
}
