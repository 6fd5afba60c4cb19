package logger

import (
	"fmt"
	"log/slog"
)

// Logger receives sync events. Implementations decide how much of it reaches the user.
type Logger interface {
	Stage(name string)
	Upload(localPath, remotePath string)
	Skip(path, reason string)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(operation, path string, err error)
	Debug(message string, args ...any)
}

// SyncLogger writes sync events to a slog.Logger.
type SyncLogger struct {
	IsDryRun bool
	IsQuiet  bool
	Logger   *slog.Logger
}

func (l *SyncLogger) log() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l *SyncLogger) Stage(name string) {
	l.log().Debug("stage", "name", name)
}

func (l *SyncLogger) Upload(localPath, remotePath string) {
	if l.IsQuiet {
		return
	}
	prefix := ""
	if l.IsDryRun {
		prefix = "(dryrun) "
	}
	l.log().Info(fmt.Sprintf("%supload: %s to %s", prefix, localPath, remotePath))
}

func (l *SyncLogger) Skip(path, reason string) {
	l.log().Debug("skip", "path", path, "reason", reason)
}

func (l *SyncLogger) Info(message string, args ...any) {
	if l.IsQuiet {
		return
	}
	l.log().Info(message, args...)
}

func (l *SyncLogger) Warn(message string, args ...any) {
	l.log().Warn(message, args...)
}

func (l *SyncLogger) Error(operation, path string, err error) {
	l.log().Error(operation+" failed", "path", path, "error", err)
}

func (l *SyncLogger) Debug(message string, args ...any) {
	l.log().Debug(message, args...)
}

type NullLogger struct{}

func (l *NullLogger) Stage(name string) {}

func (l *NullLogger) Upload(localPath, remotePath string) {}

func (l *NullLogger) Skip(path, reason string) {}

func (l *NullLogger) Info(message string, args ...any) {}

func (l *NullLogger) Warn(message string, args ...any) {}

func (l *NullLogger) Error(operation, path string, err error) {}

func (l *NullLogger) Debug(message string, args ...any) {}
