// Package transport defines the remote file primitives the sync engine relies on.
//
// Remote paths are forward-slash separated on every platform. Implementations
// must report a missing artifact from Read as ErrNotFound so callers can treat
// absence as "default state" instead of a failure.
package transport

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrNotFound indicates that the requested remote artifact does not exist
var ErrNotFound = errors.New("transport: remote file not found")

type Transport interface {
	// Exists reports whether remotePath exists.
	Exists(ctx context.Context, remotePath string) (bool, error)
	// Read returns the full content of remotePath, or ErrNotFound.
	Read(ctx context.Context, remotePath string) ([]byte, error)
	// Write replaces the content of remotePath, creating parents as needed.
	Write(ctx context.Context, remotePath string, data []byte) error
	// Upload copies the local file at localPath to remotePath.
	Upload(ctx context.Context, localPath, remotePath string) error
	// Close releases any persistent session.
	Close() error
}

// Join joins remote path elements with forward slashes.
// A leading slash on the first element is kept.
// The caller's slice is left untouched.
func Join(elem ...string) string {
	parts := make([]string, len(elem))
	for i, e := range elem {
		parts[i] = strings.ReplaceAll(e, `\`, "/")
	}
	joined := path.Join(parts...)
	if joined == "." {
		return ""
	}
	return joined
}
