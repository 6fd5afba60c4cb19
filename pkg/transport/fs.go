package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FSTransport treats a filesystem (a mounted share, a local directory, or an
// in-memory tree) as the remote destination.
type FSTransport struct {
	remote afero.Fs
	local  afero.Fs
}

// NewFSTransport creates a transport that writes to remote and reads uploads from local.
func NewFSTransport(remote, local afero.Fs) *FSTransport {
	return &FSTransport{remote: remote, local: local}
}

func (t *FSTransport) Exists(ctx context.Context, remotePath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	exists, err := afero.Exists(t.remote, t.native(remotePath))
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", remotePath, err)
	}
	return exists, nil
}

func (t *FSTransport) Read(ctx context.Context, remotePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(t.remote, t.native(remotePath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", remotePath, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", remotePath, err)
	}
	return data, nil
}

func (t *FSTransport) Write(ctx context.Context, remotePath string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := t.native(remotePath)
	if err := t.remote.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent of %s: %w", remotePath, err)
	}
	if err := afero.WriteFile(t.remote, target, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", remotePath, err)
	}
	return nil
}

func (t *FSTransport) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := t.local.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file: %w", err)
	}
	defer src.Close()

	target := t.native(remotePath)
	if err := t.remote.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent of %s: %w", remotePath, err)
	}

	dst, err := t.remote.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", remotePath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copy to %s: %w", remotePath, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close %s: %w", remotePath, err)
	}
	return nil
}

func (t *FSTransport) Close() error {
	return nil
}

func (t *FSTransport) native(remotePath string) string {
	return filepath.FromSlash(remotePath)
}
