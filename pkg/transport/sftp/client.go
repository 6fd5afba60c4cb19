// Package sftp implements the transport over an SSH server using the SFTP
// subsystem. A single SSH session is opened per transport and reused for
// every call until Close.
package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/pkg/sftp"
	"github.com/spf13/afero"
	"github.com/yuya-takeyama/atm-sync/pkg/transport"
	"golang.org/x/crypto/ssh"
)

// remoteFS is the subset of *sftp.Client the transport uses.
type remoteFS interface {
	Stat(p string) (fs.FileInfo, error)
	Open(p string) (io.ReadCloser, error)
	Create(p string) (io.WriteCloser, error)
	MkdirAll(p string) error
	Close() error
}

type sftpFS struct {
	client *sftp.Client
	conn   *ssh.Client
}

func (s *sftpFS) Stat(p string) (fs.FileInfo, error) {
	return s.client.Stat(p)
}

func (s *sftpFS) Open(p string) (io.ReadCloser, error) {
	return s.client.Open(p)
}

func (s *sftpFS) Create(p string) (io.WriteCloser, error) {
	return s.client.Create(p)
}

func (s *sftpFS) MkdirAll(p string) error {
	return s.client.MkdirAll(p)
}

func (s *sftpFS) Close() error {
	return errors.Join(s.client.Close(), s.conn.Close())
}

type Transport struct {
	remote remoteFS
	local  afero.Fs
}

// Dial connects to the server described by opts.
func Dial(ctx context.Context, opts Options, local afero.Fs) (*Transport, error) {
	cfg, err := opts.ClientConfig()
	if err != nil {
		return nil, err
	}

	type dialResult struct {
		conn *ssh.Client
		err  error
	}
	done := make(chan dialResult, 1)
	go func() {
		conn, err := ssh.Dial("tcp", opts.Address(), cfg)
		done <- dialResult{conn, err}
	}()

	var conn *ssh.Client
	select {
	case <-ctx.Done():
		go func() {
			if r := <-done; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("ssh dial %s: %w", opts.Address(), r.err)
		}
		conn = r.conn
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("start sftp session: %w", err)
	}

	return &Transport{remote: &sftpFS{client: client, conn: conn}, local: local}, nil
}

func (t *Transport) Exists(ctx context.Context, remotePath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := t.remote.Stat(remotePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", remotePath, err)
	}
	return true, nil
}

func (t *Transport) Read(ctx context.Context, remotePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := t.remote.Open(remotePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", remotePath, transport.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", remotePath, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", remotePath, err)
	}
	return data, nil
}

func (t *Transport) Write(ctx context.Context, remotePath string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := t.create(remotePath)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", remotePath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", remotePath, err)
	}
	return nil
}

func (t *Transport) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := t.local.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file: %w", err)
	}
	defer src.Close()

	dst, err := t.create(remotePath)
	if err != nil {
		return err
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

func (t *Transport) Close() error {
	return t.remote.Close()
}

func (t *Transport) create(remotePath string) (io.WriteCloser, error) {
	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := t.remote.MkdirAll(dir); err != nil {
			return nil, fmt.Errorf("create parent of %s: %w", remotePath, err)
		}
	}
	f, err := t.remote.Create(remotePath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", remotePath, err)
	}
	return f, nil
}
