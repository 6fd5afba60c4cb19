// Package lock implements the advisory lock kept at the destination.
//
// The lock is a small text artifact holding "true" while a sync is running and
// "false" otherwise. Checking and acquiring are two separate transport calls,
// so two processes that check at the same moment can both acquire. The lock
// only guards against overlapping runs that start at different times.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yuya-takeyama/atm-sync/pkg/transport"
)

// FileName is the lock artifact inside the destination folder.
const FileName = "lock.txt"

const (
	lockedContent   = "true"
	unlockedContent = "false"
)

type State int

const (
	Unlocked State = iota
	Locked
)

func (s State) String() string {
	if s == Locked {
		return "locked"
	}
	return "unlocked"
}

// Placeholder returns the content staged locally and uploaded to acquire the lock.
func Placeholder() []byte {
	return []byte(lockedContent)
}

type Lock struct {
	transport  transport.Transport
	remotePath string
}

func New(t transport.Transport, remotePath string) *Lock {
	return &Lock{transport: t, remotePath: remotePath}
}

func (l *Lock) RemotePath() string {
	return l.remotePath
}

// Check reads the lock artifact. A missing artifact means Unlocked; only the
// content "true", ignoring surrounding whitespace, means Locked.
func (l *Lock) Check(ctx context.Context) (State, error) {
	data, err := l.transport.Read(ctx, l.remotePath)
	if err != nil {
		if errors.Is(err, transport.ErrNotFound) {
			return Unlocked, nil
		}
		return Unlocked, fmt.Errorf("check lock: %w", err)
	}
	if strings.TrimSpace(string(data)) == lockedContent {
		return Locked, nil
	}
	return Unlocked, nil
}

// Acquire uploads the staged placeholder at stagedPath over the lock artifact.
func (l *Lock) Acquire(ctx context.Context, stagedPath string) error {
	if err := l.transport.Upload(ctx, stagedPath, l.remotePath); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	return nil
}

// Release overwrites the lock artifact with "false".
func (l *Lock) Release(ctx context.Context) error {
	if err := l.transport.Write(ctx, l.remotePath, []byte(unlockedContent)); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
