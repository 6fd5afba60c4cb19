package syncer

import (
	"context"
	"fmt"

	"github.com/yuya-takeyama/atm-sync/pkg/lock"
	"github.com/yuya-takeyama/atm-sync/pkg/manifest"
	"github.com/yuya-takeyama/atm-sync/pkg/transport"
)

// Status describes the sync artifacts found at a destination.
type Status struct {
	LockPath       string     `json:"lock_path"`
	LockExists     bool       `json:"lock_exists"`
	Lock           lock.State `json:"-"`
	LockState      string     `json:"lock_state"`
	ManifestPath   string     `json:"manifest_path"`
	ManifestExists bool       `json:"manifest_exists"`
	Entries        int        `json:"entries"`
}

// Inspect reports the lock state and manifest size at dest without modifying anything.
func Inspect(ctx context.Context, t transport.Transport, dest, folder string) (*Status, error) {
	if folder == "" {
		folder = DefaultFolder
	}
	st := &Status{
		LockPath:     LockPath(dest, folder),
		ManifestPath: ManifestPath(dest, folder),
	}

	var err error
	if st.LockExists, err = t.Exists(ctx, st.LockPath); err != nil {
		return nil, fmt.Errorf("inspect lock: %w", err)
	}
	if st.Lock, err = lock.New(t, st.LockPath).Check(ctx); err != nil {
		return nil, err
	}
	st.LockState = st.Lock.String()

	if st.ManifestExists, err = t.Exists(ctx, st.ManifestPath); err != nil {
		return nil, fmt.Errorf("inspect manifest: %w", err)
	}
	if st.ManifestExists {
		m, err := manifest.Fetch(ctx, t, st.ManifestPath)
		if err != nil {
			return nil, err
		}
		st.Entries = len(m)
	}

	return st, nil
}

// Unlock marks the destination lock as released. It is meant for recovering
// from a run that died while holding the lock.
func Unlock(ctx context.Context, t transport.Transport, dest, folder string) error {
	if folder == "" {
		folder = DefaultFolder
	}
	return lock.New(t, LockPath(dest, folder)).Release(ctx)
}
