// Package manifest stores the PathId to fingerprint map recorded at the
// destination after each successful sync.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/goccy/go-json"
	"github.com/yuya-takeyama/atm-sync/pkg/transport"
)

// FileName is the manifest artifact inside the destination folder.
const FileName = "map.json"

// Manifest maps PathId to the fingerprint last uploaded for it.
type Manifest map[string]string

// Fetch reads the manifest at remotePath. A missing manifest yields an empty one.
func Fetch(ctx context.Context, t transport.Transport, remotePath string) (Manifest, error) {
	data, err := t.Read(ctx, remotePath)
	if err != nil {
		if errors.Is(err, transport.ErrNotFound) {
			return Manifest{}, nil
		}
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	return Decode(data)
}

// Persist overwrites the manifest at remotePath.
func Persist(ctx context.Context, t transport.Transport, remotePath string, m Manifest) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if err := t.Write(ctx, remotePath, data); err != nil {
		return fmt.Errorf("persist manifest: %w", err)
	}
	return nil
}

// Decode parses a flat JSON object. Empty input is an empty manifest.
func Decode(data []byte) (Manifest, error) {
	m := Manifest{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m == nil {
		m = Manifest{}
	}
	return m, nil
}

// Encode serializes the manifest as a flat JSON object with sorted keys.
func (m Manifest) Encode() ([]byte, error) {
	if m == nil {
		m = Manifest{}
	}
	data, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

func (m Manifest) Clone() Manifest {
	if m == nil {
		return Manifest{}
	}
	return maps.Clone(m)
}

func (m Manifest) Equal(other Manifest) bool {
	return maps.Equal(m, other)
}
