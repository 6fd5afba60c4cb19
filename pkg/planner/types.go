package planner

import (
	"github.com/yuya-takeyama/atm-sync/pkg/logger"
	"github.com/yuya-takeyama/atm-sync/pkg/manifest"
)

type Action string

const (
	ActionUpload Action = "upload"
)

const (
	ReasonNewFile            = "new file"
	ReasonFingerprintDiffers = "fingerprint differs"
	ReasonUnchanged          = "unchanged"
	ReasonExcluded           = "excluded"
)

type Item struct {
	Action      Action `json:"action"`
	ID          string `json:"id"`
	LocalPath   string `json:"local_path"`
	RemotePath  string `json:"remote_path"`
	Size        int64  `json:"size"`
	Reason      string `json:"reason"`
	Fingerprint string `json:"fingerprint"`
}

// Plan is the outcome of comparing the local tree with the manifest.
type Plan struct {
	// Items holds the uploads to perform, ordered by ID.
	Items []Item
	// Manifest is the manifest to persist once every upload has succeeded.
	Manifest manifest.Manifest
	// Unchanged counts local files whose fingerprint already matches.
	Unchanged int
	// Excluded counts local files dropped by the exclusion set.
	Excluded int
}

// TotalBytes returns the combined size of the planned uploads.
func (p *Plan) TotalBytes() int64 {
	var total int64
	for _, item := range p.Items {
		total += item.Size
	}
	return total
}

type Options struct {
	// RemoteBase is the destination directory every PathId is placed under.
	RemoteBase string
	Logger     logger.Logger
}
