package planner

import (
	"sort"

	"github.com/yuya-takeyama/atm-sync/internal/walker"
	"github.com/yuya-takeyama/atm-sync/pkg/exclude"
	"github.com/yuya-takeyama/atm-sync/pkg/logger"
	"github.com/yuya-takeyama/atm-sync/pkg/manifest"
	"github.com/yuya-takeyama/atm-sync/pkg/transport"
)

// Diff decides which local entries must be uploaded.
//
// An entry is uploaded when it is not excluded and its fingerprint is absent
// from, or different to, the one recorded in m. The returned plan carries a
// copy of m with every planned entry set to its new fingerprint; entries of m
// with no local counterpart are kept as they are. m itself is not modified.
func Diff(local []walker.Entry, m manifest.Manifest, excluded exclude.Set, opts Options) *Plan {
	log := opts.Logger
	if log == nil {
		log = &logger.NullLogger{}
	}
	if excluded == nil {
		excluded = exclude.NewSet()
	}

	plan := &Plan{
		Items:    []Item{},
		Manifest: m.Clone(),
	}

	for _, entry := range local {
		if excluded.Contains(entry.ID) {
			plan.Excluded++
			log.Skip(entry.ID, ReasonExcluded)
			continue
		}

		recorded, known := m[entry.ID]
		if known && recorded == entry.Fingerprint {
			plan.Unchanged++
			log.Skip(entry.ID, ReasonUnchanged)
			continue
		}

		reason := ReasonNewFile
		if known {
			reason = ReasonFingerprintDiffers
		}

		plan.Items = append(plan.Items, Item{
			Action:      ActionUpload,
			ID:          entry.ID,
			LocalPath:   entry.Path,
			RemotePath:  transport.Join(opts.RemoteBase, entry.ID),
			Size:        entry.Size,
			Reason:      reason,
			Fingerprint: entry.Fingerprint,
		})
		plan.Manifest[entry.ID] = entry.Fingerprint
	}

	sort.Slice(plan.Items, func(i, j int) bool {
		return plan.Items[i].ID < plan.Items[j].ID
	})

	return plan
}
