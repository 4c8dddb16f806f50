package ngram

import (
	"fmt"

	"github.com/cognicore/ngram/pkg/ngram/counts"
	"github.com/cognicore/ngram/pkg/ngram/estimate"
	"github.com/cognicore/ngram/pkg/ngram/internalerr"
	"github.com/cognicore/ngram/pkg/ngram/store"
	"github.com/cognicore/ngram/pkg/ngram/vocab"
)

// Snapshot exports the model's counts and estimator settings.
// ID and CreatedAt are left for the store to assign.
func (m *Model) Snapshot() store.Snapshot {
	snap := store.Snapshot{
		SnapshotInfo: store.SnapshotInfo{
			Order:     m.n,
			Estimator: m.est.Name(),
			Alpha:     estimate.AlphaOf(m.est),
			Reserved:  m.reserved,
		},
		Entries: make([]store.Entry, 0, m.counts.UniquePairs()),
	}
	m.counts.Each(func(prefix counts.Key, suffix vocab.Token, c int64) {
		snap.Entries = append(snap.Entries, store.Entry{Prefix: prefix, Suffix: suffix, Count: c})
	})
	return snap
}

// FromSnapshot rebuilds a model from stored counts. Options.Estimator and
// Options.Reserved override the snapshot's own settings when set.
func FromSnapshot(snap store.Snapshot, opts Options) (*Model, error) {
	if opts.Estimator == nil {
		est, err := estimate.ByName(snap.Estimator, snap.Alpha)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
		}
		opts.Estimator = est
	}
	if opts.Reserved == nil {
		reserved := snap.Reserved
		if !reserved.Distinct() {
			return nil, fmt.Errorf("snapshot %s reserved ids %+v: %w", snap.ID, reserved, internalerr.ErrInvalidInput)
		}
		opts.Reserved = &reserved
	}

	m, err := NewFromCounts(snap.Order, snap.Table(), opts)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	return m, nil
}
