package store

import (
	"context"
	"time"

	"github.com/cognicore/ngram/pkg/ngram/counts"
	"github.com/cognicore/ngram/pkg/ngram/vocab"
)

// Store persists model snapshots
type Store interface {
	Close() error

	// SaveSnapshot stores s and returns its id. An empty s.ID is assigned a ULID.
	SaveSnapshot(ctx context.Context, s Snapshot) (string, error)
	GetSnapshot(ctx context.Context, id string) (Snapshot, bool, error)
	// ListSnapshots returns snapshot headers, newest first
	ListSnapshots(ctx context.Context) ([]SnapshotInfo, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

// Snapshot is the count table of a model plus what is needed to rebuild it
type Snapshot struct {
	SnapshotInfo
	Entries []Entry
}

// SnapshotInfo describes a stored snapshot without its counts
type SnapshotInfo struct {
	ID        string
	Order     int
	Estimator string
	Alpha     float64
	Reserved  vocab.Reserved
	CreatedAt time.Time
}

// Entry is one (prefix, suffix) count
type Entry struct {
	Prefix counts.Key
	Suffix vocab.Token
	Count  int64
}

// Table rebuilds the count table held by the snapshot
func (s Snapshot) Table() *counts.Table {
	table := counts.NewTable()
	for _, e := range s.Entries {
		table.AddCount(e.Prefix, e.Suffix, e.Count)
	}
	return table
}

// Instances returns the total count across entries
func (s Snapshot) Instances() int64 {
	var n int64
	for _, e := range s.Entries {
		n += e.Count
	}
	return n
}
