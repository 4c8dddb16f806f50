package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/ngram/pkg/ngram/internalerr"
	"github.com/cognicore/ngram/pkg/ngram/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu        sync.RWMutex
	ids       *store.IDGenerator
	snapshots map[string]store.Snapshot
	now       func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		ids:       store.NewIDGenerator(),
		snapshots: make(map[string]store.Snapshot),
		now:       time.Now,
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveSnapshot stores a copy of snap, replacing any snapshot with the same id.
func (s *Store) SaveSnapshot(ctx context.Context, snap store.Snapshot) (string, error) {
	if snap.Order < 1 {
		return "", fmt.Errorf("snapshot order %d: %w", snap.Order, internalerr.ErrInvalidOrder)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = s.now().UTC()
	}
	if snap.ID == "" {
		snap.ID = s.ids.New(snap.CreatedAt)
	}
	s.snapshots[snap.ID] = copySnapshot(snap)
	return snap.ID, nil
}

// GetSnapshot returns a snapshot by id.
func (s *Store) GetSnapshot(ctx context.Context, id string) (store.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return store.Snapshot{}, false, nil
	}
	return copySnapshot(snap), true, nil
}

// ListSnapshots returns snapshot headers, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]store.SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.SnapshotInfo, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap.SnapshotInfo)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// DeleteSnapshot removes a snapshot; unknown ids return ErrNotFound.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snapshots[id]; !ok {
		return fmt.Errorf("snapshot %s: %w", id, internalerr.ErrNotFound)
	}
	delete(s.snapshots, id)
	return nil
}

func copySnapshot(in store.Snapshot) store.Snapshot {
	out := in
	out.Entries = append([]store.Entry(nil), in.Entries...)
	return out
}
