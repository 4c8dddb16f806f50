package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/ngram/pkg/ngram/counts"
	"github.com/cognicore/ngram/pkg/ngram/internalerr"
	"github.com/cognicore/ngram/pkg/ngram/store"
	"github.com/cognicore/ngram/pkg/ngram/vocab"
)

// fixed-width so created_at sorts lexicographically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db  *sql.DB
	ids *store.IDGenerator
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{
		db:  db,
		ids: store.NewIDGenerator(),
	}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	ngram_order INTEGER NOT NULL,
	estimator TEXT NOT NULL,
	alpha REAL NOT NULL DEFAULT 0,
	unknown_id INTEGER NOT NULL,
	start_id INTEGER NOT NULL,
	end_id INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_counts (
	snapshot_id TEXT NOT NULL,
	prefix TEXT NOT NULL,
	suffix INTEGER NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(snapshot_id, prefix, suffix),
	FOREIGN KEY(snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveSnapshot inserts or replaces a snapshot and its counts
func (s *sqliteStore) SaveSnapshot(ctx context.Context, snap store.Snapshot) (string, error) {
	if snap.Order < 1 {
		return "", fmt.Errorf("snapshot order %d: %w", snap.Order, internalerr.ErrInvalidOrder)
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	if snap.ID == "" {
		snap.ID = s.ids.New(snap.CreatedAt)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO snapshots (id, ngram_order, estimator, alpha, unknown_id, start_id, end_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	ngram_order=excluded.ngram_order,
	estimator=excluded.estimator,
	alpha=excluded.alpha,
	unknown_id=excluded.unknown_id,
	start_id=excluded.start_id,
	end_id=excluded.end_id,
	created_at=excluded.created_at;
`,
		snap.ID,
		snap.Order,
		snap.Estimator,
		snap.Alpha,
		int(snap.Reserved.Unknown),
		int(snap.Reserved.Start),
		int(snap.Reserved.End),
		snap.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("upsert snapshot: %w", err)
	}

	if err := replaceCounts(ctx, tx, snap.ID, snap.Entries); err != nil {
		return "", fmt.Errorf("replace counts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return snap.ID, nil
}

func replaceCounts(ctx context.Context, tx *sql.Tx, id string, entries []store.Entry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_counts WHERE snapshot_id = ?`, id); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO snapshot_counts (snapshot_id, prefix, suffix, count)
VALUES (?, ?, ?, ?)
ON CONFLICT(snapshot_id, prefix, suffix) DO UPDATE SET count=count+excluded.count;
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.Count <= 0 {
			continue
		}
		if _, err := stmt.ExecContext(ctx, id, string(e.Prefix), int(e.Suffix), e.Count); err != nil {
			return err
		}
	}
	return nil
}

// GetSnapshot loads a snapshot with its counts
func (s *sqliteStore) GetSnapshot(ctx context.Context, id string) (store.Snapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, ngram_order, estimator, alpha, unknown_id, start_id, end_id, created_at
FROM snapshots WHERE id = ?`, id)

	info, err := scanInfo(row)
	if err == sql.ErrNoRows {
		return store.Snapshot{}, false, nil
	}
	if err != nil {
		return store.Snapshot{}, false, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT prefix, suffix, count FROM snapshot_counts
WHERE snapshot_id = ?
ORDER BY prefix, suffix`, id)
	if err != nil {
		return store.Snapshot{}, false, err
	}
	defer rows.Close()

	snap := store.Snapshot{SnapshotInfo: info}
	for rows.Next() {
		var (
			prefix string
			suffix int
			count  int64
		)
		if err := rows.Scan(&prefix, &suffix, &count); err != nil {
			return store.Snapshot{}, false, err
		}
		snap.Entries = append(snap.Entries, store.Entry{
			Prefix: counts.Key(prefix),
			Suffix: vocab.Token(suffix),
			Count:  count,
		})
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, false, err
	}
	return snap, true, nil
}

// ListSnapshots returns snapshot headers, newest first
func (s *sqliteStore) ListSnapshots(ctx context.Context) ([]store.SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, ngram_order, estimator, alpha, unknown_id, start_id, end_id, created_at
FROM snapshots
ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.SnapshotInfo
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes a snapshot and its counts
func (s *sqliteStore) DeleteSnapshot(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// foreign_keys is per connection; clear counts explicitly
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_counts WHERE snapshot_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("snapshot %s: %w", id, internalerr.ErrNotFound)
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInfo(sc scanner) (store.SnapshotInfo, error) {
	var (
		info                    store.SnapshotInfo
		unknownID, startID, end int
		created                 string
	)
	err := sc.Scan(
		&info.ID,
		&info.Order,
		&info.Estimator,
		&info.Alpha,
		&unknownID,
		&startID,
		&end,
		&created,
	)
	if err != nil {
		return store.SnapshotInfo{}, err
	}

	info.Reserved = vocab.Reserved{
		Unknown: vocab.Token(unknownID),
		Start:   vocab.Token(startID),
		End:     vocab.Token(end),
	}
	info.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return store.SnapshotInfo{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return info, nil
}
