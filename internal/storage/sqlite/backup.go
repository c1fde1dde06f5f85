// Package sqlite implements the backup store on SQLite.
//
// Every snapshot is kept as a row; Load returns the newest one for a
// key. Old snapshots are removed with Prune.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Aimarl0/keymap-extension/internal/storage"
)

// Schema for the backup store.
const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    key         TEXT NOT NULL,
    session_id  TEXT NOT NULL,
    taken_at    INTEGER NOT NULL,
    payload     BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_key ON snapshots(key, id);
`

// Snapshot describes one stored backup.
type Snapshot struct {
	ID        int64
	Key       string
	SessionID string
	TakenAt   time.Time
	Size      int
}

// BackupStore is a storage.BackupStore backed by SQLite.
type BackupStore struct {
	db      *sql.DB
	session string
	now     func() time.Time
}

// Open opens or creates the database at path. Snapshots saved through
// the returned store are tagged with a fresh session id.
func Open(path string) (*BackupStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &BackupStore{
		db:      db,
		session: uuid.NewString(),
		now:     time.Now,
	}, nil
}

// SessionID returns the id snapshots from this store are tagged with.
func (s *BackupStore) SessionID() string {
	return s.session
}

// Close closes the database connection.
func (s *BackupStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save appends a snapshot.
func (s *BackupStore) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, session_id, taken_at, payload) VALUES (?, ?, ?, ?)`,
		key, s.session, s.now().UnixNano(), value)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Load returns the newest snapshot for key.
func (s *BackupStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE key = ? ORDER BY id DESC LIMIT 1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query snapshot: %w", err)
	}
	return payload, true, nil
}

// Get returns the payload of the snapshot with the given id.
func (s *BackupStore) Get(ctx context.Context, id int64) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return payload, nil
}

// List returns the snapshots for key, newest first.
func (s *BackupStore) List(ctx context.Context, key string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, session_id, taken_at, length(payload)
		FROM snapshots WHERE key = ? ORDER BY id DESC`, key)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var takenAt int64
		if err := rows.Scan(&snap.ID, &snap.Key, &snap.SessionID, &takenAt, &snap.Size); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.TakenAt = time.Unix(0, takenAt)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Prune keeps the newest keep snapshots for key and deletes the rest.
// It returns the number of deleted snapshots.
func (s *BackupStore) Prune(ctx context.Context, key string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots WHERE key = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE key = ? ORDER BY id DESC LIMIT ?
		)`, key, key, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

var _ storage.BackupStore = (*BackupStore)(nil)
