// Package snapshot stores the resume snapshot of the live workout in a
// local SQLite database so it survives the process being killed.
package snapshot

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/liveset/internal/models"
	"github.com/claude/liveset/internal/session"

	_ "modernc.org/sqlite"
)

// Key is the fixed slot the live session is stored under.
const Key = "live_session"

var _ session.SnapshotStore = (*SQLite)(nil)

// SQLite is a single-slot snapshot store backed by dir/snapshot.db.
type SQLite struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the snapshot database at dir/snapshot.db.
func Open(dir string, log *slog.Logger) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "snapshot.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS resume_snapshots (
		key      TEXT PRIMARY KEY,
		payload  TEXT NOT NULL,
		hash     TEXT NOT NULL,
		saved_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot table: %w", err)
	}

	return &SQLite{db: db, log: log}, nil
}

// Save replaces the stored snapshot.
func (s *SQLite) Save(ctx context.Context, snap *models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO resume_snapshots (key, payload, hash, saved_at) VALUES (?, ?, ?, ?)`,
		Key, string(payload), hashPayload(payload), snap.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or nil if the slot is empty. A payload
// that fails its checksum or cannot be decoded is cleared and reported as
// empty.
func (s *SQLite) Load(ctx context.Context) (*models.Snapshot, error) {
	var payload, hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, hash FROM resume_snapshots WHERE key = ?`, Key,
	).Scan(&payload, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	snap, err := decode([]byte(payload), hash)
	if err != nil {
		s.log.Warn("discarding corrupt resume snapshot", "error", err)
		if err := s.Clear(ctx); err != nil {
			s.log.Warn("clearing corrupt resume snapshot", "error", err)
		}
		return nil, nil
	}
	return snap, nil
}

// Clear empties the slot.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM resume_snapshots WHERE key = ?`, Key); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	return nil
}

// Close closes the snapshot database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func decode(payload []byte, hash string) (*models.Snapshot, error) {
	if hashPayload(payload) != hash {
		return nil, errors.New("checksum mismatch")
	}
	var snap models.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Version != models.SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return &snap, nil
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
