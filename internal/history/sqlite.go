// Package history keeps a log of chat exchanges in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Entry is one question/answer exchange about an asset.
type Entry struct {
	ID        string    `json:"id"`
	AssetID   string    `json:"asset_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Sources   []string  `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed chat log.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" is accepted for tests.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS chat_entries (
		id         TEXT PRIMARY KEY,
		asset_id   TEXT NOT NULL,
		message    TEXT NOT NULL,
		response   TEXT NOT NULL,
		sources    TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_entries_asset ON chat_entries(asset_id, id DESC);
	`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append records an exchange and returns it with its id and timestamp set.
func (s *Store) Append(ctx context.Context, e Entry) (Entry, error) {
	e.ID = ulid.Make().String()
	e.CreatedAt = time.Now().UTC()
	if e.Sources == nil {
		e.Sources = []string{}
	}
	sources, err := json.Marshal(e.Sources)
	if err != nil {
		return Entry{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chat_entries (id, asset_id, message, response, sources, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.AssetID, e.Message, e.Response, string(sources), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Entry{}, fmt.Errorf("insert chat entry: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first. An empty asset lists all.
func (s *Store) List(ctx context.Context, asset string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, asset_id, message, response, sources, created_at FROM chat_entries`
	args := []any{}
	if asset != "" {
		q += ` WHERE asset_id = ?`
		args = append(args, asset)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list chat entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var sources sql.NullString
		var created string
		if err := rows.Scan(&e.ID, &e.AssetID, &e.Message, &e.Response, &sources, &created); err != nil {
			return nil, err
		}
		e.Sources = []string{}
		if sources.Valid && sources.String != "" {
			_ = json.Unmarshal([]byte(sources.String), &e.Sources)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
