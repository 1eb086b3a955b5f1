// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists completed downloads in a SQLite database so
// later runs can see what the operator already has.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/libgrab/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "libgrab.db"
)

// Store is the download history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at dir/index/libgrab.db,
// creating the schema if needed.
func Open(dir string) (*Store, error) {
	dbDir := filepath.Join(dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS downloads (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			candidate_id TEXT NOT NULL,
			query TEXT,
			title TEXT,
			author TEXT,
			format TEXT,
			language TEXT,
			content_type TEXT,
			mirror_url TEXT,
			path TEXT NOT NULL,
			bytes INTEGER,
			retrieved_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_candidate_id ON downloads(candidate_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts one completed download.
func (s *Store) Record(ctx context.Context, rec types.DownloadRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads
			(candidate_id, query, title, author, format, language, content_type, mirror_url, path, bytes, retrieved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Query, rec.Title, rec.Author, rec.Format, rec.Language,
		rec.ContentType, rec.MirrorURL, rec.Path, rec.Bytes,
		rec.RetrievedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording download %s: %w", rec.ID, err)
	}
	return nil
}

// Seen reports whether a candidate id already has a recorded download.
func (s *Store) Seen(ctx context.Context, candidateID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM downloads WHERE candidate_id = ?`, candidateID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("querying history for %s: %w", candidateID, err)
	}
	return count > 0, nil
}

// Recent returns up to limit downloads, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.DownloadRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, query, title, author, format, language, content_type, mirror_url, path, bytes, retrieved_at
		FROM downloads ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []types.DownloadRecord
	for rows.Next() {
		var rec types.DownloadRecord
		var retrievedAt string
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Title, &rec.Author,
			&rec.Format, &rec.Language, &rec.ContentType, &rec.MirrorURL,
			&rec.Path, &rec.Bytes, &retrievedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, retrievedAt); parseErr == nil {
			rec.RetrievedAt = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
