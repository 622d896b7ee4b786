// Package store persists per-novel glossaries, the chunk translation memory
// used to resume failed chapters, and a log of chapter runs with their
// consistency violations, all in one SQLite file.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; parallel chapter translations share the store.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS glossary (
		id TEXT PRIMARY KEY,
		novel TEXT NOT NULL,
		source_term TEXT NOT NULL,
		target_term TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(novel, source_term)
	);

	-- chunk_memory holds enforced chunk translations keyed by languages,
	-- glossary fingerprint and source text
	CREATE TABLE IF NOT EXISTS chunk_memory (
		cache_key TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_text TEXT NOT NULL,
		translation TEXT NOT NULL,
		service_used TEXT,
		usage_count INTEGER DEFAULT 0,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chapter_runs (
		id TEXT PRIMARY KEY,
		novel TEXT NOT NULL,
		chapter_number INTEGER NOT NULL,
		success BOOLEAN NOT NULL,
		state TEXT NOT NULL,
		chunks INTEGER NOT NULL,
		cached_chunks INTEGER NOT NULL,
		failure_reason TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chapter_violations (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		chunk_index INTEGER NOT NULL,
		term TEXT NOT NULL,
		expected TEXT NOT NULL,
		found TEXT,
		repaired BOOLEAN NOT NULL,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES chapter_runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_glossary_novel ON glossary(novel);
	CREATE INDEX IF NOT EXISTS idx_runs_novel ON chapter_runs(novel, chapter_number);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC so equal terms
// compare equal regardless of how they were typed.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

func now() time.Time {
	return time.Now().UTC()
}
