package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
)

// GlossaryEntry represents a row in the glossary table.
type GlossaryEntry struct {
	ID         string
	Novel      string
	SourceTerm string
	TargetTerm string
	CreatedAt  time.Time
}

const upsertGlossary = `INSERT INTO glossary (id, novel, source_term, target_term, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(novel, source_term) DO UPDATE SET target_term = excluded.target_term`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func addTerm(ctx context.Context, db execer, novel, sourceTerm, targetTerm string) error {
	novel, src, tgt := normalizeText(novel), normalizeText(sourceTerm), normalizeText(targetTerm)
	if novel == "" {
		return fmt.Errorf("%w: novel is required", glossary.ErrInvalidEntry)
	}
	if src == "" || tgt == "" {
		return fmt.Errorf("%w: %q -> %q", glossary.ErrInvalidEntry, sourceTerm, targetTerm)
	}
	_, err := db.ExecContext(ctx, upsertGlossary, uuid.NewString(), novel, src, tgt, now())
	return err
}

// AddGlossaryTerm inserts a term for novel or replaces its target.
func (s *Store) AddGlossaryTerm(ctx context.Context, novel, sourceTerm, targetTerm string) error {
	return addTerm(ctx, s.db, novel, sourceTerm, targetTerm)
}

// ImportGlossary adds all entries in one transaction and returns how many
// were written. Any invalid entry rolls back the whole import.
func (s *Store) ImportGlossary(ctx context.Context, novel string, entries []glossary.Entry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, e := range entries {
		if err := addTerm(ctx, tx, novel, e.Source, e.Target); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ListGlossaryTerms returns the terms of novel, or of every novel when novel
// is empty.
func (s *Store) ListGlossaryTerms(ctx context.Context, novel string) ([]GlossaryEntry, error) {
	query := `SELECT id, novel, source_term, target_term, created_at FROM glossary`
	var args []interface{}
	if novel != "" {
		query += ` WHERE novel = ?`
		args = append(args, normalizeText(novel))
	}
	query += ` ORDER BY novel, source_term`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		if err := rows.Scan(&e.ID, &e.Novel, &e.SourceTerm, &e.TargetTerm, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteGlossaryTerm removes one term and reports whether it existed.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, novel, sourceTerm string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM glossary WHERE novel = ? AND source_term = ?`,
		normalizeText(novel), normalizeText(sourceTerm))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// LoadGlossary builds the immutable glossary for novel. A novel without
// terms yields an empty glossary.
func (s *Store) LoadGlossary(ctx context.Context, novel string) (*glossary.Glossary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_term, target_term FROM glossary WHERE novel = ?`, normalizeText(novel))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []glossary.Entry
	for rows.Next() {
		var e glossary.Entry
		if err := rows.Scan(&e.Source, &e.Target); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return glossary.FromEntries(entries)
}
