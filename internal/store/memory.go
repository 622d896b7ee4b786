package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/chapter"
)

// MemoryEntry is one cached chunk translation.
type MemoryEntry struct {
	Key         string
	SourceText  string
	SourceLang  string
	TargetLang  string
	Translation string
	ServiceUsed string
	UsageCount  int
	Invalidated bool
	LastUsed    time.Time
}

type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

// GetChunk implements chapter.ChunkCache. Invalidated entries are misses.
func (s *Store) GetChunk(ctx context.Context, key string) (string, bool, error) {
	var translation string
	var invalidated bool

	err := s.db.QueryRowContext(ctx,
		`SELECT translation, invalidated FROM chunk_memory WHERE cache_key = ?`, key).
		Scan(&translation, &invalidated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE chunk_memory SET usage_count = usage_count + 1, last_used = ? WHERE cache_key = ?`,
		now(), key)
	return translation, true, err
}

// PutChunk implements chapter.ChunkCache. Writing a key again replaces the
// translation and clears any invalidation.
func (s *Store) PutChunk(ctx context.Context, c chapter.CachedChunk) error {
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chunk_memory (cache_key, source_lang, target_lang, source_text, translation, service_used, usage_count, invalidated, last_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, FALSE, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
			translation = excluded.translation,
			service_used = excluded.service_used,
			invalidated = FALSE,
			last_used = excluded.last_used`,
		c.Key, c.SourceLang, c.TargetLang, normalizeText(c.Source), c.Translation, c.Service, ts, ts)
	return err
}

// InvalidateMemory keeps the entry for inspection but stops it being reused.
func (s *Store) InvalidateMemory(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE chunk_memory SET invalidated = TRUE WHERE cache_key = ?`, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteMemory permanently removes an entry and reports whether it existed.
func (s *Store) DeleteMemory(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunk_memory WHERE cache_key = ?`, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ClearMemory removes all entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunk_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns entries ordered by most recently used. limit <= 0
// returns all of them.
func (s *Store) ListMemory(ctx context.Context, limit int) ([]MemoryEntry, error) {
	query := `SELECT cache_key, source_text, source_lang, target_lang, translation, COALESCE(service_used, ''), usage_count, invalidated, last_used
		FROM chunk_memory ORDER BY last_used DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.Key, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.Translation, &e.ServiceUsed, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the chunk memory.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM chunk_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
