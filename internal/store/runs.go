package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/chapter"
)

// RunRecord summarizes one stored chapter translation.
type RunRecord struct {
	ID            string
	Novel         string
	ChapterNumber int
	Success       bool
	State         string
	Chunks        int
	CachedChunks  int
	Violations    int
	FailureReason string
	CreatedAt     time.Time
}

type ViolationRecord struct {
	ChunkIndex int
	Term       string
	Expected   string
	Found      string
	Repaired   bool
}

// SaveRun records res and its violations and returns the run ID.
func (s *Store) SaveRun(ctx context.Context, novel string, res *chapter.Result) (string, error) {
	cached := 0
	for _, u := range res.Units {
		if u.Cached {
			cached++
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO chapter_runs (id, novel, chapter_number, success, state, chunks, cached_chunks, failure_reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, normalizeText(novel), res.ChapterNumber, res.Success, string(res.State), len(res.Units), cached, res.FailureReason, now())
	if err != nil {
		return "", err
	}

	seq := 0
	for _, u := range res.Units {
		for _, v := range u.Violations {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO chapter_violations (run_id, seq, chunk_index, term, expected, found, repaired) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				id, seq, u.ChunkIndex, v.Term, v.Expected, v.Found, v.Repaired)
			if err != nil {
				return "", err
			}
			seq++
		}
	}

	return id, tx.Commit()
}

// ListRuns returns the newest runs first, for one novel or all when novel is
// empty. limit <= 0 returns all of them.
func (s *Store) ListRuns(ctx context.Context, novel string, limit int) ([]RunRecord, error) {
	query := `SELECT r.id, r.novel, r.chapter_number, r.success, r.state, r.chunks, r.cached_chunks,
			COALESCE(r.failure_reason, ''), r.created_at,
			(SELECT COUNT(*) FROM chapter_violations v WHERE v.run_id = r.id)
		FROM chapter_runs r`
	var args []interface{}
	if novel != "" {
		query += ` WHERE r.novel = ?`
		args = append(args, normalizeText(novel))
	}
	query += ` ORDER BY r.created_at DESC, r.chapter_number DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Novel, &r.ChapterNumber, &r.Success, &r.State, &r.Chunks, &r.CachedChunks,
			&r.FailureReason, &r.CreatedAt, &r.Violations); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunViolations returns the violations recorded for a run in chunk order.
func (s *Store) RunViolations(ctx context.Context, runID string) ([]ViolationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_index, term, expected, COALESCE(found, ''), repaired FROM chapter_violations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ViolationRecord
	for rows.Next() {
		var v ViolationRecord
		if err := rows.Scan(&v.ChunkIndex, &v.Term, &v.Expected, &v.Found, &v.Repaired); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
