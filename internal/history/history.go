// Package history keeps an append-only log of served recommendations. It is
// a collaborator of the engine, not part of it: callers write an entry after
// a successful request, and the orchestrator itself never touches it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/talentsift/assessrec/internal/recommender"
)

// Entry is one logged query with its ranked results.
type Entry struct {
	ID        string        `json:"id"`
	QueryText string        `json:"query_text"`
	InputKind string        `json:"input_kind"`
	CreatedAt time.Time     `json:"created_at"`
	Results   []ResultEntry `json:"results"`
}

// ResultEntry is one recommendation within a logged query.
type ResultEntry struct {
	AssessmentID string  `json:"assessment_id"`
	Score        float64 `json:"score"`
	Rank         int     `json:"rank"`
}

// Log persists query history in sqlite.
type Log struct {
	pool *sql.DB
}

// Open opens (and migrates) the history database at the given path.
func Open(path string) (*Log, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	pool.SetMaxOpenConns(1)

	l := &Log{pool: pool}
	if err := l.migrate(context.Background()); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return l, nil
}

func (l *Log) migrate(ctx context.Context) error {
	_, err := l.pool.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS queries (
			id         TEXT PRIMARY KEY,
			query_text TEXT NOT NULL,
			input_kind TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS query_results (
			query_id      TEXT NOT NULL REFERENCES queries(id),
			assessment_id TEXT NOT NULL,
			score         REAL NOT NULL,
			rank          INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_query_results_query ON query_results(query_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate history db: %w", err)
	}
	return nil
}

// Record appends a served recommendation to the log.
func (l *Log) Record(ctx context.Context, queryText string, kind recommender.InputKind, result *recommender.Result) error {
	tx, err := l.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history write: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO queries (id, query_text, input_kind, created_at) VALUES (?, ?, ?, ?)`,
		id, queryText, string(kind), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert query: %w", err)
	}

	for _, item := range result.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO query_results (query_id, assessment_id, score, rank) VALUES (?, ?, ?, ?)`,
			id, item.ID, item.Score, item.Rank,
		)
		if err != nil {
			return fmt.Errorf("insert query result: %w", err)
		}
	}

	return tx.Commit()
}

// Recent returns the newest entries, most recent first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.pool.QueryContext(ctx, `
		SELECT id, query_text, input_kind, created_at
		FROM queries ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.ID, &e.QueryText, &e.InputKind, &created); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		results, err := l.resultsFor(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Results = results
	}

	return entries, nil
}

func (l *Log) resultsFor(ctx context.Context, queryID string) ([]ResultEntry, error) {
	rows, err := l.pool.QueryContext(ctx, `
		SELECT assessment_id, score, rank
		FROM query_results WHERE query_id = ? ORDER BY rank
	`, queryID)
	if err != nil {
		return nil, fmt.Errorf("query history results: %w", err)
	}
	defer rows.Close()

	var results []ResultEntry
	for rows.Next() {
		var r ResultEntry
		if err := rows.Scan(&r.AssessmentID, &r.Score, &r.Rank); err != nil {
			return nil, fmt.Errorf("scan history result: %w", err)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

func (l *Log) Close() error {
	if l == nil || l.pool == nil {
		return nil
	}
	return l.pool.Close()
}
