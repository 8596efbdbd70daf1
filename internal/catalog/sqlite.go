package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB persists catalog records and their precomputed embeddings between runs.
// The in-memory snapshot is the authority during a run; the database only
// feeds it at startup and receives the result of each ingestion.
type DB struct {
	pool *sql.DB
}

// OpenDB opens (and migrates) the catalog database at the given path.
func OpenDB(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	// sqlite wants a single writer
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping catalog db: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) migrate(ctx context.Context) error {
	_, err := d.pool.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assessments (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			url              TEXT NOT NULL DEFAULT '',
			description      TEXT NOT NULL DEFAULT '',
			test_type        TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			remote_testing   INTEGER NOT NULL,
			adaptive_testing INTEGER NOT NULL,
			embedding        BLOB,
			embedding_status TEXT NOT NULL,
			updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate catalog db: %w", err)
	}
	return nil
}

// SaveRecords upserts the given records in a single transaction.
func (d *DB) SaveRecords(ctx context.Context, records []*AssessmentRecord) error {
	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save records: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO assessments
			(id, name, url, description, test_type, duration_minutes,
			 remote_testing, adaptive_testing, embedding, embedding_status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, url=excluded.url, description=excluded.description,
			test_type=excluded.test_type, duration_minutes=excluded.duration_minutes,
			remote_testing=excluded.remote_testing, adaptive_testing=excluded.adaptive_testing,
			embedding=excluded.embedding, embedding_status=excluded.embedding_status,
			updated_at=excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare save records: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var blob []byte
		if len(r.Embedding) > 0 {
			blob = embeddingToBlob(r.Embedding)
		}
		_, err := stmt.ExecContext(ctx,
			r.ID, r.Name, r.URL, r.Description, string(r.TestType), r.DurationMinutes,
			boolToInt(r.RemoteTesting), boolToInt(r.AdaptiveTesting), blob, string(r.EmbeddingStatus),
		)
		if err != nil {
			return fmt.Errorf("save record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// LoadRecords reads all persisted records, embeddings included.
func (d *DB) LoadRecords(ctx context.Context) ([]*AssessmentRecord, error) {
	rows, err := d.pool.QueryContext(ctx, `
		SELECT id, name, url, description, test_type, duration_minutes,
		       remote_testing, adaptive_testing, embedding, embedding_status
		FROM assessments ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	var records []*AssessmentRecord
	for rows.Next() {
		var (
			r        AssessmentRecord
			testType string
			remote   int
			adaptive int
			blob     []byte
			status   string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.URL, &r.Description, &testType,
			&r.DurationMinutes, &remote, &adaptive, &blob, &status); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		r.TestType = TestType(testType)
		r.RemoteTesting = remote != 0
		r.AdaptiveTesting = adaptive != 0
		r.EmbeddingStatus = EmbeddingStatus(status)
		if len(blob) > 0 {
			r.Embedding = blobToEmbedding(blob)
		}

		records = append(records, &r)
	}

	return records, rows.Err()
}

func (d *DB) Close() error {
	if d == nil || d.pool == nil {
		return nil
	}
	return d.pool.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
