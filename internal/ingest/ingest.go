// Package ingest builds catalog snapshots: it collects assessment records
// (scraped or from a seed file), precomputes their embeddings, persists the
// result, and publishes a fresh immutable snapshot. The recommendation core
// only ever reads what this package produces.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talentsift/assessrec/internal/catalog"
	"github.com/talentsift/assessrec/internal/embedding"
)

const defaultEmbedWorkers = 4

// Ingester refreshes the catalog store from a record source.
type Ingester struct {
	provider embedding.Provider
	store    *catalog.Store
	db       *catalog.DB
	workers  int
	logger   *zap.Logger
}

// New creates an Ingester. db may be nil when persistence is not wanted
// (tests, one-shot runs).
func New(provider embedding.Provider, store *catalog.Store, db *catalog.DB, logger *zap.Logger) *Ingester {
	return &Ingester{
		provider: provider,
		store:    store,
		db:       db,
		workers:  defaultEmbedWorkers,
		logger:   logger,
	}
}

// SetWorkers overrides the embedding worker pool size.
func (ing *Ingester) SetWorkers(n int) {
	if n > 0 {
		ing.workers = n
	}
}

// Refresh embeds the given records, persists them, and atomically swaps the
// published snapshot. Records whose embedding fails are kept with a FAILED
// marker and stay out of the searchable set; the refresh itself still
// succeeds as long as at least one record embedded.
func (ing *Ingester) Refresh(ctx context.Context, records []*catalog.AssessmentRecord) (*catalog.Snapshot, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("refresh with empty record set")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.workers)

	for _, rec := range records {
		g.Go(func() error {
			if rec.Searchable() {
				// embedding carried over from a previous ingestion
				return nil
			}

			vec, err := ing.provider.Embed(gctx, rec.EmbeddingText())
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				rec.EmbeddingStatus = catalog.EmbeddingStatusFailed
				ing.logger.Warn("embedding failed for record",
					zap.String("assessment_id", rec.ID),
					zap.Error(err),
				)
				return nil
			}

			rec.Embedding = vec
			rec.EmbeddingStatus = catalog.EmbeddingStatusReady
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("embedding records: %w", err)
	}

	ready := 0
	for _, rec := range records {
		if rec.Searchable() {
			ready++
		}
	}
	if ready == 0 {
		return nil, fmt.Errorf("no record could be embedded; keeping previous snapshot")
	}

	if ing.db != nil {
		if err := ing.db.SaveRecords(ctx, records); err != nil {
			return nil, fmt.Errorf("persist catalog: %w", err)
		}
	}

	snap := catalog.NewSnapshot(records)
	ing.store.Swap(snap)

	ing.logger.Info("catalog snapshot published",
		zap.String("snapshot_version", snap.Version()),
		zap.Int("records", len(records)),
		zap.Int("searchable", ready),
		zap.Int("embedding_failed", len(records)-ready),
	)

	return snap, nil
}

// Bootstrap loads persisted records into the store at startup. Returns the
// number of records loaded; zero with no error means an empty database.
func (ing *Ingester) Bootstrap(ctx context.Context) (int, error) {
	if ing.db == nil {
		return 0, nil
	}

	records, err := ing.db.LoadRecords(ctx)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	snap := catalog.NewSnapshot(records)
	ing.store.Swap(snap)

	ing.logger.Info("catalog loaded from database",
		zap.String("snapshot_version", snap.Version()),
		zap.Int("records", snap.Len()),
		zap.Int("searchable", len(snap.Searchable())),
	)

	return snap.Len(), nil
}
