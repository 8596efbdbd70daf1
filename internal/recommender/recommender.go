// Package recommender composes normalization, embedding, filtering, and
// ranking into the engine's single public entry point. The orchestrator is
// stateless between requests: each call works against one immutable catalog
// snapshot and has no side effect beyond the embedding call.
package recommender

import (
	"context"
	"errors"
	"time"

	"github.com/talentsift/assessrec/internal/catalog"
	"github.com/talentsift/assessrec/internal/embedding"
	"github.com/talentsift/assessrec/internal/filtering"
	"github.com/talentsift/assessrec/internal/logger"
	"github.com/talentsift/assessrec/internal/ranking"
	"github.com/talentsift/assessrec/internal/textnorm"
	"go.uber.org/zap"
)

// InputKind tells the engine how to interpret raw input.
type InputKind string

const (
	// InputText is free text, including pasted job descriptions.
	InputText InputKind = "text"
	// InputURL is a job posting URL to fetch and extract text from.
	InputURL InputKind = "url"
)

// Request is one recommendation query.
type Request struct {
	RawInput string
	Kind     InputKind
	Filters  filtering.Filters
	Page     int
	Limit    int
}

// Item is one recommended assessment.
type Item struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	URL             string           `json:"url,omitempty"`
	TestType        catalog.TestType `json:"test_type"`
	DurationMinutes int              `json:"duration_minutes"`
	RemoteTesting   bool             `json:"remote_testing"`
	AdaptiveTesting bool             `json:"adaptive_testing"`
	Score           float64          `json:"score"`
	Rank            int              `json:"rank"`
}

// Result is the ordered outcome of one request. NoMatches distinguishes an
// empty catalog-after-filtering from a system failure.
type Result struct {
	Items           []Item    `json:"items"`
	NoMatches       bool      `json:"no_matches"`
	TotalEligible   int       `json:"total_eligible"`
	Page            int       `json:"page"`
	Limit           int       `json:"limit"`
	SnapshotVersion string    `json:"snapshot_version"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// TextExtractor resolves a URL into extracted plain text. Implemented by
// the extract package; any failure becomes ContentUnavailable.
type TextExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Recommender is the engine's sole public entry point.
type Recommender struct {
	store     *catalog.Store
	provider  embedding.Provider
	extractor TextExtractor
	logger    *zap.Logger
}

// New creates a Recommender. The provider should already carry its retry
// policy (embedding.WithRetry); the orchestrator treats an exhausted
// provider as a transient failure.
func New(store *catalog.Store, provider embedding.Provider, extractor TextExtractor, log *zap.Logger) *Recommender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recommender{
		store:     store,
		provider:  provider,
		extractor: extractor,
		logger:    log,
	}
}

// Recommend runs the full pipeline: normalize, embed, filter, rank,
// paginate. Re-running an identical request against an unchanged snapshot
// reproduces the identical ordered result.
func (r *Recommender) Recommend(ctx context.Context, req Request) (*Result, error) {
	text, err := r.resolveInput(ctx, req)
	if err != nil {
		return nil, err
	}

	canonical := textnorm.Normalize(text)
	if !textnorm.Usable(canonical) {
		if req.Kind == InputURL {
			return nil, newError(KindContentUnavailable,
				"extracted page text is too short to search; submit the job description text directly", nil)
		}
		return nil, newError(KindInvalidQuery,
			"query text is empty or too short after normalization", nil)
	}

	filters := req.Filters
	if filters.MaxDurationMinutes <= 0 {
		if hint, ok := textnorm.MaxDurationHint(canonical); ok {
			filters.MaxDurationMinutes = hint
			r.logger.Debug("applying duration hint from query text", zap.Int("max_duration_minutes", hint))
		}
	}

	vec, err := r.provider.Embed(ctx, canonical)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, embedding.ErrUnavailable) {
			return nil, newError(KindUnavailable, "embedding backend exhausted retries", err)
		}
		return nil, newError(KindUnavailable, "embedding failed", err)
	}

	if len(vec) == 0 || ranking.IsZeroVector(vec) {
		return nil, newError(KindInvalidQuery, "query produced a degenerate embedding", nil)
	}

	snap := r.store.Snapshot()
	eligible, step := filters.Apply(snap.Searchable())
	r.logger.Debug("structural filters applied",
		zap.Int("initial", step.Initial),
		zap.Int("dropped", step.Dropped),
		zap.Int("left", step.Left),
	)

	scored := ranking.Rank(vec, eligible)
	page := ranking.Paginate(scored, req.Page, req.Limit)

	result := &Result{
		Items:           make([]Item, 0, len(page)),
		NoMatches:       len(scored) == 0,
		TotalEligible:   len(scored),
		Page:            maxInt(req.Page, 1),
		Limit:           normalizedLimit(req.Limit),
		SnapshotVersion: snap.Version(),
		GeneratedAt:     time.Now().UTC(),
	}

	offset := (result.Page - 1) * result.Limit
	for i, s := range page {
		rec := s.Record
		result.Items = append(result.Items, Item{
			ID:              rec.ID,
			Name:            rec.Name,
			URL:             rec.URL,
			TestType:        rec.TestType,
			DurationMinutes: rec.DurationMinutes,
			RemoteTesting:   rec.RemoteTesting,
			AdaptiveTesting: rec.AdaptiveTesting,
			Score:           s.Score,
			Rank:            offset + i + 1,
		})
	}

	r.logger.Info("recommendation served",
		zap.String("input_kind", string(req.Kind)),
		zap.String("query_preview", logger.TruncateForLog(canonical, 80)),
		zap.String("snapshot_version", result.SnapshotVersion),
		zap.Int("eligible", result.TotalEligible),
		zap.Int("returned", len(result.Items)),
	)

	return result, nil
}

func (r *Recommender) resolveInput(ctx context.Context, req Request) (string, error) {
	if req.Kind != InputURL {
		return req.RawInput, nil
	}

	if r.extractor == nil {
		return "", newError(KindContentUnavailable, "url input is not supported by this deployment", nil)
	}

	text, err := r.extractor.Extract(ctx, req.RawInput)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", newError(KindContentUnavailable,
			"could not extract text from the given url; submit the job description text directly", err)
	}

	return text, nil
}

func normalizedLimit(limit int) int {
	if limit <= 0 {
		return ranking.DefaultLimit
	}
	if limit > ranking.MaxLimit {
		return ranking.MaxLimit
	}
	return limit
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
