// Package evaluation measures recommendation quality offline against a
// labeled benchmark set: for each labeled query the engine's ranked output
// is compared to the known-relevant assessments, yielding Mean Recall@K and
// MAP@K across the set.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const DefaultK = 3

// LabeledQuery pairs a benchmark query with the assessment IDs a correct
// engine should surface for it.
type LabeledQuery struct {
	Query    string   `json:"query"`
	Relevant []string `json:"relevant"`
}

// Metrics is the aggregate outcome of one evaluation run.
type Metrics struct {
	MeanRecall  float64   `json:"mean_recall"`
	MAP         float64   `json:"map"`
	K           int       `json:"k"`
	Queries     int       `json:"queries"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// RankFunc produces the engine's ranked assessment IDs for a query, best
// first, at least k deep when the catalog allows.
type RankFunc func(ctx context.Context, query string, k int) ([]string, error)

// RecallAtK is the fraction of relevant assessments found in the top k
// ranked results. No relevant set means nothing can be recalled.
func RecallAtK(ranked []string, relevant []string, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}

	topK := headOf(ranked, k)
	want := toSet(relevant)

	hits := 0
	for _, id := range topK {
		if want[id] {
			hits++
		}
	}

	return float64(hits) / float64(len(relevant))
}

// AveragePrecisionAtK sums precision at each position holding a relevant
// result within the top k, normalized by min(k, len(relevant)).
func AveragePrecisionAtK(ranked []string, relevant []string, k int) float64 {
	if len(relevant) == 0 || len(ranked) == 0 {
		return 0
	}

	topK := headOf(ranked, k)
	want := toSet(relevant)

	hits := 0
	precisionSum := 0.0
	for i, id := range topK {
		if !want[id] {
			continue
		}
		hits++
		precisionSum += float64(hits) / float64(i+1)
	}

	if hits == 0 {
		return 0
	}

	norm := k
	if len(relevant) < norm {
		norm = len(relevant)
	}

	return precisionSum / float64(norm)
}

// Evaluate runs every labeled query through rank and aggregates the
// per-query metrics. A failing query fails the run: a benchmark with holes
// in it measures nothing.
func Evaluate(ctx context.Context, queries []LabeledQuery, rank RankFunc, k int) (Metrics, error) {
	if len(queries) == 0 {
		return Metrics{}, fmt.Errorf("evaluate with empty query set")
	}
	if k <= 0 {
		k = DefaultK
	}

	recallSum := 0.0
	apSum := 0.0
	for _, q := range queries {
		ranked, err := rank(ctx, q.Query, k)
		if err != nil {
			return Metrics{}, fmt.Errorf("ranking benchmark query %q: %w", headOfString(q.Query, 40), err)
		}

		recallSum += RecallAtK(ranked, q.Relevant, k)
		apSum += AveragePrecisionAtK(ranked, q.Relevant, k)
	}

	n := float64(len(queries))
	return Metrics{
		MeanRecall:  recallSum / n,
		MAP:         apSum / n,
		K:           k,
		Queries:     len(queries),
		EvaluatedAt: time.Now().UTC(),
	}, nil
}

// LoadQueries reads a labeled benchmark set from a JSON file.
func LoadQueries(path string) ([]LabeledQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read benchmark file: %w", err)
	}

	var queries []LabeledQuery
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("parse benchmark file %s: %w", path, err)
	}

	for i, q := range queries {
		if q.Query == "" {
			return nil, fmt.Errorf("benchmark query %d has no query text", i)
		}
	}

	return queries, nil
}

// SaveMetrics writes evaluation results as indented JSON.
func SaveMetrics(path string, m Metrics) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write evaluation results: %w", err)
	}
	return nil
}

func headOf(ids []string, k int) []string {
	if k < len(ids) {
		return ids[:k]
	}
	return ids
}

func headOfString(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
