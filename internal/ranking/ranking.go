// Package ranking orders eligible catalog records by semantic similarity to
// a query embedding. Ranking is deterministic: for a fixed snapshot and a
// fixed query vector it always produces the same ordered sequence.
package ranking

import (
	"math"
	"sort"

	"github.com/talentsift/assessrec/internal/catalog"
)

const (
	// DefaultLimit is the page size used when the caller sets none.
	DefaultLimit = 10
	// MaxLimit caps the page size a caller may request.
	MaxLimit = 50

	// scoreEpsilon bounds the score difference treated as a tie. Ties are
	// broken by ascending record ID so ordering never depends on input
	// order or map iteration.
	scoreEpsilon = 1e-9
)

// Scored pairs a catalog record with its similarity score in [0,1].
type Scored struct {
	Record *catalog.AssessmentRecord
	Score  float64
}

// Rank scores every record against the query vector and returns the full
// ordered candidate list, best first. Records whose embedding dimensionality
// does not match the query are skipped.
func Rank(queryVec []float32, records []*catalog.AssessmentRecord) []Scored {
	scored := make([]Scored, 0, len(records))
	for _, r := range records {
		if len(r.Embedding) != len(queryVec) {
			continue
		}
		cos := cosineSimilarity(queryVec, r.Embedding)
		scored = append(scored, Scored{Record: r, Score: rescale(cos)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if math.Abs(scored[i].Score-scored[j].Score) <= scoreEpsilon {
			return scored[i].Record.ID < scored[j].Record.ID
		}
		return scored[i].Score > scored[j].Score
	})

	return scored
}

// Paginate slices the ordered candidate list into the requested page.
// Pages are 1-based; out-of-range pages yield an empty slice.
func Paginate(scored []Scored, page, limit int) []Scored {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page <= 0 {
		page = 1
	}

	start := (page - 1) * limit
	if start >= len(scored) {
		return nil
	}

	end := start + limit
	if end > len(scored) {
		end = len(scored)
	}

	return scored[start:end]
}

// IsZeroVector reports whether every component of v is zero. A zero query
// vector carries no semantic signal and must be rejected before ranking.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// cosineSimilarity computes cosine similarity between two vectors of equal
// length. Degenerate (zero-norm) vectors yield 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rescale maps cosine similarity from [-1,1] to [0,1].
func rescale(cos float64) float64 {
	score := (cos + 1) / 2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
