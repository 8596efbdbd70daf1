package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/talentsift/assessrec/internal/catalog"
	"github.com/talentsift/assessrec/internal/embedding"
	"github.com/talentsift/assessrec/internal/history"
	"github.com/talentsift/assessrec/internal/recommender"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct {
	vec []float32
	err error
}

func (s *stubProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	return s.vec, s.err
}

func (s *stubProvider) Model() string { return "stub" }

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (string, error) {
	return s.text, s.err
}

func testStore() *catalog.Store {
	store := catalog.NewStore()
	store.Swap(catalog.NewSnapshot([]*catalog.AssessmentRecord{
		{ID: "coding-java", Name: "Java Coding", TestType: catalog.TestTypeSkill, DurationMinutes: 60, Embedding: []float32{0.9, 0.1}, EmbeddingStatus: catalog.EmbeddingStatusReady},
		{ID: "opq32", Name: "OPQ32", TestType: catalog.TestTypePersonality, DurationMinutes: catalog.DurationUntimed, RemoteTesting: true, Embedding: []float32{0.1, 0.9}, EmbeddingStatus: catalog.EmbeddingStatusReady},
		{ID: "verify-numerical", Name: "Verify Numerical", TestType: catalog.TestTypeCognitive, DurationMinutes: 25, RemoteTesting: true, Embedding: []float32{0.7, 0.3}, EmbeddingStatus: catalog.EmbeddingStatusReady},
	}))
	return store
}

func newTestRouter(t *testing.T, provider *stubProvider, extractor recommender.TextExtractor, hist HistoryWriter) *gin.Engine {
	t.Helper()
	rec := recommender.New(testStore(), provider, extractor, zap.NewNop())
	return NewServer(rec, hist, zap.NewNop()).Router()
}

func get(t *testing.T, router *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const queryParam = "query=senior+java+developer+with+strong+reasoning+skills"

func TestRecommendationsEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubProvider{vec: []float32{1, 0}}, nil, nil)

	w := get(t, router, "/api/recommendations?"+queryParam)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result recommender.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Items))
	}
	if result.Items[0].ID != "coding-java" || result.Items[0].Rank != 1 {
		t.Errorf("unexpected top item: %+v", result.Items[0])
	}
}

func TestRecommendationsWithFilters(t *testing.T) {
	router := newTestRouter(t, &stubProvider{vec: []float32{1, 0}}, nil, nil)

	w := get(t, router, "/api/recommendations?"+queryParam+"&max_duration=30&remote_testing=true")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result recommender.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	for _, item := range result.Items {
		if item.DurationMinutes > 30 || !item.RemoteTesting {
			t.Errorf("filter violated by item %+v", item)
		}
	}
	if len(result.Items) != 2 {
		t.Errorf("expected 2 filtered items, got %d", len(result.Items))
	}
}

func TestRecommendationsValidation(t *testing.T) {
	router := newTestRouter(t, &stubProvider{vec: []float32{1, 0}}, nil, nil)

	cases := []struct {
		name string
		url  string
	}{
		{"missing input", "/api/recommendations"},
		{"both query and url", "/api/recommendations?" + queryParam + "&url=https://example.com"},
		{"unknown test type", "/api/recommendations?" + queryParam + "&test_types=bogus"},
		{"bad max duration", "/api/recommendations?" + queryParam + "&max_duration=abc"},
		{"bad boolean", "/api/recommendations?" + queryParam + "&remote_testing=maybe"},
		{"bad page", "/api/recommendations?" + queryParam + "&page=0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := get(t, router, tc.url); w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestRecommendationsErrorMapping(t *testing.T) {
	t.Run("short query", func(t *testing.T) {
		router := newTestRouter(t, &stubProvider{vec: []float32{1, 0}}, nil, nil)

		w := get(t, router, "/api/recommendations?query=java")
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("url extraction failure", func(t *testing.T) {
		router := newTestRouter(t,
			&stubProvider{vec: []float32{1, 0}},
			&stubExtractor{err: errors.New("status 404")},
			nil,
		)

		w := get(t, router, "/api/recommendations?url=https://example.com/gone")
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("embedding backend down", func(t *testing.T) {
		router := newTestRouter(t,
			&stubProvider{err: fmt.Errorf("%w: status 503", embedding.ErrUnavailable)},
			nil, nil,
		)

		w := get(t, router, "/api/recommendations?"+queryParam)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestQueriesEndpoint(t *testing.T) {
	hist, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("opening history db: %v", err)
	}
	defer hist.Close()

	router := newTestRouter(t, &stubProvider{vec: []float32{1, 0}}, nil, hist)

	if w := get(t, router, "/api/recommendations?"+queryParam); w.Code != http.StatusOK {
		t.Fatalf("serving recommendation: %d", w.Code)
	}

	w := get(t, router, "/api/queries?limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload struct {
		Queries []history.Entry `json:"queries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Queries) != 1 {
		t.Fatalf("expected 1 logged query, got %d", len(payload.Queries))
	}
	if len(payload.Queries[0].Results) != 3 {
		t.Errorf("expected 3 logged results, got %d", len(payload.Queries[0].Results))
	}
}

type capturingHistory struct {
	lastLimit int
}

func (c *capturingHistory) Record(_ context.Context, _ string, _ recommender.InputKind, _ *recommender.Result) error {
	return nil
}

func (c *capturingHistory) Recent(_ context.Context, limit int) ([]history.Entry, error) {
	c.lastLimit = limit
	return nil, nil
}

func TestQueriesLimitIsClamped(t *testing.T) {
	hist := &capturingHistory{}
	router := newTestRouter(t, &stubProvider{vec: []float32{1, 0}}, nil, hist)

	if w := get(t, router, "/api/queries?limit=100000"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if hist.lastLimit != maxHistoryLimit {
		t.Errorf("expected the limit clamped to %d, got %d", maxHistoryLimit, hist.lastLimit)
	}

	if w := get(t, router, "/api/queries"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if hist.lastLimit != defaultHistoryLimit {
		t.Errorf("expected the default limit %d, got %d", defaultHistoryLimit, hist.lastLimit)
	}
}

func TestQueriesEndpointWithoutHistory(t *testing.T) {
	router := newTestRouter(t, &stubProvider{vec: []float32{1, 0}}, nil, nil)

	if w := get(t, router, "/api/queries"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 when history is disabled, got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, &stubProvider{vec: []float32{1, 0}}, nil, nil)

	if w := get(t, router, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
