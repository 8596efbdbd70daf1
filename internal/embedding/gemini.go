package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/talentsift/assessrec/internal/logger"
)

const (
	defaultEmbeddingModel = "gemini-embedding-001"
	defaultMaxConcurrent  = 4
	defaultMaxLogLength   = 120
)

// Gemini embeds text through the Gemini API. Calls are bounded by a
// concurrency cap and a rate limiter so many concurrent requests cannot
// exceed provider limits.
type Gemini struct {
	client  *genai.Client
	model   string
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	logger  *zap.Logger
}

// GeminiOption configures a Gemini provider.
type GeminiOption func(*Gemini)

// WithModel overrides the embedding model name.
func WithModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model = strings.TrimSpace(model); model != "" {
			g.model = model
		}
	}
}

// WithMaxConcurrent caps concurrent in-flight embedding calls.
func WithMaxConcurrent(n int) GeminiOption {
	return func(g *Gemini) {
		if n > 0 {
			g.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithRateLimit caps embedding calls per second. Zero disables the limiter.
func WithRateLimit(perSecond float64) GeminiOption {
	return func(g *Gemini) {
		if perSecond > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			g.limiter = nil
		}
	}
}

// NewGemini creates a Gemini-backed embedding provider.
func NewGemini(ctx context.Context, apiKey string, log *zap.Logger, opts ...GeminiOption) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	g := &Gemini{
		client: client,
		model:  defaultEmbeddingModel,
		sem:    semaphore.NewWeighted(defaultMaxConcurrent),
		logger: log,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Embed converts canonical text into an embedding vector.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text must not be empty")
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.sem.Release(1)

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	g.logger.Debug("gemini embed request",
		zap.String("model", g.model),
		zap.Int("text_length", utf8.RuneCountInString(text)),
		zap.String("text_preview", logger.TruncateForLog(text, defaultMaxLogLength)),
	)

	resp, err := g.client.Models.EmbedContent(ctx, g.model, genai.Text(text), nil)
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", ErrUnavailable)
	}

	return resp.Embeddings[0].Values, nil
}

// Model returns the embedding model name.
func (g *Gemini) Model() string { return g.model }

// classify wraps provider-side failures in ErrUnavailable so callers can
// retry them, while genuine request errors pass through unchanged.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("embed content: %w", err)
	}

	// transport-level failures (timeouts, connection resets) are retryable
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
