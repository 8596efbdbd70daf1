// Package extract fetches a job-posting URL and pulls out its main-body
// text. The engine treats any failure here as "content unavailable" and
// advises the caller to submit the text directly.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "assessrec/1.0 (+https://github.com/talentsift/assessrec)"
	maxBodyBytes     = 2 << 20 // 2 MiB is plenty for any job posting
)

// ErrNoContent indicates the page yielded no usable text.
var ErrNoContent = errors.New("no usable text content")

// Extractor downloads pages and extracts plain text from them.
type Extractor struct {
	hc        *http.Client
	userAgent string
	logger    *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Extractor) { e.hc = hc }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(e *Extractor) {
		if ua = strings.TrimSpace(ua); ua != "" {
			e.userAgent = ua
		}
	}
}

// New creates an Extractor with sane timeouts.
func New(logger *zap.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		hc:        &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateURL reports whether raw is a fetchable http(s) URL.
func ValidateURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Extract fetches the URL and returns the page's main-body plain text.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (string, error) {
	if !ValidateURL(rawURL) {
		return "", fmt.Errorf("%w: invalid url %q", ErrNoContent, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(rawURL), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch failed: %v", ErrNoContent, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: status %d", ErrNoContent, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %v", ErrNoContent, err)
	}

	text := MainText(doc)
	if text == "" {
		return "", ErrNoContent
	}

	e.logger.Debug("extracted page text",
		zap.String("url", rawURL),
		zap.Int("text_length", len(text)),
	)

	return text, nil
}

// MainText extracts readable text from a parsed document, preferring
// dedicated content containers over the full body.
func MainText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside, noscript, form").Remove()

	for _, sel := range []string{"main", "article", "[role=main]", "#content", ".content"} {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if text := collapse(node.Text()); text != "" {
				return text
			}
		}
	}

	return collapse(doc.Find("body").Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
