package ingest

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/talentsift/assessrec/internal/catalog"
)

const (
	scrapeTimeout    = 30 * time.Second
	scrapeUserAgent  = "assessrec/1.0 (+https://github.com/talentsift/assessrec)"
	detailRatePerSec = 2 // keep detail-page fetches polite
)

var (
	remotePattern   = regexp.MustCompile(`(?i)remote\s+testing|online\s+testing|virtual\s+assessment`)
	adaptivePattern = regexp.MustCompile(`(?i)adaptive|computer[-\s]adaptive|\bIRT\b`)
	durationPattern = regexp.MustCompile(`(?i)(\d+)\s*(minutes|minute|mins|min|hours|hour|hrs|hr)`)
	productHrefs    = []string{"product", "assessment", "test", "verify", "ability", "personality", "solution"}
)

// Scraper collects assessment records from an SHL-style product catalog:
// one listing page with links out to per-assessment detail pages.
type Scraper struct {
	hc      *http.Client
	baseURL string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// ScraperOption configures a Scraper.
type ScraperOption func(*Scraper)

// WithScrapeClient overrides the HTTP client, mainly for tests.
func WithScrapeClient(hc *http.Client) ScraperOption {
	return func(s *Scraper) { s.hc = hc }
}

// NewScraper creates a scraper for the catalog at baseURL.
func NewScraper(baseURL string, logger *zap.Logger, opts ...ScraperOption) *Scraper {
	s := &Scraper{
		hc:      &http.Client{Timeout: scrapeTimeout},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		limiter: rate.NewLimiter(rate.Limit(detailRatePerSec), 1),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type candidate struct {
	name string
	url  string
}

// Scrape fetches the listing page, follows each product link, and returns
// parsed records without embeddings. A failing detail page drops that one
// record, never the whole run.
func (s *Scraper) Scrape(ctx context.Context) ([]*catalog.AssessmentRecord, error) {
	doc, err := s.fetch(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog page: %w", err)
	}

	candidates := s.listCandidates(doc)
	s.logger.Info("catalog listing parsed", zap.Int("candidates", len(candidates)))

	var records []*catalog.AssessmentRecord
	for _, c := range candidates {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		rec, err := s.scrapeDetail(ctx, c)
		if err != nil {
			s.logger.Warn("skipping assessment page",
				zap.String("url", c.url),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func (s *Scraper) listCandidates(doc *goquery.Document) []candidate {
	seen := map[string]bool{}
	var out []candidate

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}

		abs := s.absoluteURL(strings.TrimSpace(href))
		if abs == "" || !looksLikeProductLink(abs) {
			return
		}

		name := strings.TrimSpace(a.Text())
		if name == "" {
			name, _ = a.Attr("title")
			name = strings.TrimSpace(name)
		}
		if len(name) < 3 {
			return
		}

		slug := Slugify(name)
		if slug == "" || seen[slug] {
			return
		}
		seen[slug] = true

		out = append(out, candidate{name: name, url: abs})
	})

	return out
}

func (s *Scraper) scrapeDetail(ctx context.Context, c candidate) (*catalog.AssessmentRecord, error) {
	doc, err := s.fetch(ctx, c.url)
	if err != nil {
		return nil, err
	}

	doc.Find("script, style, nav, header, footer").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")

	description := ""
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		t := strings.TrimSpace(p.Text())
		if t != "" && t != c.name {
			description = t
			return false
		}
		return true
	})

	return &catalog.AssessmentRecord{
		ID:              Slugify(c.name),
		Name:            c.name,
		URL:             c.url,
		Description:     description,
		TestType:        catalog.InferTestType(c.name + " " + text),
		DurationMinutes: parseDetailDuration(text),
		RemoteTesting:   remotePattern.MatchString(text),
		AdaptiveTesting: adaptivePattern.MatchString(text),
	}, nil
}

func (s *Scraper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", scrapeUserAgent)

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

func (s *Scraper) absoluteURL(href string) string {
	switch {
	case href == "" || strings.HasPrefix(href, "#"):
		return ""
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "/"):
		return s.baseURL + href
	default:
		return s.baseURL + "/" + href
	}
}

func looksLikeProductLink(url string) bool {
	lower := strings.ToLower(url)
	for _, kw := range productHrefs {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func parseDetailDuration(text string) int {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return catalog.DurationUntimed
	}

	minutes, err := strconv.Atoi(m[1])
	if err != nil || minutes < 0 {
		return catalog.DurationUntimed
	}
	if strings.HasPrefix(strings.ToLower(m[2]), "h") {
		minutes *= 60
	}
	return minutes
}
