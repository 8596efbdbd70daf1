// Package api exposes the recommendation engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/talentsift/assessrec/internal/filtering"
	"github.com/talentsift/assessrec/internal/history"
	"github.com/talentsift/assessrec/internal/recommender"
)

const (
	defaultHistoryLimit = 10
	// maxHistoryLimit caps one history read the way ranking.MaxLimit caps
	// a recommendation page.
	maxHistoryLimit = 100
)

// HistoryWriter records served recommendations. May be nil-wrapped by the
// caller when history is disabled.
type HistoryWriter interface {
	Record(ctx context.Context, queryText string, kind recommender.InputKind, result *recommender.Result) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Server wires the engine into a gin router.
type Server struct {
	rec     *recommender.Recommender
	history HistoryWriter
	logger  *zap.Logger
}

// NewServer builds a Server. history may be nil.
func NewServer(rec *recommender.Recommender, hist HistoryWriter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{rec: rec, history: hist, logger: logger}
}

// Router returns the configured gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	r.GET("/api/recommendations", s.handleRecommend)
	r.GET("/api/queries", s.handleQueries)

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRecommend(c *gin.Context) {
	req, queryText, err := parseRecommendRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_query", "message": err.Error()})
		return
	}

	result, err := s.rec.Recommend(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if s.history != nil {
		if herr := s.history.Record(c.Request.Context(), queryText, req.Kind, result); herr != nil {
			s.logger.Warn("failed to record query history", zap.Error(herr))
		}
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleQueries(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history_disabled", "message": "query history is not enabled"})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_query", "message": "limit must be a positive integer"})
			return
		}
		if n > maxHistoryLimit {
			n = maxHistoryLimit
		}
		limit = n
	}

	entries, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read query history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history_unavailable", "message": "could not read query history"})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	c.JSON(http.StatusOK, gin.H{"queries": entries})
}

func (s *Server) writeError(c *gin.Context, err error) {
	var rerr *recommender.Error
	if !errors.As(err, &rerr) {
		s.logger.Error("recommendation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch rerr.Kind {
	case recommender.KindInvalidQuery:
		status = http.StatusBadRequest
	case recommender.KindContentUnavailable:
		status = http.StatusUnprocessableEntity
	case recommender.KindUnavailable:
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{"error": string(rerr.Kind), "message": rerr.Message})
}

func parseRecommendRequest(c *gin.Context) (recommender.Request, string, error) {
	query := strings.TrimSpace(c.Query("query"))
	url := strings.TrimSpace(c.Query("url"))

	if query == "" && url == "" {
		return recommender.Request{}, "", errors.New("one of query or url is required")
	}
	if query != "" && url != "" {
		return recommender.Request{}, "", errors.New("query and url are mutually exclusive")
	}

	req := recommender.Request{RawInput: query, Kind: recommender.InputText}
	queryText := query
	if url != "" {
		req.RawInput = url
		req.Kind = recommender.InputURL
		queryText = url
	}

	if raw := c.Query("test_types"); raw != "" {
		types, err := filtering.ParseTestTypes(raw)
		if err != nil {
			return recommender.Request{}, "", err
		}
		req.Filters.TestTypes = types
	}

	if raw := c.Query("max_duration"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return recommender.Request{}, "", errors.New("max_duration must be a positive integer")
		}
		req.Filters.MaxDurationMinutes = n
	}

	var err error
	if req.Filters.ExcludeUntimed, err = parseBoolParam(c, "exclude_untimed"); err != nil {
		return recommender.Request{}, "", err
	}
	if req.Filters.RemoteTestingRequired, err = parseBoolParam(c, "remote_testing"); err != nil {
		return recommender.Request{}, "", err
	}
	if req.Filters.AdaptiveTestingRequired, err = parseBoolParam(c, "adaptive_support"); err != nil {
		return recommender.Request{}, "", err
	}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return recommender.Request{}, "", errors.New("page must be a positive integer")
		}
		req.Page = n
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return recommender.Request{}, "", errors.New("limit must be a positive integer")
		}
		req.Limit = n
	}

	return req, queryText, nil
}

func parseBoolParam(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New(name + " must be a boolean")
	}
	return v, nil
}
