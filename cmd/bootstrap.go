package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentsift/assessrec/internal/catalog"
	"github.com/talentsift/assessrec/internal/embedding"
	"github.com/talentsift/assessrec/internal/ingest"
	"github.com/talentsift/assessrec/internal/logger"
	"github.com/talentsift/assessrec/internal/secrets"
)

const defaultListenAddr = ":8080"

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		panic(fmt.Sprintf("creating a logger: %s", err))
	}
	return l
}

// newProvider builds the Gemini embedding provider wrapped with retries.
func newProvider(ctx context.Context, cfg *GeminiConfig, log *zap.Logger) (embedding.Provider, error) {
	if cfg == nil {
		cfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: strings.TrimSpace(cfg.APIKeyFile),
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	opts := []embedding.GeminiOption{}
	if cfg.Model != "" {
		opts = append(opts, embedding.WithModel(cfg.Model))
	}
	if cfg.MaxConcurrent > 0 {
		opts = append(opts, embedding.WithMaxConcurrent(cfg.MaxConcurrent))
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, embedding.WithRateLimit(cfg.RateLimit))
	}

	gemini, err := embedding.NewGemini(ctx, apiKey,
		logger.WithProviderFields(log, "gemini", cfg.Model), opts...)
	if err != nil {
		return nil, err
	}

	retryCfg := embedding.RetryConfig{}
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}

	return embedding.WithRetry(gemini, retryCfg, log), nil
}

// openCatalog opens the catalog database and restores the last published
// snapshot into the store.
func openCatalog(ctx context.Context, cfg *CatalogConfig, log *zap.Logger) (*catalog.Store, *catalog.DB, error) {
	if cfg == nil || cfg.DBPath == "" {
		return nil, nil, errors.New("catalog db path is required (catalog.db-path)")
	}

	db, err := catalog.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}

	store := catalog.NewStore()
	ing := ingest.New(nil, store, db, log)
	count, err := ing.Bootstrap(ctx)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("restoring catalog snapshot: %w", err)
	}

	log.Info("restored catalog from database",
		zap.String("path", cfg.DBPath),
		zap.Int("assessments", count),
	)

	return store, db, nil
}
