package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentsift/assessrec/internal/catalog"
	"github.com/talentsift/assessrec/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the assessment catalog from a seed file or the vendor site and precompute embeddings",
	Run: func(_ *cobra.Command, _ []string) {
		runIngest()
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringP("seed-file", "s", "", "json file with assessment definitions")
	ingestCmd.Flags().StringP("scrape-url", "u", "", "catalog page to scrape when no seed file is given")
	viper.BindPFlag("catalog.seed-file", ingestCmd.Flags().Lookup("seed-file"))
	viper.BindPFlag("catalog.scrape-url", ingestCmd.Flags().Lookup("scrape-url"))
}

func runIngest() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.Catalog == nil {
		log.Fatal("catalog configuration is required")
	}

	records, err := collectRecords(ctx, config.Catalog, log)
	if err != nil {
		log.Fatal("collecting assessment records", zap.Error(err))
	}
	if len(records) == 0 {
		log.Fatal("no assessment records collected")
	}

	log.Info("collected assessment records", zap.Int("count", len(records)))

	provider, err := newProvider(ctx, config.Gemini, log)
	if err != nil {
		log.Fatal("building embedding provider", zap.Error(err))
	}

	db, err := catalog.OpenDB(config.Catalog.DBPath)
	if err != nil {
		log.Fatal("opening catalog db", zap.Error(err))
	}
	defer db.Close()

	ing := ingest.New(provider, catalog.NewStore(), db, log)
	if config.Catalog.Workers > 0 {
		ing.SetWorkers(config.Catalog.Workers)
	}

	snap, err := ing.Refresh(ctx, records)
	if err != nil {
		log.Fatal("building catalog", zap.Error(err))
	}

	log.Info("catalog built",
		zap.String("snapshot_version", snap.Version()),
		zap.Int("assessments", snap.Len()),
	)
}

func collectRecords(ctx context.Context, cfg *CatalogConfig, log *zap.Logger) ([]*catalog.AssessmentRecord, error) {
	switch {
	case cfg.SeedFile != "":
		log.Info("loading seed file", zap.String("path", cfg.SeedFile))
		return ingest.LoadSeedFile(cfg.SeedFile)
	case cfg.ScrapeURL != "":
		log.Info("scraping catalog", zap.String("url", cfg.ScrapeURL))
		return ingest.NewScraper(cfg.ScrapeURL, log).Scrape(ctx)
	default:
		return nil, errors.New("either catalog.seed-file or catalog.scrape-url is required")
	}
}
