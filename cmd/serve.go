package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentsift/assessrec/internal/api"
	"github.com/talentsift/assessrec/internal/extract"
	"github.com/talentsift/assessrec/internal/history"
	"github.com/talentsift/assessrec/internal/recommender"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default :8080)")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		log.Fatal("config is required")
	}

	log.Info("starting the assessrec server", zap.String("version", version))

	store, db, err := openCatalog(ctx, config.Catalog, log)
	if err != nil {
		log.Fatal("opening catalog", zap.Error(err))
	}
	defer db.Close()

	if store.Snapshot().Len() == 0 {
		log.Warn("catalog is empty", zap.String("hint", "run 'assessrec ingest' to populate it"))
	}

	provider, err := newProvider(ctx, config.Gemini, log)
	if err != nil {
		log.Fatal("building embedding provider", zap.Error(err))
	}

	extractor := extract.New(log)
	rec := recommender.New(store, provider, extractor, log)

	var hist api.HistoryWriter
	if config.History != nil && config.History.Enabled {
		path := config.History.DBPath
		if path == "" {
			path = config.Catalog.DBPath
		}
		h, err := history.Open(path)
		if err != nil {
			log.Fatal("opening history db", zap.Error(err))
		}
		defer h.Close()
		hist = h
	}

	listen := defaultListenAddr
	if config.Server != nil && config.Server.Listen != "" {
		listen = config.Server.Listen
	}

	server := &http.Server{
		Addr:              listen,
		Handler:           api.NewServer(rec, hist, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serving http", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}
}
