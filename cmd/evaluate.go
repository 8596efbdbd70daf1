package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentsift/assessrec/internal/evaluation"
	"github.com/talentsift/assessrec/internal/recommender"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the engine against a labeled benchmark set (Mean Recall@K, MAP@K)",
	Run: func(cmd *cobra.Command, _ []string) {
		evaluate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringP("queries", "q", "", "json file with labeled benchmark queries")
	evaluateCmd.Flags().IntP("k", "k", evaluation.DefaultK, "ranking depth for the metrics")
	evaluateCmd.Flags().StringP("out", "o", "", "write results to this json file")
	evaluateCmd.MarkFlagRequired("queries")
}

func evaluate(cmd *cobra.Command) {
	ctx := context.Background()

	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		log.Fatal("config is required")
	}

	queriesFile, _ := cmd.Flags().GetString("queries")
	queries, err := evaluation.LoadQueries(queriesFile)
	if err != nil {
		log.Fatal("loading benchmark queries", zap.Error(err))
	}

	store, db, err := openCatalog(ctx, config.Catalog, log)
	if err != nil {
		log.Fatal("opening catalog", zap.Error(err))
	}
	defer db.Close()

	if store.Snapshot().Len() == 0 {
		log.Fatal("catalog is empty", zap.String("hint", "run 'assessrec ingest' first"))
	}

	provider, err := newProvider(ctx, config.Gemini, log)
	if err != nil {
		log.Fatal("building embedding provider", zap.Error(err))
	}

	rec := recommender.New(store, provider, nil, log)
	rank := func(ctx context.Context, query string, k int) ([]string, error) {
		result, err := rec.Recommend(ctx, recommender.Request{
			RawInput: query,
			Kind:     recommender.InputText,
			Limit:    k,
		})
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(result.Items))
		for _, item := range result.Items {
			ids = append(ids, item.ID)
		}
		return ids, nil
	}

	k, _ := cmd.Flags().GetInt("k")
	metrics, err := evaluation.Evaluate(ctx, queries, rank, k)
	if err != nil {
		log.Fatal("evaluation failed", zap.Error(err))
	}

	log.Info("evaluation finished",
		zap.Int("queries", metrics.Queries),
		zap.Int("k", metrics.K),
		zap.Float64("mean_recall", metrics.MeanRecall),
		zap.Float64("map", metrics.MAP),
	)

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := evaluation.SaveMetrics(out, metrics); err != nil {
			log.Fatal("writing results", zap.Error(err))
		}
		log.Info("results written", zap.String("filename", out))
	}
}
