package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentsift/assessrec/internal/extract"
	"github.com/talentsift/assessrec/internal/filtering"
	"github.com/talentsift/assessrec/internal/history"
	"github.com/talentsift/assessrec/internal/recommender"
)

const (
	PromptShowDetails   = "Show details"
	PromptResultsToFile = "Dump results to file"
	PromptQuit          = "Quit"
)

var errExit = errors.New("exit requested")

var resultPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowDetails, PromptResultsToFile, PromptQuit},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend [query]",
	Short: "Recommend assessments for a role described in free text or a job posting URL",
	Run: func(cmd *cobra.Command, args []string) {
		recommend(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("url", "u", "", "job posting URL to fetch instead of a free-text query")
	recommendCmd.Flags().String("test-types", "", "comma-separated test types to keep")
	recommendCmd.Flags().Int("max-duration", 0, "maximum assessment duration in minutes")
	recommendCmd.Flags().Bool("exclude-untimed", false, "drop assessments without a fixed duration")
	recommendCmd.Flags().Bool("remote-testing", false, "require remote testing support")
	recommendCmd.Flags().Bool("adaptive-support", false, "require adaptive testing support")
	recommendCmd.Flags().Int("page", 0, "result page, starting at 1")
	recommendCmd.Flags().Int("limit", 0, "results per page")
	recommendCmd.Flags().BoolP("quiet", "q", false, "print results and exit without the action prompt")
}

func recommend(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		log.Fatal("config is required")
	}

	req, err := buildRequest(cmd, args)
	if err != nil {
		log.Fatal("building request", zap.Error(err))
	}

	store, db, err := openCatalog(ctx, config.Catalog, log)
	if err != nil {
		log.Fatal("opening catalog", zap.Error(err))
	}
	defer db.Close()

	provider, err := newProvider(ctx, config.Gemini, log)
	if err != nil {
		log.Fatal("building embedding provider", zap.Error(err))
	}

	rec := recommender.New(store, provider, extract.New(log), log)

	result, err := rec.Recommend(ctx, req)
	if err != nil {
		kind, _ := recommender.KindOf(err)
		log.Fatal("recommendation failed", zap.Error(err), zap.String("kind", string(kind)))
	}

	recordHistory(ctx, config, req, result, log)

	if result.NoMatches {
		log.Info("no assessments matched the query and filters")
		return
	}

	printResults(result)

	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return
	}

	for {
		_, action, err := resultPrompt.Run()
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, result, log); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			log.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, result *recommender.Result, log *zap.Logger) error {
	switch action {
	case PromptShowDetails:
		pretty, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(pretty))
		return nil
	case PromptResultsToFile:
		filename, err := dumpToTmpFile(result)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		log.Info("dumping results to file", zap.String("filename", filename))
		return nil
	case PromptQuit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func buildRequest(cmd *cobra.Command, args []string) (recommender.Request, error) {
	url, _ := cmd.Flags().GetString("url")
	query := strings.TrimSpace(strings.Join(args, " "))

	req := recommender.Request{RawInput: query, Kind: recommender.InputText}
	switch {
	case url != "" && query != "":
		return req, errors.New("a query and --url are mutually exclusive")
	case url == "" && query == "":
		return req, errors.New("a query or --url is required")
	case url != "":
		req.RawInput = url
		req.Kind = recommender.InputURL
	}

	if raw, _ := cmd.Flags().GetString("test-types"); raw != "" {
		types, err := filtering.ParseTestTypes(raw)
		if err != nil {
			return req, err
		}
		req.Filters.TestTypes = types
	}

	req.Filters.MaxDurationMinutes, _ = cmd.Flags().GetInt("max-duration")
	req.Filters.ExcludeUntimed, _ = cmd.Flags().GetBool("exclude-untimed")
	req.Filters.RemoteTestingRequired, _ = cmd.Flags().GetBool("remote-testing")
	req.Filters.AdaptiveTestingRequired, _ = cmd.Flags().GetBool("adaptive-support")
	req.Page, _ = cmd.Flags().GetInt("page")
	req.Limit, _ = cmd.Flags().GetInt("limit")

	return req, nil
}

func recordHistory(ctx context.Context, config *Config, req recommender.Request, result *recommender.Result, log *zap.Logger) {
	if config.History == nil || !config.History.Enabled {
		return
	}

	path := config.History.DBPath
	if path == "" {
		path = config.Catalog.DBPath
	}

	h, err := history.Open(path)
	if err != nil {
		log.Warn("skipping query history", zap.Error(err))
		return
	}
	defer h.Close()

	if err := h.Record(ctx, req.RawInput, req.Kind, result); err != nil {
		log.Warn("failed to record query history", zap.Error(err))
	}
}

func printResults(result *recommender.Result) {
	fmt.Printf("%d eligible assessments, page %d (snapshot %s)\n\n",
		result.TotalEligible, result.Page, result.SnapshotVersion)

	for _, item := range result.Items {
		duration := "untimed"
		if item.DurationMinutes >= 0 {
			duration = fmt.Sprintf("%d min", item.DurationMinutes)
		}
		fmt.Printf("%2d. [%.3f] %s (%s, %s)\n",
			item.Rank, item.Score, item.Name, item.TestType, duration)
	}
	fmt.Println()
}

func dumpToTmpFile(result *recommender.Result) (string, error) {
	f, err := os.CreateTemp("", app+"-results-*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return "", err
	}

	return f.Name(), nil
}
