package cmd

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/profile"
	"github.com/spigell/cv-matcher/internal/ranking"
	"github.com/spigell/cv-matcher/internal/report"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Compare every CV in a directory with one job and rank the candidates",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("cvs", "", "directory with CV JSON files")
	rankCmd.Flags().String("job", "", "job JSON file")
	rankCmd.Flags().Int("concurrency", ranking.DefaultConcurrency, "number of CVs compared at once")
	rankCmd.Flags().Float64("minimum-score", 0, "drop candidates below this final score")
	rankCmd.Flags().Int("top", 10, "keep the best N candidates, 0 keeps all")
	rankCmd.Flags().Bool("allow-degraded", false, "keep candidates scored without any oracle judgment")
	rankCmd.Flags().Int("max-ignored", -1, "drop candidates with more ignored aspects, negative disables")

	rankCmd.MarkFlagRequired("cvs")
	rankCmd.MarkFlagRequired("job")

	viper.BindPFlag("ranking.minimum-score", rankCmd.Flags().Lookup("minimum-score"))
	viper.BindPFlag("ranking.top", rankCmd.Flags().Lookup("top"))
	viper.BindPFlag("ranking.allow-degraded", rankCmd.Flags().Lookup("allow-degraded"))
	viper.BindPFlag("ranking.max-ignored", rankCmd.Flags().Lookup("max-ignored"))
}

func rank(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	job, err := profile.LoadJob(cmd.Flag("job").Value.String())
	if err != nil {
		logger.Fatal("loading job", zap.Error(err))
	}

	dir := cmd.Flag("cvs").Value.String()
	files, err := jsonFiles(dir)
	if err != nil {
		logger.Fatal("listing cvs", zap.Error(err))
	}

	entries := make([]ranking.Entry, 0, len(files))
	for _, f := range files {
		cv, err := profile.LoadCandidate(f)
		if err != nil {
			logger.Warn("skipping unreadable cv", zap.String("path", f), zap.Error(err))
			continue
		}
		entries = append(entries, ranking.Entry{ID: f, Profile: cv})
	}

	if len(entries) == 0 {
		logger.Info("exiting", zap.String("reason", "no cvs found"), zap.String("dir", dir))
		return
	}

	matcher, closer, err := newMatcher(ctx, config, logger)
	if err != nil {
		logger.Fatal("configuring the judgment oracle", zap.Error(err))
	}
	defer closer()

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	candidates := ranking.CompareAll(ctx, logger, matcher, job, entries, config.Weights, concurrency)

	steps := ranking.Steps(rankingConfig(config, logger))
	for _, st := range ranking.Describe(steps) {
		logger.Debug("ranking filter", zap.String("name", st.Name), zap.Bool("enabled", st.Enabled), zap.Any("details", st.Details))
	}

	ranked, outcomes, err := ranking.Run(ctx, logger, steps, candidates)
	if err != nil {
		logger.Fatal("ranking failed", zap.Error(err))
	}

	if err := report.PrintRanking(os.Stdout, job.Title(), outcomes, ranked); err != nil {
		logger.Fatal("printing ranking", zap.Error(err))
	}
}

// rankingConfig keeps degraded candidates when no provider is configured:
// every candidate is scored heuristically then and the confidence filter
// would drop them all.
func rankingConfig(config *Config, log *zap.Logger) ranking.Config {
	cfg := config.Ranking

	provider := providerNone
	if config.AI != nil && strings.TrimSpace(config.AI.Provider) != "" {
		provider = strings.ToLower(strings.TrimSpace(config.AI.Provider))
	}

	if provider == providerNone && !cfg.AllowDegraded {
		log.Warn("no judgment provider configured, keeping degraded candidates",
			zap.String("filter", "confidence"))
		cfg.AllowDegraded = true
	}

	return cfg
}
