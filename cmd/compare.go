package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/profile"
	"github.com/spigell/cv-matcher/internal/report"
)

const (
	outputText = "text"
	outputJSON = "json"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare one CV with one job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		compare(cmd)
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().String("cv", "", "CV JSON file, or a directory to pick one from")
	compareCmd.Flags().String("job", "", "job JSON file, or a directory to pick one from")
	compareCmd.Flags().StringToString("weight", nil, "weight override, e.g. --weight experience=0.4 (repeatable)")
	compareCmd.Flags().StringP("output", "o", outputText, "output format: text or json")

	compareCmd.MarkFlagRequired("cv")
	compareCmd.MarkFlagRequired("job")
}

func compare(cmd *cobra.Command) {
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

	output, _ := cmd.Flags().GetString("output")
	if output != outputText && output != outputJSON {
		logger.Fatal("unsupported output format", zap.String("output", output))
	}

	cvPath, err := pickFile(cmd.Flag("cv").Value.String(), "Select a CV")
	if err != nil {
		logger.Fatal("choosing a cv", zap.Error(err))
	}
	jobPath, err := pickFile(cmd.Flag("job").Value.String(), "Select a job")
	if err != nil {
		logger.Fatal("choosing a job", zap.Error(err))
	}

	cv, err := profile.LoadCandidate(cvPath)
	if err != nil {
		logger.Fatal("loading cv", zap.Error(err))
	}
	job, err := profile.LoadJob(jobPath)
	if err != nil {
		logger.Fatal("loading job", zap.Error(err))
	}

	raw, _ := cmd.Flags().GetStringToString("weight")
	overrides, err := mergeWeights(config.Weights, raw)
	if err != nil {
		logger.Fatal("parsing weights", zap.Error(err))
	}

	matcher, closer, err := newMatcher(ctx, config, logger)
	if err != nil {
		logger.Fatal("configuring the judgment oracle", zap.Error(err))
	}
	defer closer()

	r := matcher.Compare(ctx, cv, job, overrides)

	switch output {
	case outputJSON:
		pretty, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			logger.Fatal("encoding report", zap.Error(err))
		}
		fmt.Println(string(pretty))
	default:
		if err := report.Print(os.Stdout, r); err != nil {
			logger.Fatal("printing report", zap.Error(err))
		}
	}
}

// mergeWeights layers flag overrides on top of configured ones.
func mergeWeights(configured map[string]float64, flags map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(configured)+len(flags))
	for k, v := range configured {
		out[strings.ToLower(k)] = v
	}

	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, err := strconv.ParseFloat(strings.TrimSpace(flags[k]), 64)
		if err != nil {
			return nil, fmt.Errorf("weight %s: %w", k, err)
		}
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// pickFile returns path itself for a file. For a directory the user picks
// one of its JSON files.
func pickFile(path, label string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	files, err := jsonFiles(path)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no json files in %s", path)
	}
	if len(files) == 1 {
		return files[0], nil
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}

	prompt := promptui.Select{Label: label, Items: names, Size: 10}
	idx, _, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return "", errors.New("selection interrupted")
		}
		return "", err
	}

	return files[idx], nil
}

func jsonFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	return files, nil
}
