// Command heartcheck trains a Gaussian Naive Bayes heart-disease classifier
// from a tabular dataset and serves predictions over HTTP.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heartcheck/config"
	"heartcheck/logging"
	"heartcheck/ml"
	"heartcheck/pipeline"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "heartcheck",
		Short: "Heart disease prediction service",
		Long: `heartcheck trains a Gaussian Naive Bayes model once from a labelled dataset
and serves predictions.

Examples:
  heartcheck serve --config config.yaml
  heartcheck evaluate --test-ratio 0.25 --seed 7
  heartcheck import --csv heart.csv --db heartcheck.db`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newEvaluateCmd(&configPath))
	root.AddCommand(newImportCmd(&configPath))
	return root
}

// loadRuntime reads the config and builds the logger every command uses.
func loadRuntime(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

// loadRecords reads and cleans the configured dataset. Errors wrap
// ml.ErrStartup.
func loadRecords(ctx context.Context, cfg config.DatasetConfig, logger *zap.Logger) ([]ml.TrainingRecord, string, error) {
	src, err := pipeline.NewSource(ctx, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("%w: open dataset: %v", ml.ErrStartup, err)
	}
	defer src.Close()

	records, err := pipeline.LoadTrainingData(ctx, src, pipeline.NewDataCleaner(logger), logger)
	if err != nil {
		return nil, "", err
	}
	return records, src.Describe(), nil
}
