// Package pipeline loads the labelled training dataset from its configured
// source and cleans it before the model is fitted.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"heartcheck/config"
	"heartcheck/db"
	"heartcheck/ml"
)

// Source yields the labelled training rows.
type Source interface {
	Load(ctx context.Context) ([]ml.TrainingRecord, error)
	Describe() string
	Close() error
}

// NewSource opens the source named by cfg.Source.
func NewSource(ctx context.Context, cfg config.DatasetConfig) (Source, error) {
	switch cfg.Source {
	case config.SourceCSV, "":
		return NewCSVSource(cfg.Path), nil
	case config.SourceSQLite:
		return db.NewSQLiteSource(cfg.Path, cfg.Table)
	case config.SourcePostgres:
		return db.NewPostgresSource(ctx, cfg.DSN, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Source)
	}
}

// LoadTrainingData reads and cleans the dataset. Any rejected row, an empty
// dataset, or a dataset missing one of the outcome classes fails with an
// error wrapping ml.ErrStartup.
func LoadTrainingData(ctx context.Context, src Source, cleaner *DataCleaner, logger *zap.Logger) ([]ml.TrainingRecord, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cleaner == nil {
		cleaner = NewDataCleaner(logger)
	}

	raw, err := src.Load(ctx)
	if err != nil {
		if errors.Is(err, ml.ErrStartup) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load %s: %v", ml.ErrStartup, src.Describe(), err)
	}

	cleaned, issues := cleaner.Clean(raw)
	if rejected := Rejections(issues); len(rejected) > 0 {
		return nil, &IngestionError{Source: src.Describe(), Issues: rejected}
	}

	var counts [2]int
	for _, label := range ml.Labels(cleaned) {
		counts[label]++
	}
	if counts[0] == 0 || counts[1] == 0 {
		return nil, &IngestionError{Source: src.Describe(), Issues: []QualityIssue{{
			Rule:     "class_balance",
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("need both outcome classes, got %d negative and %d positive rows", counts[0], counts[1]),
		}}}
	}

	stats := cleaner.GetStats()
	logger.Info("training data loaded",
		zap.String("source", src.Describe()),
		zap.Int("rows", len(cleaned)),
		zap.Int("negative", counts[0]),
		zap.Int("positive", counts[1]),
		zap.Int64("corrected", stats.Corrected),
		zap.Int("warnings", len(issues)),
	)
	return cleaned, nil
}
