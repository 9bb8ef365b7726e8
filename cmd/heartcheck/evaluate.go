package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heartcheck/db"
	"heartcheck/ml"
)

type evaluateOptions struct {
	testRatio float64
	seed      int64
	asJSON    bool
	record    bool
}

type evaluateReport struct {
	Source string     `json:"source"`
	Train  int        `json:"train"`
	Test   int        `json:"test"`
	Seed   int64      `json:"seed"`
	Scores ml.Metrics `json:"scores"`
}

func newEvaluateCmd(configPath *string) *cobra.Command {
	var opts evaluateOptions

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score the model on a held-out split of the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			records, source, err := loadRecords(cmd.Context(), cfg.Dataset, logger)
			if err != nil {
				return err
			}

			train, test := ml.SplitRecords(records, opts.testRatio, opts.seed)
			model, err := ml.Train(train, ml.WithVarSmoothing(cfg.ML.VarSmoothing))
			if err != nil {
				return err
			}
			report := evaluateReport{
				Source: source,
				Train:  len(train),
				Test:   len(test),
				Seed:   opts.seed,
				Scores: ml.Evaluate(model, test),
			}

			if opts.record {
				if cfg.Database.Path == "" {
					return fmt.Errorf("--record needs database.path in the config")
				}
				if err := saveEvaluation(cmd, cfg.Database.Path, model, report); err != nil {
					return err
				}
				logger.Info("evaluation recorded", zap.String("database", cfg.Database.Path))
			}
			return writeReport(cmd.OutOrStdout(), report, opts.asJSON)
		},
	}
	cmd.Flags().Float64Var(&opts.testRatio, "test-ratio", 0.2, "fraction of rows held out for scoring")
	cmd.Flags().Int64Var(&opts.seed, "seed", 42, "shuffle seed for the split")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&opts.record, "record", false, "append the scores to the training log")
	return cmd
}

func saveEvaluation(cmd *cobra.Command, path string, model *ml.Model, report evaluateReport) error {
	store, err := db.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.SaveTrainingLog(cmd.Context(), db.TrainingLog{
		ModelName:  modelName,
		Source:     report.Source,
		Accuracy:   report.Scores.Accuracy,
		Precision:  report.Scores.Precision,
		Recall:     report.Scores.Recall,
		TrainedAt:  model.Info().TrainedAt,
		DataPoints: report.Train,
	})
}

func writeReport(w io.Writer, report evaluateReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	s := report.Scores
	fmt.Fprintf(w, "source:    %s\n", report.Source)
	fmt.Fprintf(w, "split:     %d train / %d test (seed %d)\n", report.Train, report.Test, report.Seed)
	fmt.Fprintf(w, "scored:    %d (%d skipped)\n", s.Samples, s.Errors)
	fmt.Fprintf(w, "accuracy:  %.4f\n", s.Accuracy)
	fmt.Fprintf(w, "precision: %.4f\n", s.Precision)
	fmt.Fprintf(w, "recall:    %.4f\n", s.Recall)
	_, err := fmt.Fprintf(w, "f1:        %.4f\n", s.F1)
	return err
}
