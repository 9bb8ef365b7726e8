package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"heartcheck/config"
	"heartcheck/db"
	qhttp "heartcheck/http"
	"heartcheck/ml"
	"heartcheck/monitoring"
	"heartcheck/pipeline"
)

const (
	modelName       = "gaussian_nb"
	shutdownTimeout = 10 * time.Second
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Train on the dataset and serve predictions",
		Long: `Loads the configured dataset, trains the model once and serves
GET /, POST /predict, GET /ws/predict, GET /api/health, GET /api/model and
GET /metrics until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := startService(ctx, cfg, logger)
			if err != nil {
				logger.Error("startup failed", zap.Error(err))
				return err
			}
			return svc.run(ctx)
		},
	}
}

// service is a trained model bound to a listening server.
type service struct {
	server  *qhttp.Server
	watcher *pipeline.DatasetWatcher
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// startService trains the model and binds the listener. Nothing is served
// until run is called.
func startService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*service, error) {
	records, source, err := loadRecords(ctx, cfg.Dataset, logger)
	if err != nil {
		return nil, err
	}
	model, err := ml.Train(records, ml.WithVarSmoothing(cfg.ML.VarSmoothing))
	if err != nil {
		return nil, err
	}
	info := model.Info()
	logger.Info("Naive Bayes model trained",
		zap.String("source", source),
		zap.Int("samples", info.Samples),
		zap.Float64s("priors", info.Priors),
	)

	metrics := monitoring.NewMetrics()
	metrics.SetTrainingSamples(info.Samples)
	recordTraining(ctx, cfg.Database.Path, source, model, records, logger)

	svc := &service{metrics: metrics, logger: logger}
	if cfg.Dataset.Watch && cfg.Dataset.Source != config.SourcePostgres {
		svc.watcher, err = pipeline.NewDatasetWatcher(cfg.Dataset.Path, func(fsnotify.Event) {
			metrics.SetDatasetStale(true)
		}, logger)
		if err != nil {
			logger.Warn("dataset watcher disabled", zap.Error(err))
		}
	}

	svc.server = qhttp.NewServer(qhttp.ServerConfigFrom(cfg.HTTP), qhttp.Deps{
		Predictor: model,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err := svc.server.Listen(); err != nil {
		if svc.watcher != nil {
			svc.watcher.Close()
		}
		return nil, err
	}
	return svc, nil
}

// run serves until ctx is cancelled, then drains in-flight requests.
func (s *service) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(s.server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.server.Stop(shutdownCtx)
	})
	if s.watcher != nil {
		g.Go(func() error { return s.watcher.Run(gctx) })
	}

	err := g.Wait()
	s.logger.Info("server stopped")
	return err
}

// recordTraining appends a training_log row with the resubstitution scores.
// A missing or broken database only costs the log entry.
func recordTraining(ctx context.Context, path, source string, model *ml.Model, records []ml.TrainingRecord, logger *zap.Logger) {
	if path == "" {
		return
	}
	store, err := db.Open(path)
	if err != nil {
		logger.Warn("training log unavailable", zap.String("path", path), zap.Error(err))
		return
	}
	defer store.Close()

	scores := ml.Evaluate(model, records)
	entry := db.TrainingLog{
		ModelName:  modelName,
		Source:     source,
		Accuracy:   scores.Accuracy,
		Precision:  scores.Precision,
		Recall:     scores.Recall,
		TrainedAt:  model.Info().TrainedAt,
		DataPoints: len(records),
	}
	if err := store.SaveTrainingLog(ctx, entry); err != nil {
		logger.Warn("write training log", zap.Error(err))
	}
}
