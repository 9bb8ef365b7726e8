package pipeline

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DatasetWatcher reports changes to the dataset file the running model was
// trained from. It never reloads anything; the model stays as trained.
type DatasetWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(fsnotify.Event)
	logger   *zap.Logger

	closeOnce sync.Once
}

// NewDatasetWatcher watches the directory containing path, so that editors
// replacing the file by rename are seen too.
func NewDatasetWatcher(path string, onChange func(fsnotify.Event), logger *zap.Logger) (*DatasetWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &DatasetWatcher{
		path:     abs,
		watcher:  watcher,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Run delivers events until ctx is cancelled or the watcher is closed.
func (w *DatasetWatcher) Run(ctx context.Context) error {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Warn("dataset changed on disk; restart to retrain",
				zap.String("path", w.path),
				zap.String("op", event.Op.String()),
			)
			if w.onChange != nil {
				w.onChange(event)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("dataset watcher error", zap.Error(err))
		}
	}
}

func (w *DatasetWatcher) relevant(event fsnotify.Event) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func (w *DatasetWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
	})
	return err
}
