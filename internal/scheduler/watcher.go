package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
)

// WatchDir calls onChange after files in dir are created, written, renamed
// or removed. Bursts of events within debounce collapse into one call.
// A missing dir is created. If dir still cannot be watched, the failure is
// logged and WatchDir only waits, so scheduled runs carry on without it.
// It blocks until ctx is cancelled.
func WatchDir(ctx context.Context, dir string, debounce time.Duration, onChange func(), log logger.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err = addDir(watcher, dir); err != nil {
		log.Warn("Uploads folder not watched",
			logger.String("dir", dir),
			logger.Kind(string(domain.KindFetchUnavailable)),
			logger.Error(err),
		)
		<-ctx.Done()
		return nil
	}
	log.Info("Watching uploads folder", logger.String("dir", dir))

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&relevant == 0 {
				continue
			}
			log.Debug("Uploads folder changed",
				logger.String("file", event.Name),
				logger.String("op", event.Op.String()),
			)

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, onChange)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Uploads watcher error", logger.Error(werr))
		}
	}
}

func addDir(watcher *fsnotify.Watcher, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}
