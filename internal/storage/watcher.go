package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/videre-project/asi-worker/internal/events"
	"github.com/videre-project/asi-worker/internal/logging"
	"github.com/videre-project/asi-worker/internal/storage/seed"
)

// StoreRefreshedEvent is the event type broadcast on the dispatcher
// whenever the watcher re-applies the seed file into the live store.
const StoreRefreshedEvent = "store-refreshed"

// Watcher hot-reloads a seed file into the live bigram store on write
// events, giving the "periodically rebuilt offline" corpus a concrete,
// testable in-process analogue.
type Watcher struct {
	seedPath   string
	store      *Service
	dispatcher *events.EventDispatcher
	logger     *logging.Logger
	stopChan   chan struct{}
}

// NewWatcher creates a Watcher for seedPath against store. dispatcher may
// be nil, in which case refresh events are simply not broadcast.
func NewWatcher(seedPath string, store *Service, dispatcher *events.EventDispatcher, logger *logging.Logger) *Watcher {
	return &Watcher{
		seedPath:   seedPath,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start watches the seed file for changes until ctx is canceled or Stop is
// called. A ticker backstops missed filesystem events, mirroring the
// teacher's log-file overlay watcher.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create seed file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.seedPath); err != nil {
		return fmt.Errorf("watch seed file %s: %w", w.seedPath, err)
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopChan:
			return nil
		case event := <-watcher.Events:
			if event.Op&fsnotify.Write == fsnotify.Write {
				w.reload(ctx)
			}
		case err := <-watcher.Errors:
			w.logger.Warn("seed file watcher error: %v", err)
		case <-ticker.C:
			w.reload(ctx)
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.stopChan)
}

func (w *Watcher) reload(ctx context.Context) {
	start := time.Now()

	records, err := seed.LoadFile(w.seedPath)
	if err != nil {
		w.logger.Warn("seed reload failed to load %s: %v", w.seedPath, err)
		return
	}

	if err := seed.Apply(ctx, w.store, records); err != nil {
		w.logger.Warn("seed reload failed to apply %s: %v", w.seedPath, err)
		return
	}

	elapsedMs := float64(time.Since(start).Microseconds()) / 1000
	w.logger.Info("seed reload applied %d records from %s in %.2fms", len(records), w.seedPath, elapsedMs)

	if w.dispatcher == nil {
		return
	}
	w.dispatcher.Dispatch(events.Event{
		Type: StoreRefreshedEvent,
		Data: map[string]interface{}{
			"trace_id":    uuid.NewString(),
			"record_count": len(records),
			"elapsed_ms":  elapsedMs,
		},
		Context: ctx,
	})
}
