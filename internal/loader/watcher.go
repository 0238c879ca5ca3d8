package loader

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/circulars-tracker/constants"
)

// debounceWindow absorbs the burst of write events a single PDF copy
// produces before triggering a reload.
const debounceWindow = 2 * time.Second

// Watcher reloads a retailer whenever one of its circular PDFs appears or
// changes in the watched directory.
type Watcher struct {
	dir     string
	service *Service
	logger  *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewWatcher(dir string, service *Service, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:     dir,
		service: service,
		logger:  logger,
		timers:  make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled. It blocks, so call it from its
// own goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watcher.started", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !isCircularFile(event.Name) {
				continue
			}
			retailer, ok := w.service.RetailerForFile(event.Name)
			if !ok {
				w.logger.Debug("watcher.unmatched", "file", event.Name)
				continue
			}
			w.scheduleReload(ctx, retailer, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher.error", "error", err)
		}
	}
}

// isCircularFile reports whether a changed file is worth matching against
// retailer patterns, per the ingestion extension allowlist.
func isCircularFile(name string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(filepath.Ext(name))]
	return ok
}

// scheduleReload coalesces events per retailer: each new event resets the
// timer, and the reload fires once the directory goes quiet.
func (w *Watcher) scheduleReload(ctx context.Context, retailer, file string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[retailer]; ok {
		t.Stop()
	}
	w.logger.Debug("watcher.change", "retailer", retailer, "file", file)
	w.timers[retailer] = time.AfterFunc(debounceWindow, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.service.ReloadRetailer(ctx, retailer); err != nil {
			w.logger.Error("watcher.reload.failed", "retailer", retailer, "error", err)
		}
	})
}
