package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mpickett/artfetch/internal/config"
	"github.com/mpickett/artfetch/internal/logging"
)

// Service watches the config file and re-applies the logging section
// through the logging Manager when the file changes.
type Service struct {
	path     string
	manager  *logging.Manager
	logger   *slog.Logger
	debounce time.Duration
}

// New creates a config watcher for the given config file path.
func New(path string, manager *logging.Manager, logger *slog.Logger) *Service {
	return &Service{
		path:     path,
		manager:  manager,
		logger:   logger.With(slog.String("component", "config-watcher")),
		debounce: 500 * time.Millisecond,
	}
}

// SetDebounce overrides the default debounce interval (for testing).
func (s *Service) SetDebounce(d time.Duration) {
	s.debounce = d
}

// Start blocks until ctx is canceled. The watch is placed on the config
// file's directory rather than the file itself: editors and config
// management tools replace files atomically, which would otherwise drop
// the watch on the first rename.
func (s *Service) Start(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("fsnotify unavailable, config reload disabled", "error", err)
		<-ctx.Done()
		return
	}
	defer w.Close() //nolint:errcheck

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		s.logger.Warn("watching config directory failed, config reload disabled",
			"dir", dir, "error", err)
		<-ctx.Done()
		return
	}

	base := filepath.Base(s.path)
	s.logger.Debug("config watcher starting", "path", s.path)

	// Debounce timer for coalescing editor write bursts into one reload.
	// Starts stopped; reset on each relevant event.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	reloadPending := false

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("config watcher stopping")
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if reloadPending && !debounceTimer.Stop() {
				<-debounceTimer.C
			}
			debounceTimer.Reset(s.debounce)
			reloadPending = true

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("config watcher error", "error", err)

		case <-debounceTimer.C:
			reloadPending = false
			s.reload()
		}
	}
}

// reload re-reads the config file and applies its logging section. A
// file that fails to load leaves the current logging configuration in
// place.
func (s *Service) reload() {
	cfg, err := config.Load(s.path)
	if err != nil {
		s.logger.Warn("config reload failed, keeping current settings", "error", err)
		return
	}

	s.manager.Reconfigure(logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FilePath:       cfg.Logging.FilePath,
		FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
		FileMaxFiles:   cfg.Logging.FileMaxFiles,
		FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
	})
	s.logger.Info("logging configuration reloaded",
		"level", cfg.Logging.Level, "format", cfg.Logging.Format)
}
