package plugin

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// RescanCallback is invoked after plugin directory contents settle
type RescanCallback func()

// DirWatcher monitors plugin directories and triggers a rescan when a
// package is installed, updated, or removed. Events are debounced so a
// multi-file install triggers a single rescan.
type DirWatcher struct {
	logger             zerolog.Logger
	watcher            *fsnotify.Watcher
	dirs               []string
	stabilityThreshold time.Duration
	onRescan           RescanCallback
	done               chan struct{}
	debounceTimer      *time.Timer
	debounceMu         sync.Mutex
	stopOnce           sync.Once
}

// DirWatcherConfig holds configuration for the watcher
type DirWatcherConfig struct {
	Dirs               []string
	StabilityThreshold time.Duration
	OnRescan           RescanCallback
}

// NewDirWatcher creates a new plugin directory watcher
func NewDirWatcher(logger zerolog.Logger, config DirWatcherConfig) (*DirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if config.StabilityThreshold == 0 {
		config.StabilityThreshold = 250 * time.Millisecond
	}

	return &DirWatcher{
		logger:             logger.With().Str("component", "plugin-watcher").Logger(),
		watcher:            watcher,
		dirs:               config.Dirs,
		stabilityThreshold: config.StabilityThreshold,
		onRescan:           config.OnRescan,
		done:               make(chan struct{}),
	}, nil
}

// Start begins watching the configured directories. Directories that
// do not exist yet are skipped silently; a later rescan picks them up.
func (w *DirWatcher) Start() error {
	watching := 0
	for _, dir := range w.dirs {
		if dir == "" {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to watch plugin directory")
			continue
		}
		watching++
	}

	go w.eventLoop()

	w.logger.Info().Int("dirs", watching).Msg("Plugin directory watcher started")
	return nil
}

// Stop stops the watcher
func (w *DirWatcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
	})

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceMu.Unlock()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Info().Msg("Plugin directory watcher stopped")
	return nil
}

func (w *DirWatcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *DirWatcher) handleEvent(event fsnotify.Event) {
	if w.shouldIgnore(event.Name) {
		return
	}
	w.scheduleRescan()
}

// scheduleRescan collapses bursts of events into one rescan
func (w *DirWatcher) scheduleRescan() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.stabilityThreshold, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.logger.Debug().Msg("Plugin directories changed, rescanning")
		if w.onRescan != nil {
			w.onRescan()
		}
	})
}

func (w *DirWatcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, ".partial") {
		return true
	}
	return false
}
