package plugin

import (
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// AppInfoProber computes the immutable per-process application facts.
// Injected so tests can count invocations; the store caches the first
// result for the process lifetime.
type AppInfoProber func() AppInfo

// MetadataStore holds the host's live connection and application
// metadata. The host database subsystem is the sole writer of the
// connection snapshot; every reader gets a defensive copy.
type MetadataStore struct {
	logger     zerolog.Logger
	notifier   *Notifier
	prober     AppInfoProber
	connection *ConnectionInfo
	appInfo    *AppInfo
	mu         sync.RWMutex
}

// NewMetadataStore creates a metadata store. A nil prober falls back
// to the process defaults.
func NewMetadataStore(logger zerolog.Logger, notifier *Notifier, prober AppInfoProber) *MetadataStore {
	if prober == nil {
		prober = defaultAppInfoProber
	}
	return &MetadataStore{
		logger:   logger.With().Str("component", "metadata-store").Logger(),
		notifier: notifier,
		prober:   prober,
	}
}

func defaultAppInfoProber() AppInfo {
	return AppInfo{
		Version:  HostVersion,
		Platform: runtime.GOOS,
		Arch:     runtime.GOARCH,
	}
}

// SetCurrentConnection replaces the stored snapshot wholesale and
// emits ConnectionChanged on the same call. nil denotes "no active
// connection". The database subsystem is the only legitimate caller.
func (s *MetadataStore) SetCurrentConnection(info *ConnectionInfo) {
	s.mu.Lock()
	s.connection = info.Clone()
	s.mu.Unlock()

	var connectionID string
	if info != nil {
		connectionID = info.ID
	}
	s.logger.Debug().Str("connection", connectionID).Msg("Connection changed")
	s.notifier.Emit(ConnectionChanged{ConnectionID: connectionID})
}

// GetCurrentConnection returns a defensive copy of the active
// connection snapshot, or nil when no connection is open.
func (s *MetadataStore) GetCurrentConnection() *ConnectionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connection.Clone()
}

// GetAppInfo returns the cached application facts, probing them on
// first use. Recomputed only after an explicit Clear.
func (s *MetadataStore) GetAppInfo() AppInfo {
	s.mu.RLock()
	cached := s.appInfo
	s.mu.RUnlock()
	if cached != nil {
		return *cached
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appInfo == nil {
		info := s.prober()
		s.appInfo = &info
	}
	return *s.appInfo
}

// Clear resets the connection snapshot and the cached AppInfo so a
// later GetAppInfo recomputes rather than serving stale data.
func (s *MetadataStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connection = nil
	s.appInfo = nil
}
