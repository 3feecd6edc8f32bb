// Package storage provides the SQLite-backed key-value store exposed
// to plugins through the storage:read and storage:write capabilities.
// Keys are namespaced by plugin ID so no plugin can read another's data.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Store is a per-plugin key-value store backed by SQLite
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the plugin storage database at path.
// Use ":memory:" for an ephemeral store in tests.
func Open(logger zerolog.Logger, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "plugin-storage").Logger(),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS plugin_storage (
			plugin_id  TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (plugin_id, key)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create storage schema: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves a value for a plugin. The second return reports
// whether the key exists.
func (s *Store) Get(ctx context.Context, pluginID, key string) (string, bool, error) {
	if pluginID == "" {
		return "", false, fmt.Errorf("plugin ID cannot be empty")
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM plugin_storage WHERE plugin_id = ? AND key = ?`,
		pluginID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read storage key: %w", err)
	}
	return value, true, nil
}

// Set writes a value for a plugin, replacing any existing value
func (s *Store) Set(ctx context.Context, pluginID, key, value string) error {
	if pluginID == "" {
		return fmt.Errorf("plugin ID cannot be empty")
	}
	if key == "" {
		return fmt.Errorf("storage key cannot be empty")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plugin_storage (plugin_id, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(plugin_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, pluginID, key, value)
	if err != nil {
		return fmt.Errorf("failed to write storage key: %w", err)
	}

	s.logger.Debug().Str("plugin", pluginID).Str("key", key).Msg("Stored value")
	return nil
}

// Delete removes a value for a plugin. Missing keys are a no-op.
func (s *Store) Delete(ctx context.Context, pluginID, key string) error {
	if pluginID == "" {
		return fmt.Errorf("plugin ID cannot be empty")
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM plugin_storage WHERE plugin_id = ? AND key = ?`,
		pluginID, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete storage key: %w", err)
	}
	return nil
}

// DeleteByPlugin removes every value a plugin has stored, used when a
// plugin is uninstalled permanently.
func (s *Store) DeleteByPlugin(ctx context.Context, pluginID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM plugin_storage WHERE plugin_id = ?`, pluginID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete plugin storage: %w", err)
	}
	removed, _ := res.RowsAffected()
	if removed > 0 {
		s.logger.Debug().Str("plugin", pluginID).Int64("keys", removed).Msg("Removed plugin storage")
	}
	return removed, nil
}
