// Package query is the gateway between plugin query capabilities and
// the host's active database connection. The scoped API enforces
// query:read / query:write before any call lands here; this package
// only verifies that the addressed connection is the live one and
// delegates to database/sql.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/sqlpro/sqlpro/pkg/plugin"
)

// Gateway executes plugin statements against the host's open database
type Gateway struct {
	logger zerolog.Logger
	mu     sync.RWMutex
	connID string
	db     *sql.DB
}

// NewGateway creates a query gateway with no bound connection
func NewGateway(logger zerolog.Logger) *Gateway {
	return &Gateway{
		logger: logger.With().Str("component", "query-gateway").Logger(),
	}
}

// Bind attaches the gateway to the host's newly opened connection.
// The database subsystem calls this alongside SetCurrentConnection.
func (g *Gateway) Bind(connID string, db *sql.DB) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connID = connID
	g.db = db
}

// Unbind detaches the gateway when the connection closes
func (g *Gateway) Unbind() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connID = ""
	g.db = nil
}

func (g *Gateway) handle(connID string) (*sql.DB, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil || g.connID != connID {
		return nil, plugin.ErrConnectionNotFound
	}
	return g.db, nil
}

// Query runs a read statement and materializes the rows as maps so
// plugins never hold driver-owned cursors.
func (g *Gateway) Query(ctx context.Context, connectionID, query string, args ...any) ([]map[string]any, error) {
	db, err := g.handle(connectionID)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		scanTargets := make([]any, len(cols))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	g.logger.Debug().Str("connection", connectionID).Int("rows", len(results)).Msg("Executed query")
	return results, nil
}

// Exec runs a mutating statement and returns the affected row count
func (g *Gateway) Exec(ctx context.Context, connectionID, statement string, args ...any) (int64, error) {
	db, err := g.handle(connectionID)
	if err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx, statement, args...)
	if err != nil {
		return 0, fmt.Errorf("statement failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	g.logger.Debug().Str("connection", connectionID).Int64("affected", affected).Msg("Executed statement")
	return affected, nil
}
