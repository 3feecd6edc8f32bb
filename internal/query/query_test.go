package query

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlpro/sqlpro/pkg/plugin"
)

func testGateway(t *testing.T) (*Gateway, *sql.DB) {
	t.Helper()
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (name) VALUES ('ada'), ('grace')`)
	require.NoError(t, err)

	return NewGateway(logger), db
}

func TestGateway_UnboundConnection(t *testing.T) {
	g, _ := testGateway(t)
	ctx := context.Background()

	_, err := g.Query(ctx, "c1", "SELECT 1")
	assert.ErrorIs(t, err, plugin.ErrConnectionNotFound)

	_, err = g.Exec(ctx, "c1", "DELETE FROM users")
	assert.ErrorIs(t, err, plugin.ErrConnectionNotFound)
}

func TestGateway_ConnectionIDMismatch(t *testing.T) {
	g, db := testGateway(t)
	g.Bind("c1", db)

	_, err := g.Query(context.Background(), "stale-conn", "SELECT 1")
	assert.ErrorIs(t, err, plugin.ErrConnectionNotFound)
}

func TestGateway_Query(t *testing.T) {
	g, db := testGateway(t)
	g.Bind("c1", db)

	rows, err := g.Query(context.Background(), "c1", "SELECT id, name FROM users ORDER BY id")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ada", rows[0]["name"])
	assert.Equal(t, "grace", rows[1]["name"])
}

func TestGateway_QueryWithArgs(t *testing.T) {
	g, db := testGateway(t)
	g.Bind("c1", db)

	rows, err := g.Query(context.Background(), "c1", "SELECT name FROM users WHERE name = ?", "ada")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ada", rows[0]["name"])
}

func TestGateway_Exec(t *testing.T) {
	g, db := testGateway(t)
	g.Bind("c1", db)

	affected, err := g.Exec(context.Background(), "c1", "DELETE FROM users WHERE name = ?", "ada")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	rows, err := g.Query(context.Background(), "c1", "SELECT COUNT(*) AS n FROM users")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows[0]["n"])
}

func TestGateway_Unbind(t *testing.T) {
	g, db := testGateway(t)
	g.Bind("c1", db)

	_, err := g.Query(context.Background(), "c1", "SELECT 1")
	require.NoError(t, err)

	g.Unbind()
	_, err = g.Query(context.Background(), "c1", "SELECT 1")
	assert.ErrorIs(t, err, plugin.ErrConnectionNotFound)
}

func TestGateway_Rebind(t *testing.T) {
	g, db := testGateway(t)
	g.Bind("c1", db)
	g.Bind("c2", db)

	_, err := g.Query(context.Background(), "c1", "SELECT 1")
	assert.ErrorIs(t, err, plugin.ErrConnectionNotFound)

	_, err = g.Query(context.Background(), "c2", "SELECT 1")
	assert.NoError(t, err)
}
