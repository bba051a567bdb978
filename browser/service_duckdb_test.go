package browser_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melkeydev/mcp-dbbrowser/browser"
	_ "github.com/melkeydev/mcp-dbbrowser/databases/duckdb"
	"github.com/melkeydev/mcp-dbbrowser/registry"
	"github.com/melkeydev/mcp-dbbrowser/types"
)

// newDuckService registers a DuckDB file named inventory.duckdb under the
// connection name "inventory".
func newDuckService(t *testing.T) *browser.Service {
	t.Helper()
	dir := t.TempDir()

	path := filepath.Join(dir, "inventory.duckdb")
	db, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE SCHEMA STOCK`,
		`CREATE TABLE STOCK.ITEMS (SKU VARCHAR(32) NOT NULL PRIMARY KEY, QTY INTEGER, NOTE VARCHAR)`,
		`INSERT INTO STOCK.ITEMS VALUES ('A-1', 10, 'fragile'), ('B-2', 3, NULL), ('C-3', NULL, NULL)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, db.Close())

	store, err := registry.Open(filepath.Join(dir, "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, created, err := store.Create(context.Background(), types.ConnectionDescriptor{
		Name: "inventory",
		URL:  "duckdb:" + path,
	})
	require.NoError(t, err)
	require.True(t, created)

	return browser.NewService(store)
}

func TestService_DuckDBRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newDuckService(t)

	catalogs, found, err := svc.ListCatalogs(ctx, "inventory")
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, catalogs, "inventory")

	schemas, _, err := svc.ListSchemas(ctx, "inventory", "inventory")
	require.NoError(t, err)
	assert.Contains(t, schemas, "STOCK")

	tables, _, err := svc.ListTables(ctx, "inventory", "inventory", "STOCK")
	require.NoError(t, err)
	assert.Equal(t, []types.DatabaseObject{{Name: "ITEMS", Type: "TABLE"}}, tables)

	columns, _, err := svc.ListColumns(ctx, "inventory", "inventory", "STOCK", "ITEMS")
	require.NoError(t, err)
	require.Len(t, columns, 3)
	assert.Equal(t, "SKU", columns[0].Name)
	assert.True(t, columns[0].PrimaryKey)
	assert.Equal(t, "VARCHAR", columns[0].Type)
	assert.False(t, columns[1].PrimaryKey)
	assert.Equal(t, "INTEGER", columns[1].Type)

	rows, _, err := svc.PreviewRows(ctx, "inventory", "inventory", "STOCK", "ITEMS")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "A-1", *rows[0][0])
	assert.Nil(t, rows[2][1])

	stats, _, err := svc.ColumnStatistics(ctx, "inventory", "inventory", "STOCK", "ITEMS")
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, "QTY", stats[1].Name)
	assert.Equal(t, "10", *stats[1].MaxValue)
	assert.Equal(t, "3", *stats[1].MinValue)
	assert.Equal(t, int64(1), stats[1].NullValuesNumber)
	assert.Equal(t, int64(2), stats[2].NullValuesNumber)

	table, _, err := svc.TableStatistics(ctx, "inventory", "inventory", "STOCK", "ITEMS")
	require.NoError(t, err)
	assert.Equal(t, int64(3), table.Rows)
	assert.Equal(t, 3, table.Columns)
	assert.Len(t, table.ColumnStatisticsList, 3)
}

func TestService_DuckDBUnknownConnection(t *testing.T) {
	svc := newDuckService(t)

	stats, found, err := svc.TableStatistics(context.Background(), "nope", "inventory", "STOCK", "ITEMS")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, stats)
}
