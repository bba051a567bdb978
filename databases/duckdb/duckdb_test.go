package duckdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	duckdbdriver "github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melkeydev/mcp-dbbrowser/databases"
	"github.com/melkeydev/mcp-dbbrowser/types"
)

const (
	testCatalog = "test"
	testSchema  = "FIRST_SCHEMA"
	testTable   = "SOME_FIRST_TABLE"
)

// createTestDatabase writes the fixture database and closes it again so
// sessions can open the file on their own.
func createTestDatabase(t *testing.T) types.ConnectionDescriptor {
	t.Helper()

	path := filepath.Join(t.TempDir(), testCatalog+".duckdb")
	db, err := sql.Open("duckdb", path)
	require.NoError(t, err)

	stmts := []string{
		`CREATE SCHEMA FIRST_SCHEMA`,
		`CREATE SCHEMA SECOND_SCHEMA`,
		`CREATE TABLE FIRST_SCHEMA.SOME_FIRST_TABLE (NAME VARCHAR(255), ID INTEGER NOT NULL PRIMARY KEY)`,
		`INSERT INTO FIRST_SCHEMA.SOME_FIRST_TABLE VALUES ('a', 1), ('b', 2), ('c', 3), ('d', 4), ('e', 5)`,
		`CREATE TABLE FIRST_SCHEMA.NO_KEY (LINE VARCHAR, LEVEL INTEGER)`,
		`CREATE VIEW FIRST_SCHEMA.LATEST AS SELECT * FROM FIRST_SCHEMA.SOME_FIRST_TABLE WHERE ID > 3`,
		`CREATE TABLE SECOND_SCHEMA.BIG (N INTEGER)`,
		`INSERT INTO SECOND_SCHEMA.BIG SELECT range FROM range(50)`,
		`INSERT INTO SECOND_SCHEMA.BIG VALUES (NULL), (NULL)`,
		`CREATE TABLE SECOND_SCHEMA.TYPED (AMOUNT DECIMAL(10,2), U UUID, I INTERVAL, TS TIMESTAMP)`,
		`INSERT INTO SECOND_SCHEMA.TYPED VALUES
			(12.50, '00000000-0000-0000-0000-000000000001', INTERVAL 3 DAY, TIMESTAMP '2024-01-02 03:04:05'),
			(7.25, 'a0ef199c-0b4e-48bb-9d6b-6bb9bd380a11', INTERVAL '1 year 2 months 04:05:06.5', TIMESTAMP '2024-06-30 00:00:00')`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, db.Close())

	return types.ConnectionDescriptor{Name: "TestDuck", URL: "duckdb:" + path}
}

func openSession(t *testing.T, desc types.ConnectionDescriptor) *databases.Session {
	t.Helper()
	s, err := databases.Open(context.Background(), desc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDatabasePath(t *testing.T) {
	assert.Equal(t, "/var/data/a.duckdb", databasePath("duckdb:/var/data/a.duckdb"))
	assert.Equal(t, "/var/data/a.duckdb", databasePath("duckdb:///var/data/a.duckdb"))
	assert.Equal(t, "a.duckdb", databasePath("duckdb:a.duckdb"))
	assert.Equal(t, "", databasePath("duckdb:"))
}

func TestMetadata(t *testing.T) {
	s := openSession(t, createTestDatabase(t))
	ctx := context.Background()

	catalogs, err := s.ListCatalogs(ctx)
	require.NoError(t, err)
	assert.Contains(t, catalogs, testCatalog)

	schemas, err := s.ListSchemas(ctx, testCatalog)
	require.NoError(t, err)
	assert.Subset(t, schemas, []string{"FIRST_SCHEMA", "SECOND_SCHEMA", "main"})

	tables, err := s.ListTables(ctx, testCatalog, testSchema)
	require.NoError(t, err)
	assert.Equal(t, []types.DatabaseObject{
		{Name: "NO_KEY", Type: "TABLE", Comment: ""},
		{Name: "SOME_FIRST_TABLE", Type: "TABLE", Comment: ""},
		{Name: "LATEST", Type: "VIEW", Comment: ""},
	}, tables)

	missing, err := s.ListTables(ctx, testCatalog, "NO_SUCH_SCHEMA")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestListColumns(t *testing.T) {
	s := openSession(t, createTestDatabase(t))
	ctx := context.Background()

	columns, err := s.ListColumns(ctx, testCatalog, testSchema, testTable)
	require.NoError(t, err)
	require.Len(t, columns, 2)

	assert.Equal(t, 1, columns[0].OrderNo)
	assert.Equal(t, "NAME", columns[0].Name)
	assert.Equal(t, "VARCHAR", columns[0].Type)
	assert.Equal(t, "YES", columns[0].Nullable)
	assert.False(t, columns[0].PrimaryKey)

	assert.Equal(t, 2, columns[1].OrderNo)
	assert.Equal(t, "ID", columns[1].Name)
	assert.Equal(t, "INTEGER", columns[1].Type)
	assert.Equal(t, "NO", columns[1].Nullable)
	assert.True(t, columns[1].PrimaryKey)

	noKey, err := s.ListColumns(ctx, testCatalog, testSchema, "NO_KEY")
	require.NoError(t, err)
	require.Len(t, noKey, 2)
	for _, col := range noKey {
		assert.False(t, col.PrimaryKey, col.Name)
	}
}

func TestPreviewAndStatistics(t *testing.T) {
	s := openSession(t, createTestDatabase(t))
	ctx := context.Background()

	rows, err := s.PreviewRows(ctx, testCatalog, testSchema, testTable)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	var got [][]string
	for _, row := range rows {
		require.Len(t, row, 2)
		got = append(got, []string{*row[0], *row[1]})
	}
	assert.ElementsMatch(t, [][]string{
		{"a", "1"}, {"b", "2"}, {"c", "3"}, {"d", "4"}, {"e", "5"},
	}, got)

	big, err := s.PreviewRows(ctx, testCatalog, "SECOND_SCHEMA", "BIG")
	require.NoError(t, err)
	assert.Len(t, big, databases.PreviewLimit)

	tableStats, err := s.TableStatistics(ctx, testCatalog, testSchema, testTable)
	require.NoError(t, err)
	assert.Equal(t, int64(5), tableStats.Rows)
	assert.Equal(t, 2, tableStats.Columns)
	assert.Len(t, tableStats.ColumnStatisticsList, 2)

	columnStats, err := s.ColumnStatistics(ctx, testCatalog, testSchema, testTable)
	require.NoError(t, err)
	require.Len(t, columnStats, 2)
	assert.Equal(t, "NAME", columnStats[0].Name)
	assert.Equal(t, "a", *columnStats[0].MinValue)
	assert.Equal(t, "e", *columnStats[0].MaxValue)
	assert.Equal(t, int64(0), columnStats[0].NullValuesNumber)
	assert.Equal(t, "1", *columnStats[1].MinValue)
	assert.Equal(t, "5", *columnStats[1].MaxValue)

	bigStats, err := s.ColumnStatistics(ctx, testCatalog, "SECOND_SCHEMA", "BIG")
	require.NoError(t, err)
	require.Len(t, bigStats, 1)
	assert.Equal(t, "0", *bigStats[0].MinValue)
	assert.Equal(t, "49", *bigStats[0].MaxValue)
	assert.Equal(t, int64(2), bigStats[0].NullValuesNumber)
}

func TestPreviewAndStatistics_RenderedTypes(t *testing.T) {
	s := openSession(t, createTestDatabase(t))
	ctx := context.Background()

	rows, err := s.PreviewRows(ctx, testCatalog, "SECOND_SCHEMA", "TYPED")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var got [][]string
	for _, row := range rows {
		require.Len(t, row, 4)
		got = append(got, []string{*row[0], *row[1], *row[2], *row[3]})
	}
	assert.ElementsMatch(t, [][]string{
		{"12.5", "00000000-0000-0000-0000-000000000001", "3 days", "2024-01-02 03:04:05"},
		{"7.25", "a0ef199c-0b4e-48bb-9d6b-6bb9bd380a11", "1 year 2 months 04:05:06.5", "2024-06-30 00:00:00"},
	}, got)

	stats, err := s.ColumnStatistics(ctx, testCatalog, "SECOND_SCHEMA", "TYPED")
	require.NoError(t, err)
	require.Len(t, stats, 4)

	assert.Equal(t, "U", stats[1].Name)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", *stats[1].MinValue)
	assert.Equal(t, "a0ef199c-0b4e-48bb-9d6b-6bb9bd380a11", *stats[1].MaxValue)

	assert.Equal(t, "I", stats[2].Name)
	assert.Equal(t, "3 days", *stats[2].MinValue)
	assert.Equal(t, "1 year 2 months 04:05:06.5", *stats[2].MaxValue)
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		in   duckdbdriver.Interval
		want string
	}{
		{duckdbdriver.Interval{}, "00:00:00"},
		{duckdbdriver.Interval{Days: 1}, "1 day"},
		{duckdbdriver.Interval{Days: 3}, "3 days"},
		{duckdbdriver.Interval{Months: 12}, "1 year"},
		{duckdbdriver.Interval{Months: 26, Days: -2}, "2 years 2 months -2 days"},
		{duckdbdriver.Interval{Micros: 90_000_000}, "00:01:30"},
		{duckdbdriver.Interval{Days: 1, Micros: -1_250_000}, "1 day -00:00:01.25"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatInterval(tt.in))
		})
	}
}

func TestFormatValue(t *testing.T) {
	raw := []byte{0xa0, 0xef, 0x19, 0x9c, 0x0b, 0x4e, 0x48, 0xbb, 0x9d, 0x6b, 0x6b, 0xb9, 0xbd, 0x38, 0x0a, 0x11}

	text, ok := formatValue("UUID", raw)
	assert.True(t, ok)
	assert.Equal(t, "a0ef199c-0b4e-48bb-9d6b-6bb9bd380a11", text)

	_, ok = formatValue("BLOB", raw)
	assert.False(t, ok)

	_, ok = formatValue("UUID", []byte("short"))
	assert.False(t, ok)

	_, ok = formatValue("INTEGER", int32(4))
	assert.False(t, ok)
}

func TestStatistics_MissingTableIsQueryError(t *testing.T) {
	s := openSession(t, createTestDatabase(t))

	_, err := s.TableStatistics(context.Background(), testCatalog, testSchema, "NOPE")

	var qErr *databases.QueryError
	assert.ErrorAs(t, err, &qErr)
}
