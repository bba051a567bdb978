// Package duckdb registers the DuckDB engine for duckdb: URLs.
//
// The URL carries the database file: duckdb:/var/data/sales.duckdb,
// duckdb:sales.duckdb or duckdb:///var/data/sales.duckdb. An empty path opens
// a private in-memory database. Credentials are ignored.
package duckdb

import (
	"fmt"
	"strings"

	duckdbdriver "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/melkeydev/mcp-dbbrowser/databases"
	"github.com/melkeydev/mcp-dbbrowser/sqltypes"
	"github.com/melkeydev/mcp-dbbrowser/types"
)

// Every attached database is a catalog.
var Dialect = &databases.Dialect{
	Name: "duckdb",

	Catalogs: `
		SELECT database_name
		FROM duckdb_databases()
		WHERE NOT internal
		ORDER BY database_name`,

	Schemas: `
		SELECT schema_name
		FROM duckdb_schemas()
		WHERE database_name = $1
		ORDER BY schema_name`,

	Tables: `
		SELECT table_name, table_type, comment
		FROM (
			SELECT table_name, 'TABLE' AS table_type, COALESCE(comment, '') AS comment
			FROM duckdb_tables()
			WHERE database_name = $1 AND schema_name = $2
			UNION ALL
			SELECT view_name, 'VIEW', COALESCE(comment, '')
			FROM duckdb_views()
			WHERE database_name = $1 AND schema_name = $2 AND NOT internal
		) AS objects
		ORDER BY table_type, table_name`,

	PrimaryKeys: `
		SELECT UNNEST(constraint_column_names)
		FROM duckdb_constraints()
		WHERE constraint_type = 'PRIMARY KEY'
		AND database_name = $1 AND schema_name = $2 AND table_name = $3`,

	Columns: `
		SELECT column_index,
			column_name,
			data_type,
			COALESCE(character_maximum_length, numeric_precision, 0),
			CASE WHEN is_nullable THEN 'YES' ELSE 'NO' END,
			COALESCE(comment, ''),
			COALESCE(numeric_scale, 0)
		FROM duckdb_columns()
		WHERE database_name = $1 AND schema_name = $2 AND table_name = $3
		ORDER BY column_index`,

	Types: databases.TypeMap{
		"varchar":                  sqltypes.Varchar,
		"boolean":                  sqltypes.Boolean,
		"tinyint":                  sqltypes.TinyInt,
		"smallint":                 sqltypes.SmallInt,
		"integer":                  sqltypes.Integer,
		"bigint":                   sqltypes.BigInt,
		"hugeint":                  sqltypes.Numeric,
		"utinyint":                 sqltypes.SmallInt,
		"usmallint":                sqltypes.Integer,
		"uinteger":                 sqltypes.BigInt,
		"ubigint":                  sqltypes.Numeric,
		"float":                    sqltypes.Real,
		"double":                   sqltypes.Double,
		"decimal":                  sqltypes.Decimal,
		"date":                     sqltypes.Date,
		"time":                     sqltypes.Time,
		"time with time zone":      sqltypes.TimeWithTimezone,
		"timestamp":                sqltypes.Timestamp,
		"timestamp with time zone": sqltypes.TimestampWithTimezone,
		"blob":                     sqltypes.Blob,
		"bit":                      sqltypes.Bit,
		"struct":                   sqltypes.Struct,
	},

	FormatValue: formatValue,
}

func init() {
	databases.Register(&databases.Engine{
		Name:    "duckdb",
		Schemes: []string{"duckdb"},
		Dialect: Dialect,
		Connect: connect,
	})
}

func connect(desc types.ConnectionDescriptor) (*sqlx.DB, error) {
	db, err := sqlx.Open("duckdb", databasePath(desc.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	return db, nil
}

// formatValue renders the values the driver hands back in binary or struct
// form: UUIDs arrive as 16 raw bytes and intervals as duckdb.Interval.
func formatValue(dbType string, v any) (string, bool) {
	switch val := v.(type) {
	case []byte:
		if dbType != "UUID" {
			return "", false
		}
		id, err := uuid.FromBytes(val)
		if err != nil {
			return "", false
		}
		return id.String(), true
	case duckdbdriver.UUID:
		return val.String(), true
	case duckdbdriver.Interval:
		return formatInterval(val), true
	}
	return "", false
}

// formatInterval writes an interval the way DuckDB casts it to VARCHAR,
// e.g. "1 year 2 months 3 days 04:05:06.5".
func formatInterval(i duckdbdriver.Interval) string {
	var parts []string
	unit := func(n int64, name string) {
		if n == 0 {
			return
		}
		if n != 1 && n != -1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, name))
	}
	unit(int64(i.Months/12), "year")
	unit(int64(i.Months%12), "month")
	unit(int64(i.Days), "day")

	if i.Micros != 0 || len(parts) == 0 {
		micros := i.Micros
		sign := ""
		if micros < 0 {
			sign, micros = "-", -micros
		}
		secs := micros / 1_000_000
		clock := fmt.Sprintf("%s%02d:%02d:%02d", sign, secs/3600, secs/60%60, secs%60)
		if frac := micros % 1_000_000; frac != 0 {
			clock += strings.TrimRight(fmt.Sprintf(".%06d", frac), "0")
		}
		parts = append(parts, clock)
	}
	return strings.Join(parts, " ")
}

func databasePath(rawURL string) string {
	return strings.TrimPrefix(rawURL[len("duckdb:"):], "//")
}
