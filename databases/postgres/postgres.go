// Package postgres registers the PostgreSQL engine for postgres:// URLs.
package postgres

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/melkeydev/mcp-dbbrowser/databases"
	"github.com/melkeydev/mcp-dbbrowser/sqltypes"
	"github.com/melkeydev/mcp-dbbrowser/types"
)

// information_schema reports the precision of binary integer and floating
// point types in bits. Column sizes use their decimal digit counts instead.
var decimalDigits = []struct {
	dataType string
	digits   int
}{
	{"smallint", 5},
	{"integer", 10},
	{"bigint", 19},
	{"real", 8},
	{"double precision", 17},
}

var precisionExpr = buildPrecisionExpr()

func buildPrecisionExpr() string {
	var b strings.Builder
	b.WriteString("CASE c.data_type")
	for _, d := range decimalDigits {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", d.dataType, d.digits)
	}
	b.WriteString(" ELSE c.numeric_precision END")
	return b.String()
}

// PostgreSQL exposes only the database of the current connection as a
// catalog.
var Dialect = &databases.Dialect{
	Name: "postgres",

	Catalogs: `SELECT current_database()`,

	Schemas: `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE catalog_name = $1
		ORDER BY schema_name`,

	Tables: `
		SELECT t.table_name,
			t.table_type,
			COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM information_schema.tables t
		LEFT JOIN pg_catalog.pg_namespace n ON n.nspname = t.table_schema
		LEFT JOIN pg_catalog.pg_class c ON c.relname = t.table_name AND c.relnamespace = n.oid
		WHERE t.table_catalog = $1 AND t.table_schema = $2
		ORDER BY t.table_type, t.table_name`,

	PrimaryKeys: `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = tc.constraint_schema
			AND kcu.constraint_name = tc.constraint_name
			AND kcu.table_name = tc.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		AND tc.table_catalog = $1 AND tc.table_schema = $2 AND tc.table_name = $3
		ORDER BY kcu.ordinal_position`,

	Columns: `
		SELECT c.ordinal_position::int,
			c.column_name,
			c.data_type,
			COALESCE(c.character_maximum_length, ` + precisionExpr + `, c.datetime_precision, 0),
			c.is_nullable,
			COALESCE(col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position::int), ''),
			COALESCE(c.numeric_scale, 0)
		FROM information_schema.columns c
		WHERE c.table_catalog = $1 AND c.table_schema = $2 AND c.table_name = $3
		ORDER BY c.ordinal_position`,

	Types: databases.TypeMap{
		"character varying":           sqltypes.Varchar,
		"varchar":                     sqltypes.Varchar,
		"text":                        sqltypes.Varchar,
		"character":                   sqltypes.Char,
		"char":                        sqltypes.Char,
		"bpchar":                      sqltypes.Char,
		"smallint":                    sqltypes.SmallInt,
		"integer":                     sqltypes.Integer,
		"bigint":                      sqltypes.BigInt,
		"oid":                         sqltypes.BigInt,
		"real":                        sqltypes.Real,
		"double precision":            sqltypes.Double,
		"numeric":                     sqltypes.Numeric,
		"money":                       sqltypes.Double,
		"boolean":                     sqltypes.Boolean,
		"date":                        sqltypes.Date,
		"time without time zone":      sqltypes.Time,
		"time with time zone":         sqltypes.TimeWithTimezone,
		"timestamp without time zone": sqltypes.Timestamp,
		"timestamp with time zone":    sqltypes.TimestampWithTimezone,
		"bytea":                       sqltypes.Binary,
		"bit":                         sqltypes.Bit,
		"bit varying":                 sqltypes.Bit,
		"xml":                         sqltypes.SQLXML,
		"array":                       sqltypes.Array,
	},
}

func init() {
	databases.Register(&databases.Engine{
		Name:    "postgres",
		Schemes: []string{"postgres", "postgresql"},
		Dialect: Dialect,
		Connect: connect,
	})
}

func connect(desc types.ConnectionDescriptor) (*sqlx.DB, error) {
	config, err := pgx.ParseConfig(desc.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if desc.Username != "" {
		config.User = desc.Username
	}
	if desc.Password != "" {
		config.Password = desc.Password
	}
	config.PreferSimpleProtocol = true

	return sqlx.NewDb(stdlib.OpenDB(*config), "pgx"), nil
}
