// Package mssql registers the SQL Server engine for sqlserver:// and
// mssql:// URLs.
package mssql

import (
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	mssqldriver "github.com/microsoft/go-mssqldb"

	"github.com/melkeydev/mcp-dbbrowser/databases"
	"github.com/melkeydev/mcp-dbbrowser/sqltypes"
	"github.com/melkeydev/mcp-dbbrowser/types"
)

// SQL Server specific type codes. They are not part of the standard
// registry, so columns of these types are listed without a type name.
const (
	typeDateTimeOffset = -155
	typeSQLVariant     = -156
	typeGeometry       = -157
	typeGeography      = -158
)

// Schemas, tables and columns are read from the INFORMATION_SCHEMA of the
// current database; other catalogs list as empty.
var Dialect = &databases.Dialect{
	Name: "mssql",

	Catalogs: `SELECT name FROM sys.databases ORDER BY name`,

	Schemas: `
		SELECT SCHEMA_NAME
		FROM INFORMATION_SCHEMA.SCHEMATA
		WHERE CATALOG_NAME = @p1
		ORDER BY SCHEMA_NAME`,

	Tables: `
		SELECT t.TABLE_NAME,
			t.TABLE_TYPE,
			COALESCE(CAST(ep.value AS NVARCHAR(4000)), N'')
		FROM INFORMATION_SCHEMA.TABLES t
		LEFT JOIN sys.extended_properties ep
			ON ep.class = 1
			AND ep.major_id = OBJECT_ID(QUOTENAME(t.TABLE_SCHEMA) + N'.' + QUOTENAME(t.TABLE_NAME))
			AND ep.minor_id = 0
			AND ep.name = N'MS_Description'
		WHERE t.TABLE_CATALOG = @p1 AND t.TABLE_SCHEMA = @p2
		ORDER BY t.TABLE_TYPE, t.TABLE_NAME`,

	PrimaryKeys: `
		SELECT kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON kcu.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA
			AND kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		AND tc.TABLE_CATALOG = @p1 AND tc.TABLE_SCHEMA = @p2 AND tc.TABLE_NAME = @p3
		ORDER BY kcu.ORDINAL_POSITION`,

	Columns: `
		SELECT c.ORDINAL_POSITION,
			c.COLUMN_NAME,
			c.DATA_TYPE,
			COALESCE(c.CHARACTER_MAXIMUM_LENGTH, c.NUMERIC_PRECISION, c.DATETIME_PRECISION, 0),
			c.IS_NULLABLE,
			COALESCE(CAST(ep.value AS NVARCHAR(4000)), N''),
			COALESCE(c.NUMERIC_SCALE, 0)
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN sys.extended_properties ep
			ON ep.class = 1
			AND ep.major_id = OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + N'.' + QUOTENAME(c.TABLE_NAME))
			AND ep.minor_id = COLUMNPROPERTY(ep.major_id, c.COLUMN_NAME, 'ColumnId')
			AND ep.name = N'MS_Description'
		WHERE c.TABLE_CATALOG = @p1 AND c.TABLE_SCHEMA = @p2 AND c.TABLE_NAME = @p3
		ORDER BY c.ORDINAL_POSITION`,

	Types: databases.TypeMap{
		"varchar":          sqltypes.Varchar,
		"nvarchar":         sqltypes.NVarchar,
		"char":             sqltypes.Char,
		"nchar":            sqltypes.NChar,
		"text":             sqltypes.LongVarchar,
		"ntext":            sqltypes.LongNVarchar,
		"uniqueidentifier": sqltypes.Char,
		"tinyint":          sqltypes.TinyInt,
		"smallint":         sqltypes.SmallInt,
		"int":              sqltypes.Integer,
		"bigint":           sqltypes.BigInt,
		"bit":              sqltypes.Bit,
		"decimal":          sqltypes.Decimal,
		"numeric":          sqltypes.Numeric,
		"money":            sqltypes.Decimal,
		"smallmoney":       sqltypes.Decimal,
		"float":            sqltypes.Double,
		"real":             sqltypes.Real,
		"date":             sqltypes.Date,
		"time":             sqltypes.Time,
		"datetime":         sqltypes.Timestamp,
		"datetime2":        sqltypes.Timestamp,
		"smalldatetime":    sqltypes.Timestamp,
		"datetimeoffset":   typeDateTimeOffset,
		"binary":           sqltypes.Binary,
		"varbinary":        sqltypes.Varbinary,
		"image":            sqltypes.LongVarbinary,
		"timestamp":        sqltypes.Binary,
		"rowversion":       sqltypes.Binary,
		"hierarchyid":      sqltypes.Varbinary,
		"xml":              sqltypes.SQLXML,
		"sql_variant":      typeSQLVariant,
		"geometry":         typeGeometry,
		"geography":        typeGeography,
	},

	FormatValue: formatValue,
}

func init() {
	databases.Register(&databases.Engine{
		Name:    "mssql",
		Schemes: []string{"sqlserver", "mssql"},
		Dialect: Dialect,
		Connect: connect,
	})
}

func connect(desc types.ConnectionDescriptor) (*sqlx.DB, error) {
	dsn, err := connectionString(desc)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// connectionString rewrites the URL onto the sqlserver scheme. A user name
// or password set on the descriptor replaces the one embedded in the URL.
func connectionString(desc types.ConnectionDescriptor) (string, error) {
	u, err := url.Parse(desc.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse connection string: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("host is required")
	}

	u.Scheme = "sqlserver"

	var user, password string
	var hasPassword bool
	if u.User != nil {
		user = u.User.Username()
		password, hasPassword = u.User.Password()
	}
	if desc.Username != "" {
		user = desc.Username
	}
	if desc.Password != "" {
		password, hasPassword = desc.Password, true
	}

	switch {
	case hasPassword:
		u.User = url.UserPassword(user, password)
	case user != "":
		u.User = url.User(user)
	}
	return u.String(), nil
}

// formatValue renders UNIQUEIDENTIFIER columns, which the driver returns as
// 16 bytes in SQL Server's mixed-endian order.
func formatValue(dbType string, v any) (string, bool) {
	b, ok := v.([]byte)
	if !ok || dbType != "UNIQUEIDENTIFIER" {
		return "", false
	}
	var id mssqldriver.UniqueIdentifier
	if err := id.Scan(b); err != nil {
		return "", false
	}
	return id.String(), true
}
