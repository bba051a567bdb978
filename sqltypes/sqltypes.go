// Package sqltypes holds the standard SQL type-code registry and the
// code -> canonical name table derived from it.
//
// The codes are the generic SQL type identifiers shared by the X/Open CLI,
// ODBC and JDBC metadata APIs. The name table is built once during package
// initialization and is read-only afterwards, so lookups are safe from any
// number of goroutines without locking.
package sqltypes

import "fmt"

// Standard SQL type codes.
const (
	Bit                   = -7
	TinyInt               = -6
	SmallInt              = 5
	Integer               = 4
	BigInt                = -5
	Float                 = 6
	Real                  = 7
	Double                = 8
	Numeric               = 2
	Decimal               = 3
	Char                  = 1
	Varchar               = 12
	LongVarchar           = -1
	Date                  = 91
	Time                  = 92
	Timestamp             = 93
	Binary                = -2
	Varbinary             = -3
	LongVarbinary         = -4
	Null                  = 0
	Other                 = 1111
	JavaObject            = 2000
	Distinct              = 2001
	Struct                = 2002
	Array                 = 2003
	Blob                  = 2004
	Clob                  = 2005
	Ref                   = 2006
	Datalink              = 70
	Boolean               = 16
	RowID                 = -8
	NChar                 = -15
	NVarchar              = -9
	LongNVarchar          = -16
	NClob                 = 2011
	SQLXML                = 2009
	RefCursor             = 2012
	TimeWithTimezone      = 2013
	TimestampWithTimezone = 2014
)

type entry struct {
	code int
	name string
}

// registry lists every standard code with its symbolic name.
var registry = []entry{
	{Bit, "BIT"},
	{TinyInt, "TINYINT"},
	{SmallInt, "SMALLINT"},
	{Integer, "INTEGER"},
	{BigInt, "BIGINT"},
	{Float, "FLOAT"},
	{Real, "REAL"},
	{Double, "DOUBLE"},
	{Numeric, "NUMERIC"},
	{Decimal, "DECIMAL"},
	{Char, "CHAR"},
	{Varchar, "VARCHAR"},
	{LongVarchar, "LONGVARCHAR"},
	{Date, "DATE"},
	{Time, "TIME"},
	{Timestamp, "TIMESTAMP"},
	{Binary, "BINARY"},
	{Varbinary, "VARBINARY"},
	{LongVarbinary, "LONGVARBINARY"},
	{Null, "NULL"},
	{Other, "OTHER"},
	{JavaObject, "JAVA_OBJECT"},
	{Distinct, "DISTINCT"},
	{Struct, "STRUCT"},
	{Array, "ARRAY"},
	{Blob, "BLOB"},
	{Clob, "CLOB"},
	{Ref, "REF"},
	{Datalink, "DATALINK"},
	{Boolean, "BOOLEAN"},
	{RowID, "ROWID"},
	{NChar, "NCHAR"},
	{NVarchar, "NVARCHAR"},
	{LongNVarchar, "LONGNVARCHAR"},
	{NClob, "NCLOB"},
	{SQLXML, "SQLXML"},
	{RefCursor, "REF_CURSOR"},
	{TimeWithTimezone, "TIME_WITH_TIMEZONE"},
	{TimestampWithTimezone, "TIMESTAMP_WITH_TIMEZONE"},
}

var names = buildNames(registry)

// buildNames inverts the registry. A duplicated code or name means the
// registry itself is broken, and the process must not start with a partial
// table.
func buildNames(entries []entry) map[int]string {
	m := make(map[int]string, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if prev, ok := m[e.code]; ok {
			panic(fmt.Sprintf("sqltypes: code %d registered as both %s and %s", e.code, prev, e.name))
		}
		if _, ok := seen[e.name]; ok {
			panic(fmt.Sprintf("sqltypes: name %s registered twice", e.name))
		}
		m[e.code] = e.name
		seen[e.name] = struct{}{}
	}
	return m
}

// Name returns the canonical name for code. ok is false for codes outside
// the standard registry, e.g. vendor-specific extensions.
func Name(code int) (name string, ok bool) {
	name, ok = names[code]
	return name, ok
}

// Len reports the number of registered codes.
func Len() int {
	return len(names)
}
