package databases

import "strings"

// Qualify builds the catalog.schema.table reference used by the preview and
// statistics SQL. Every component has its single quotes doubled and the
// three are joined with literal dots, without identifier quoting.
//
// This only stops a quote from breaking out of a literal context. Embedded
// dots, brackets and reserved words pass through unchanged, so callers must
// not treat the result as injection-proof identifier quoting.
func Qualify(catalog, schema, table string) string {
	return escapeQuotes(catalog) + "." + escapeQuotes(schema) + "." + escapeQuotes(table)
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
