package databases

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/melkeydev/mcp-dbbrowser/sqltypes"
	"github.com/melkeydev/mcp-dbbrowser/types"
)

// ListCatalogs returns the catalogs visible through the session.
func (s *Session) ListCatalogs(ctx context.Context) ([]string, error) {
	return s.listNames(ctx, s.dialect.Catalogs)
}

// ListSchemas returns the schemas of catalog. An unknown catalog yields an
// empty list.
func (s *Session) ListSchemas(ctx context.Context, catalog string) ([]string, error) {
	return s.listNames(ctx, s.dialect.Schemas, catalog)
}

// ListTables returns the tables, views and other objects of one schema.
func (s *Session) ListTables(ctx context.Context, catalog, schema string) ([]types.DatabaseObject, error) {
	rows, err := s.conn.QueryContext(ctx, s.dialect.Tables, catalog, schema)
	if err != nil {
		return nil, &QueryError{Query: s.dialect.Tables, Err: err}
	}
	defer rows.Close()

	objects := []types.DatabaseObject{}
	for rows.Next() {
		var name, objType string
		var comment sql.NullString
		if err := rows.Scan(&name, &objType, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		objects = append(objects, types.DatabaseObject{
			Name:    name,
			Type:    normalizeTableType(objType),
			Comment: comment.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: s.dialect.Tables, Err: err}
	}

	return objects, nil
}

// ListPrimaryKeyColumns returns the names of the columns forming the primary
// key of a table. A table without a primary key yields an empty set.
func (s *Session) ListPrimaryKeyColumns(ctx context.Context, catalog, schema, table string) (map[string]struct{}, error) {
	names, err := s.listNames(ctx, s.dialect.PrimaryKeys, catalog, schema, table)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]struct{}, len(names))
	for _, name := range names {
		keys[name] = struct{}{}
	}
	return keys, nil
}

// ListColumns returns the columns of a table in ordinal order. The primary
// key set is read on the same connection right before the columns.
func (s *Session) ListColumns(ctx context.Context, catalog, schema, table string) ([]types.TableColumn, error) {
	primaryKeys, err := s.ListPrimaryKeyColumns(ctx, catalog, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to load primary keys: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, s.dialect.Columns, catalog, schema, table)
	if err != nil {
		return nil, &QueryError{Query: s.dialect.Columns, Err: err}
	}
	defer rows.Close()

	columns := []types.TableColumn{}
	for rows.Next() {
		var (
			ordinal, size, digits sql.NullInt64
			name, dataType        string
			nullable, comment     sql.NullString
		)
		if err := rows.Scan(&ordinal, &name, &dataType, &size, &nullable, &comment, &digits); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		// Codes outside the standard registry leave Type empty.
		typeName, _ := sqltypes.Name(s.dialect.Types.Code(dataType))
		_, isKey := primaryKeys[name]

		columns = append(columns, types.TableColumn{
			OrderNo:          int(ordinal.Int64),
			Name:             name,
			Type:             typeName,
			Size:             int(size.Int64),
			Nullable:         nullable.String,
			PrimaryKey:       isKey,
			Comment:          comment.String,
			FractionalDigits: int(digits.Int64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: s.dialect.Columns, Err: err}
	}

	return columns, nil
}

func (s *Session) listNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names = append(names, name.String)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	return names, nil
}

// normalizeTableType maps the information_schema name for ordinary tables
// onto the short name used in listings.
func normalizeTableType(t string) string {
	if t == "BASE TABLE" {
		return "TABLE"
	}
	return t
}
