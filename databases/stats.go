package databases

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/melkeydev/mcp-dbbrowser/types"
)

// PreviewLimit caps the number of rows returned by PreviewRows.
const PreviewLimit = 20

// PreviewRows returns up to PreviewLimit rows of a table, every value
// rendered as a string. Column order follows the result set.
func (s *Session) PreviewRows(ctx context.Context, catalog, schema, table string) ([]types.Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s", Qualify(catalog, schema, table))

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	dbTypes := columnTypeNames(rows, len(columns))

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	result := []types.Row{}
	for len(result) < PreviewLimit && rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(types.Row, len(values))
		for i, v := range values {
			row[i] = s.formatValue(dbTypes[i], v)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	return result, nil
}

// TableStatistics counts the rows of a table and lists its columns.
func (s *Session) TableStatistics(ctx context.Context, catalog, schema, table string) (*types.TableStatistics, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", Qualify(catalog, schema, table))

	var count any
	if _, err := s.queryOne(ctx, query, &count); err != nil {
		return nil, err
	}
	rowCount, err := toInt64(count)
	if err != nil {
		return nil, fmt.Errorf("failed to read row count: %w", err)
	}

	columns, err := s.ListColumns(ctx, catalog, schema, table)
	if err != nil {
		return nil, err
	}

	return &types.TableStatistics{
		Rows:                 rowCount,
		Columns:              len(columns),
		ColumnStatisticsList: columns,
	}, nil
}

// ColumnStatistics computes min, max and the number of nulls for every
// column of a table. Each column costs one query.
func (s *Session) ColumnStatistics(ctx context.Context, catalog, schema, table string) ([]types.ColumnStatistics, error) {
	columns, err := s.ListColumns(ctx, catalog, schema, table)
	if err != nil {
		return nil, err
	}

	qualified := Qualify(catalog, schema, table)
	stats := make([]types.ColumnStatistics, 0, len(columns))
	for _, col := range columns {
		st, err := s.columnStatistics(ctx, qualified, col.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to compute statistics for column %s: %w", col.Name, err)
		}
		stats = append(stats, st)
	}

	return stats, nil
}

func (s *Session) columnStatistics(ctx context.Context, qualified, column string) (types.ColumnStatistics, error) {
	query := fmt.Sprintf(
		"SELECT MIN(%[1]s), MAX(%[1]s), SUM(CASE WHEN %[1]s IS NULL THEN 1 ELSE 0 END) FROM %[2]s",
		column, qualified,
	)

	var minValue, maxValue, nulls any
	dbTypes, err := s.queryOne(ctx, query, &minValue, &maxValue, &nulls)
	if err != nil {
		return types.ColumnStatistics{}, err
	}

	nullCount, err := toInt64(nulls)
	if err != nil {
		return types.ColumnStatistics{}, fmt.Errorf("failed to read null count: %w", err)
	}

	return types.ColumnStatistics{
		Name:             column,
		MinValue:         s.formatValue(dbTypes[0], minValue),
		MaxValue:         s.formatValue(dbTypes[1], maxValue),
		NullValuesNumber: nullCount,
	}, nil
}

// queryOne runs an aggregate query and scans its single row. The result set
// is closed before returning so the connection is free for the next query.
// It returns the database type names of the result columns.
func (s *Session) queryOne(ctx context.Context, query string, dest ...any) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		slog.Error("aggregate query returned no rows", "dialect", s.dialect.Name, "query", query)
		return nil, fmt.Errorf("%w: %s", ErrNoResultRow, query)
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan aggregate: %w", err)
	}
	dbTypes := columnTypeNames(rows, len(dest))
	return dbTypes, rows.Close()
}

// columnTypeNames returns n database type names, empty where the driver
// reports none.
func columnTypeNames(rows *sql.Rows, n int) []string {
	names := make([]string, n)
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return names
	}
	for i, ct := range columnTypes {
		if i < n {
			names[i] = ct.DatabaseTypeName()
		}
	}
	return names
}
