package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melkeydev/mcp-dbbrowser/databases"
	"github.com/melkeydev/mcp-dbbrowser/types"
)

var testDialect = &databases.Dialect{
	Name:        "test",
	Catalogs:    "SELECT catalog_name FROM catalogs",
	Schemas:     "SELECT schema_name FROM schemas WHERE catalog_name = ?",
	Tables:      "SELECT table_name, table_type, comment FROM tables WHERE catalog = ? AND schema = ?",
	PrimaryKeys: "SELECT column_name FROM primary_keys WHERE catalog = ? AND schema = ? AND table_name = ?",
	Columns:     "SELECT * FROM columns WHERE catalog = ? AND schema = ? AND table_name = ?",
	Types:       databases.TypeMap{},
}

type mapResolver map[string]types.ConnectionDescriptor

func (m mapResolver) Resolve(_ context.Context, name string) (types.ConnectionDescriptor, bool, error) {
	desc, ok := m[name]
	return desc, ok, nil
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(context.Context, string) (types.ConnectionDescriptor, bool, error) {
	return types.ConnectionDescriptor{}, false, f.err
}

var resolver = mapResolver{
	"shop": {Name: "shop", URL: "test://shop"},
}

// mockOpener hands out one sqlmock-backed session and verifies it was closed
// once the test finishes.
func mockOpener(t *testing.T) (OpenFunc, sqlmock.Sqlmock, *int) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	calls := 0
	open := func(ctx context.Context, desc types.ConnectionDescriptor) (*databases.Session, error) {
		calls++
		assert.Equal(t, "shop", desc.Name)
		mock.ExpectClose()
		return databases.NewSession(ctx, sqlx.NewDb(db, "sqlmock"), testDialect)
	}

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return open, mock, &calls
}

func TestService_UnknownConnectionNeverOpens(t *testing.T) {
	ctx := context.Background()
	opened := false
	svc := NewService(resolver, WithOpener(func(context.Context, types.ConnectionDescriptor) (*databases.Session, error) {
		opened = true
		return nil, errors.New("unexpected open")
	}))

	ops := map[string]func() (bool, error){
		"ListCatalogs": func() (bool, error) {
			_, found, err := svc.ListCatalogs(ctx, "missing")
			return found, err
		},
		"ListSchemas": func() (bool, error) {
			_, found, err := svc.ListSchemas(ctx, "missing", "c")
			return found, err
		},
		"ListTables": func() (bool, error) {
			_, found, err := svc.ListTables(ctx, "missing", "c", "s")
			return found, err
		},
		"ListColumns": func() (bool, error) {
			_, found, err := svc.ListColumns(ctx, "missing", "c", "s", "t")
			return found, err
		},
		"PreviewRows": func() (bool, error) {
			_, found, err := svc.PreviewRows(ctx, "missing", "c", "s", "t")
			return found, err
		},
		"ColumnStatistics": func() (bool, error) {
			_, found, err := svc.ColumnStatistics(ctx, "missing", "c", "s", "t")
			return found, err
		},
		"TableStatistics": func() (bool, error) {
			_, found, err := svc.TableStatistics(ctx, "missing", "c", "s", "t")
			return found, err
		},
		"WithSession": func() (bool, error) {
			return svc.WithSession(ctx, "missing", func(*databases.Session) error { return nil })
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			found, err := op()
			assert.NoError(t, err)
			assert.False(t, found)
		})
	}
	assert.False(t, opened)
}

func TestService_ResolverError(t *testing.T) {
	svc := NewService(failingResolver{err: errors.New("registry locked")})

	_, found, err := svc.ListCatalogs(context.Background(), "shop")
	assert.False(t, found)
	assert.ErrorContains(t, err, "registry locked")
}

func TestService_OpenFailure(t *testing.T) {
	svc := NewService(resolver, WithOpener(func(context.Context, types.ConnectionDescriptor) (*databases.Session, error) {
		return nil, &databases.ConnectionError{URL: "test://shop", Err: errors.New("connection refused")}
	}))

	_, found, err := svc.ListSchemas(context.Background(), "shop", "main")
	assert.True(t, found)

	var connErr *databases.ConnectionError
	assert.ErrorAs(t, err, &connErr)
}

func TestService_ListCatalogs(t *testing.T) {
	open, mock, calls := mockOpener(t)
	svc := NewService(resolver, WithOpener(open))

	mock.ExpectQuery(testDialect.Catalogs).
		WillReturnRows(sqlmock.NewRows([]string{"catalog_name"}).AddRow("main").AddRow("archive"))

	catalogs, found, err := svc.ListCatalogs(context.Background(), "shop")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"main", "archive"}, catalogs)
	assert.Equal(t, 1, *calls)
}

func TestService_ClosesSessionOnQueryError(t *testing.T) {
	open, mock, _ := mockOpener(t)
	svc := NewService(resolver, WithOpener(open))

	mock.ExpectQuery(testDialect.Tables).
		WithArgs("main", "public").
		WillReturnError(errors.New("permission denied"))

	_, found, err := svc.ListTables(context.Background(), "shop", "main", "public")
	assert.True(t, found)

	var queryErr *databases.QueryError
	assert.ErrorAs(t, err, &queryErr)
}

func TestService_PreviewRows(t *testing.T) {
	open, mock, _ := mockOpener(t)
	svc := NewService(resolver, WithOpener(open))

	mock.ExpectQuery(`SELECT * FROM main.public.orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "note"}).AddRow(1, "first").AddRow(2, nil))

	rows, found, err := svc.PreviewRows(context.Background(), "shop", "main", "public", "orders")
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", *rows[0][0])
	assert.Nil(t, rows[1][1])
}

func TestService_WithSessionSharesConnection(t *testing.T) {
	open, mock, calls := mockOpener(t)
	svc := NewService(resolver, WithOpener(open))

	mock.ExpectQuery(testDialect.Catalogs).
		WillReturnRows(sqlmock.NewRows([]string{"catalog_name"}).AddRow("main"))
	mock.ExpectQuery(testDialect.Schemas).
		WithArgs("main").
		WillReturnRows(sqlmock.NewRows([]string{"schema_name"}).AddRow("public"))

	var schemas []string
	found, err := svc.WithSession(context.Background(), "shop", func(s *databases.Session) error {
		catalogs, err := s.ListCatalogs(context.Background())
		if err != nil {
			return err
		}
		schemas, err = s.ListSchemas(context.Background(), catalogs[0])
		return err
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"public"}, schemas)
	assert.Equal(t, 1, *calls)
}
