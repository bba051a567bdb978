// Package browser answers metadata, preview and statistics requests for
// named connections. Each request resolves the connection name, opens its
// own session, runs against it and closes it before returning.
//
// A name that does not resolve is reported through the found result, not as
// an error, so callers can tell "no such connection" apart from connection
// and query failures.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/melkeydev/mcp-dbbrowser/databases"
	"github.com/melkeydev/mcp-dbbrowser/types"
)

// Resolver looks up stored connection descriptors by name.
type Resolver interface {
	Resolve(ctx context.Context, name string) (types.ConnectionDescriptor, bool, error)
}

// OpenFunc opens a session for a descriptor.
type OpenFunc func(ctx context.Context, desc types.ConnectionDescriptor) (*databases.Session, error)

type Service struct {
	resolver Resolver
	open     OpenFunc
	logger   *slog.Logger
}

type Option func(*Service)

// WithOpener replaces databases.Open as the session factory.
func WithOpener(open OpenFunc) Option {
	return func(s *Service) {
		s.open = open
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(resolver Resolver, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		open:     databases.Open,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithSession runs fn against a fresh session for the named connection, so
// several calls can share one connection within a single request. The
// session is closed when fn returns.
func (s *Service) WithSession(ctx context.Context, connection string, fn func(*databases.Session) error) (bool, error) {
	_, found, err := withSession(ctx, s, connection, "session", func(session *databases.Session) (struct{}, error) {
		return struct{}{}, fn(session)
	})
	return found, err
}

func (s *Service) ListCatalogs(ctx context.Context, connection string) ([]string, bool, error) {
	return withSession(ctx, s, connection, "list catalogs", func(session *databases.Session) ([]string, error) {
		return session.ListCatalogs(ctx)
	})
}

func (s *Service) ListSchemas(ctx context.Context, connection, catalog string) ([]string, bool, error) {
	return withSession(ctx, s, connection, "list schemas", func(session *databases.Session) ([]string, error) {
		return session.ListSchemas(ctx, catalog)
	})
}

func (s *Service) ListTables(ctx context.Context, connection, catalog, schema string) ([]types.DatabaseObject, bool, error) {
	return withSession(ctx, s, connection, "list tables", func(session *databases.Session) ([]types.DatabaseObject, error) {
		return session.ListTables(ctx, catalog, schema)
	})
}

func (s *Service) ListColumns(ctx context.Context, connection, catalog, schema, table string) ([]types.TableColumn, bool, error) {
	return withSession(ctx, s, connection, "list columns", func(session *databases.Session) ([]types.TableColumn, error) {
		return session.ListColumns(ctx, catalog, schema, table)
	})
}

// PreviewRows returns at most databases.PreviewLimit rows of a table.
func (s *Service) PreviewRows(ctx context.Context, connection, catalog, schema, table string) ([]types.Row, bool, error) {
	return withSession(ctx, s, connection, "preview rows", func(session *databases.Session) ([]types.Row, error) {
		return session.PreviewRows(ctx, catalog, schema, table)
	})
}

func (s *Service) ColumnStatistics(ctx context.Context, connection, catalog, schema, table string) ([]types.ColumnStatistics, bool, error) {
	return withSession(ctx, s, connection, "column statistics", func(session *databases.Session) ([]types.ColumnStatistics, error) {
		return session.ColumnStatistics(ctx, catalog, schema, table)
	})
}

func (s *Service) TableStatistics(ctx context.Context, connection, catalog, schema, table string) (*types.TableStatistics, bool, error) {
	return withSession(ctx, s, connection, "table statistics", func(session *databases.Session) (*types.TableStatistics, error) {
		return session.TableStatistics(ctx, catalog, schema, table)
	})
}

func withSession[T any](ctx context.Context, s *Service, connection, op string, fn func(*databases.Session) (T, error)) (T, bool, error) {
	var zero T

	desc, ok, err := s.resolver.Resolve(ctx, connection)
	if err != nil {
		return zero, false, fmt.Errorf("failed to resolve connection %s: %w", connection, err)
	}
	if !ok {
		s.logger.Debug("connection not found", "connection", connection, "op", op)
		return zero, false, nil
	}

	start := time.Now()
	session, err := s.open(ctx, desc)
	if err != nil {
		s.logger.Warn("failed to open session", "connection", connection, "op", op, "error", err)
		return zero, true, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Warn("failed to close session", "connection", connection, "error", err)
		}
	}()

	result, err := fn(session)
	if err != nil {
		s.logger.Warn("operation failed", "connection", connection, "op", op, "error", err)
		return zero, true, err
	}

	s.logger.Debug("operation completed", "connection", connection, "op", op, "duration", time.Since(start))
	return result, true, nil
}
