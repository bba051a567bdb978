// Package registry stores named connection descriptors in a local SQLite
// database. Updates use optimistic locking on a per-row version counter.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/melkeydev/mcp-dbbrowser/types"
)

var (
	// ErrConflict is returned by Update when the stored version no longer
	// matches the caller's copy.
	ErrConflict = errors.New("connection was modified concurrently")
	// ErrNotFound is returned by Get for unknown names.
	ErrNotFound = errors.New("connection not found")
)

type Store struct {
	db *sqlx.DB
}

// connectionRow mirrors the connections table; password is nullable.
type connectionRow struct {
	Name     string         `db:"name"`
	URL      string         `db:"url"`
	Username string         `db:"username"`
	Password sql.NullString `db:"password"`
	Version  int64          `db:"version"`
}

func (r connectionRow) descriptor() types.ConnectionDescriptor {
	return types.ConnectionDescriptor{
		Name:     r.Name,
		URL:      r.URL,
		Username: r.Username,
		Password: r.Password.String,
		Version:  r.Version,
	}
}

func rowFor(desc types.ConnectionDescriptor) connectionRow {
	return connectionRow{
		Name:     desc.Name,
		URL:      desc.URL,
		Username: desc.Username,
		Password: sql.NullString{String: desc.Password, Valid: desc.Password != ""},
		Version:  desc.Version,
	}
}

// Open opens (creating if needed) the registry database at path and brings
// its schema up to date.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping registry database: %w", err)
	}

	if err := Migrate(db.DB); err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("registry opened", "path", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Create stores a new descriptor with version 0. It returns false without
// error if the name is already taken.
func (s *Store) Create(ctx context.Context, desc types.ConnectionDescriptor) (types.ConnectionDescriptor, bool, error) {
	if desc.Name == "" {
		return types.ConnectionDescriptor{}, false, errors.New("connection name is required")
	}

	desc.Version = 0
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO connections (name, url, username, password, version)
		VALUES (:name, :url, :username, :password, :version)
		ON CONFLICT (name) DO NOTHING`, rowFor(desc))
	if err != nil {
		return types.ConnectionDescriptor{}, false, fmt.Errorf("failed to create connection %s: %w", desc.Name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return types.ConnectionDescriptor{}, false, err
	}
	if n == 0 {
		return types.ConnectionDescriptor{}, false, nil
	}

	slog.Info("connection created", "name", desc.Name)
	return desc, true, nil
}

// Update replaces the descriptor stored under desc.Name if its version still
// equals desc.Version, then bumps the stored version. The returned descriptor
// carries the version the caller supplied. It returns false without error if
// the name is unknown and ErrConflict on a version mismatch.
func (s *Store) Update(ctx context.Context, desc types.ConnectionDescriptor) (types.ConnectionDescriptor, bool, error) {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE connections
		SET url = :url, username = :username, password = :password, version = version + 1
		WHERE name = :name AND version = :version`, rowFor(desc))
	if err != nil {
		return types.ConnectionDescriptor{}, false, fmt.Errorf("failed to update connection %s: %w", desc.Name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return types.ConnectionDescriptor{}, false, err
	}
	if n == 1 {
		slog.Info("connection updated", "name", desc.Name)
		return desc, true, nil
	}

	exists, err := s.exists(ctx, desc.Name)
	if err != nil {
		return types.ConnectionDescriptor{}, false, err
	}
	if !exists {
		return types.ConnectionDescriptor{}, false, nil
	}
	return types.ConnectionDescriptor{}, true, fmt.Errorf("%w: %s", ErrConflict, desc.Name)
}

// Upsert creates or overwrites a descriptor regardless of its version. The
// version only moves when a stored field actually changes.
func (s *Store) Upsert(ctx context.Context, desc types.ConnectionDescriptor) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO connections (name, url, username, password, version)
		VALUES (:name, :url, :username, :password, 0)
		ON CONFLICT (name) DO UPDATE SET
			url = excluded.url,
			username = excluded.username,
			password = excluded.password,
			version = connections.version + 1
		WHERE connections.url IS NOT excluded.url
			OR connections.username IS NOT excluded.username
			OR connections.password IS NOT excluded.password`, rowFor(desc))
	if err != nil {
		return fmt.Errorf("failed to upsert connection %s: %w", desc.Name, err)
	}
	return nil
}

// Delete removes a descriptor and reports whether it existed.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM connections WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("failed to delete connection %s: %w", name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		slog.Info("connection deleted", "name", name)
	}
	return n > 0, nil
}

// List returns every stored descriptor ordered by name.
func (s *Store) List(ctx context.Context) ([]types.ConnectionDescriptor, error) {
	var rows []connectionRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT name, url, username, password, version FROM connections ORDER BY name"); err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	out := make([]types.ConnectionDescriptor, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.descriptor())
	}
	return out, nil
}

// Get returns the descriptor stored under name or ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) (types.ConnectionDescriptor, error) {
	var row connectionRow
	err := s.db.GetContext(ctx, &row, "SELECT name, url, username, password, version FROM connections WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ConnectionDescriptor{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return types.ConnectionDescriptor{}, fmt.Errorf("failed to get connection %s: %w", name, err)
	}
	return row.descriptor(), nil
}

// Resolve looks a descriptor up by name, reporting absence through the
// boolean rather than an error.
func (s *Store) Resolve(ctx context.Context, name string) (types.ConnectionDescriptor, bool, error) {
	desc, err := s.Get(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return types.ConnectionDescriptor{}, false, nil
	}
	if err != nil {
		return types.ConnectionDescriptor{}, false, err
	}
	return desc, true, nil
}

func (s *Store) exists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM connections WHERE name = ?", name); err != nil {
		return false, fmt.Errorf("failed to check connection %s: %w", name, err)
	}
	return n > 0, nil
}
