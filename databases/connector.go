package databases

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/melkeydev/mcp-dbbrowser/sqltypes"
	"github.com/melkeydev/mcp-dbbrowser/types"
)

// Dialect is the catalog SQL an engine uses to answer metadata requests.
// Every query takes its arguments positionally in catalog, schema, table
// order and must return the columns documented on each field.
type Dialect struct {
	Name string

	// Catalogs returns (catalog_name).
	Catalogs string
	// Schemas takes (catalog) and returns (schema_name).
	Schemas string
	// Tables takes (catalog, schema) and returns (table_name, table_type, comment).
	Tables string
	// PrimaryKeys takes (catalog, schema, table) and returns (column_name).
	PrimaryKeys string
	// Columns takes (catalog, schema, table) and returns (ordinal_position,
	// column_name, data_type, column_size, is_nullable, comment,
	// fractional_digits) ordered by ordinal_position.
	Columns string

	Types TypeMap

	// FormatValue optionally renders driver values the generic conversion
	// gets wrong. dbType is the result column's database type name.
	FormatValue func(dbType string, v any) (string, bool)
}

// TypeMap maps normalized vendor type names to standard SQL type codes.
type TypeMap map[string]int

// Code returns the type code for a vendor type name such as
// "character varying", "DECIMAL(18,3)" or "INTEGER[]". Names missing from
// the map resolve to sqltypes.Other.
func (m TypeMap) Code(vendorType string) int {
	name := strings.ToLower(strings.TrimSpace(vendorType))
	if strings.HasSuffix(name, "[]") {
		return sqltypes.Array
	}
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if code, ok := m[name]; ok {
		return code
	}
	return sqltypes.Other
}

// Engine is a target database back end selected by URL scheme.
type Engine struct {
	Name    string
	Schemes []string
	Dialect *Dialect
	// Connect builds an unopened handle for desc. Credentials in desc take
	// precedence over any embedded in the URL.
	Connect func(desc types.ConnectionDescriptor) (*sqlx.DB, error)
}

var (
	enginesMu sync.RWMutex
	engines   = make(map[string]*Engine)
)

// Register makes an engine available for the given URL schemes. It is
// called from the init function of each engine package.
func Register(e *Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	for _, scheme := range e.Schemes {
		if _, dup := engines[scheme]; dup {
			panic("databases: Register called twice for scheme " + scheme)
		}
		engines[scheme] = e
	}
}

// Schemes lists every registered URL scheme.
func Schemes() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	out := make([]string, 0, len(engines))
	for scheme := range engines {
		out = append(out, scheme)
	}
	sort.Strings(out)
	return out
}

func engineFor(rawURL string) (*Engine, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	e, ok := engines[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("unsupported database type %q", u.Scheme)
	}
	return e, nil
}

// Session is one live connection to a target database. It is not safe for
// concurrent use and must be closed by whoever opened it.
type Session struct {
	db      *sqlx.DB
	conn    *sqlx.Conn
	dialect *Dialect
}

// Open connects to the database described by desc.
func Open(ctx context.Context, desc types.ConnectionDescriptor) (*Session, error) {
	engine, err := engineFor(desc.URL)
	if err != nil {
		return nil, &ConnectionError{URL: redact(desc.URL), Err: err}
	}

	db, err := engine.Connect(desc)
	if err != nil {
		return nil, &ConnectionError{URL: redact(desc.URL), Err: err}
	}

	s, err := NewSession(ctx, db, engine.Dialect)
	if err != nil {
		return nil, &ConnectionError{URL: redact(desc.URL), Err: err}
	}
	return s, nil
}

// NewSession checks a single connection out of db and pings it. db is owned
// by the returned session and is closed with it, also on failure.
func NewSession(ctx context.Context, db *sqlx.DB, dialect *Dialect) (*Session, error) {
	db.SetMaxOpenConns(1)

	conn, err := db.Connx(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Session{db: db, conn: conn, dialect: dialect}, nil
}

// Dialect returns the catalog SQL used by the session.
func (s *Session) Dialect() *Dialect {
	return s.dialect
}

func (s *Session) Close() error {
	connErr := s.conn.Close()
	if err := s.db.Close(); err != nil {
		return err
	}
	return connErr
}

// redact strips the password from a URL before it reaches logs or errors.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
