package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrConstraintViolation wraps any unique, foreign-key, not-null or check
// rejection reported by the server.
var ErrConstraintViolation = errors.New("constraint violation")

// Dialect hides the SQL differences between the supported servers.
type Dialect interface {
	Name() string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	QuoteIdent(name string) string
	// Returning reports whether INSERT ... RETURNING is used to fetch keys.
	Returning() bool
	DBR() dbr.Dialect
	isConstraintViolation(err error) bool
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Options configures Open.
type Options struct {
	Dialect      string
	DSN          string
	MaxOpenConns int
	Logger       *zap.Logger
}

// Store is the injected handle every backend and the engine share. It owns
// the connection pool; there is no package-level connection state.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// Open connects to the configured server and pings it.
func Open(ctx context.Context, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dialect, err := DialectFor(opts.Dialect)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch opts.Dialect {
	case Postgres:
		db, err = openPostgres(opts.DSN)
	case MySQL:
		db, err = openMySQL(opts.DSN)
	case SQLite:
		db, err = openSQLite(opts.DSN)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Dialect, err)
	}

	if opts.MaxOpenConns > 0 && opts.Dialect != SQLite {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Dialect, err)
	}

	logger.Debug("connected", zap.String("dialect", opts.Dialect))
	return &Store{db: db, dialect: dialect, logger: logger}, nil
}

// DialectFor returns the dialect for a database type without connecting.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case Postgres:
		return postgresDialect{}, nil
	case MySQL:
		return mysqlDialect{}, nil
	case SQLite:
		return sqliteDialect{}, nil
	}
	return nil, fmt.Errorf("unsupported database type: %q", name)
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the pool for libraries that build their own sessions.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Logger() *zap.Logger {
	return s.logger
}

// Querier returns the scope's transaction, or the pool when scope is nil.
func (s *Store) Querier(scope *Scope) Querier {
	if scope != nil {
		return scope.tx
	}
	return s.db
}

func (s *Store) ExecContext(ctx context.Context, scope *Scope, query string, args ...interface{}) (sql.Result, error) {
	res, err := s.Querier(scope).ExecContext(ctx, query, args...)
	return res, s.Classify(err)
}

func (s *Store) QueryContext(ctx context.Context, scope *Scope, query string, args ...interface{}) (*sql.Rows, error) {
	rows, err := s.Querier(scope).QueryContext(ctx, query, args...)
	return rows, s.Classify(err)
}

func (s *Store) QueryRowContext(ctx context.Context, scope *Scope, query string, args ...interface{}) *sql.Row {
	return s.Querier(scope).QueryRowContext(ctx, query, args...)
}

// Classify wraps server constraint errors with ErrConstraintViolation while
// keeping the driver error in the chain.
func (s *Store) Classify(err error) error {
	if err == nil || errors.Is(err, ErrConstraintViolation) {
		return err
	}
	if s.dialect.isConstraintViolation(err) {
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	}
	return err
}

// Count returns the number of rows in table.
func (s *Store) Count(ctx context.Context, scope *Scope, table string) (int64, error) {
	var n int64
	query := "SELECT COUNT(*) FROM " + s.dialect.QuoteIdent(table)
	if err := s.QueryRowContext(ctx, scope, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// begin opens a transaction scope. The caller must Release it.
func (s *Store) begin(ctx context.Context) (*Scope, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Scope{tx: tx, logger: s.logger}, nil
}

// WithScope runs fn inside a scope that is rolled back on every exit path,
// including a panic in fn. Nothing done inside fn is ever committed.
func (s *Store) WithScope(ctx context.Context, fn func(*Scope) error) (err error) {
	scope, err := s.begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			scope.Release()
			panic(p) // re-panic after rollback
		}
		err = multierr.Append(err, scope.Release())
	}()

	err = fn(scope)
	return err
}

// Scope is one database transaction plus the keys created inside it.
type Scope struct {
	tx       *sql.Tx
	keys     []int64
	released bool
	logger   *zap.Logger
}

// Tx exposes the underlying transaction.
func (sc *Scope) Tx() *sql.Tx {
	return sc.tx
}

// Track records a key created inside the scope.
func (sc *Scope) Track(key int64) {
	sc.keys = append(sc.keys, key)
}

// Keys returns the tracked keys in creation order.
func (sc *Scope) Keys() []int64 {
	out := make([]int64, len(sc.keys))
	copy(out, sc.keys)
	return out
}

// Release rolls the transaction back. It never commits and is safe to call
// more than once.
func (sc *Scope) Release() error {
	if sc.released {
		return nil
	}
	sc.released = true

	err := sc.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	sc.logger.Debug("scope rolled back", zap.Int("tracked_keys", len(sc.keys)))
	return nil
}
