// Package db is the SQL layer every repository in JobRecruit goes through.
// It wraps database/sql with context-aware helpers, hook dispatch, unified
// error mapping, placeholder rebinding and transaction management. SQL stays
// explicit: repositories write PostgreSQL-style `$N` statements and the
// layer adapts them for drivers that only understand `?`.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Config
// ─────────────────────────────────────────────────────────────────────────────

// Config holds all options for opening and managing the connection pool.
type Config struct {
	// DSN is the driver-specific data-source name.
	DSN string

	// DriverName is "postgres", "pgx", "mysql" or "sqlite3".
	DriverName string

	// Placeholder overrides the bind style of the registered driver.
	// Leave zero to use the driver default.
	Placeholder Placeholder

	// Pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// DefaultTimeout is applied when the context carries no deadline.
	// Zero means no default timeout.
	DefaultTimeout time.Duration

	// Hooks run around every statement. Nil entries are skipped.
	Hooks []Hook
}

// ─────────────────────────────────────────────────────────────────────────────
// DB
// ─────────────────────────────────────────────────────────────────────────────

// DB is a concurrency-safe wrapper around *sql.DB.
type DB struct {
	sqldb  *sql.DB
	cfg    Config
	hooks  hookChain
	errMap ErrorMapper
	bind   Placeholder
}

// Open opens the database described by cfg and verifies connectivity with Ping.
// When cfg.DriverName names a registered Driver its error mapper and
// placeholder style are installed automatically.
func Open(cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("jobrecruit/db: DSN must not be empty")
	}
	if cfg.DriverName == "" {
		return nil, fmt.Errorf("jobrecruit/db: DriverName must not be empty")
	}

	drv, lookupErr := LookupDriver(cfg.DriverName)
	if n, ok := drv.(DSNNormalizer); ok && lookupErr == nil {
		dsn, err := n.NormalizeDSN(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("jobrecruit/db: %w", err)
		}
		cfg.DSN = dsn
	}

	sqldb, err := sql.Open(cfg.DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("jobrecruit/db: open: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	d := &DB{
		sqldb:  sqldb,
		cfg:    cfg,
		hooks:  newHookChain(cfg.Hooks),
		errMap: DefaultErrorMapper(),
		bind:   cfg.Placeholder,
	}
	if lookupErr == nil {
		d.errMap = ChainMapper(drv.ErrorMapper(), DefaultErrorMapper())
		if d.bind == PlaceholderDefault {
			d.bind = drv.Placeholder()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("jobrecruit/db: ping: %w", err)
	}

	return d, nil
}

// Raw returns the underlying *sql.DB.
func (d *DB) Raw() *sql.DB { return d.sqldb }

// DriverName reports the database/sql driver the pool was opened with.
func (d *DB) DriverName() string { return d.cfg.DriverName }

// Close closes all pooled connections.
func (d *DB) Close() error { return d.sqldb.Close() }

// Ping verifies that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := d.withDefaultTimeout(ctx)
	defer cancel()
	return d.mapErr(d.sqldb.PingContext(ctx))
}

// Stats returns pool statistics.
func (d *DB) Stats() sql.DBStats { return d.sqldb.Stats() }

// ─────────────────────────────────────────────────────────────────────────────
// Query execution
// ─────────────────────────────────────────────────────────────────────────────

// Exec executes a statement that returns no rows.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, cancel := d.withDefaultTimeout(ctx)
	defer cancel()
	query, args = Rebind(d.bind, query, args)

	start := time.Now()
	d.hooks.Before(ctx, query, args)
	res, err := d.sqldb.ExecContext(ctx, query, args...)
	err = d.mapErr(err)
	d.hooks.After(ctx, query, args, time.Since(start), err)
	return res, err
}

// Query executes a query that returns rows. The caller MUST close the
// returned *Rows; closing also releases the default timeout.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	ctx, cancel := d.withDefaultTimeout(ctx)
	query, args = Rebind(d.bind, query, args)

	start := time.Now()
	d.hooks.Before(ctx, query, args)
	rows, err := d.sqldb.QueryContext(ctx, query, args...)
	err = d.mapErr(err)
	d.hooks.After(ctx, query, args, time.Since(start), err)
	if err != nil {
		cancel()
		return nil, err
	}
	return &Rows{Rows: rows, cancel: cancel, errMap: d.errMap}, nil
}

// QueryRow executes a query expected to return at most one row.
// ErrNotFound is returned from Scan when nothing matched.
func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *Row {
	ctx, cancel := d.withDefaultTimeout(ctx)
	query, args = Rebind(d.bind, query, args)

	start := time.Now()
	d.hooks.Before(ctx, query, args)
	raw := d.sqldb.QueryRowContext(ctx, query, args...)
	d.hooks.After(ctx, query, args, time.Since(start), nil) // err unknown until Scan
	return &Row{raw: raw, errMap: d.errMap, cancel: cancel}
}

// Prepare creates a prepared statement. The caller closes it.
func (d *DB) Prepare(ctx context.Context, query string) (*Stmt, error) {
	ctx, cancel := d.withDefaultTimeout(ctx)
	defer cancel()
	rebound, _ := Rebind(d.bind, query, nil)

	s, err := d.sqldb.PrepareContext(ctx, rebound)
	if err != nil {
		return nil, d.mapErr(err)
	}
	return newStmt(s, query, rebound, d.hooks, d.errMap, d.bind), nil
}

// Placeholder reports the bind style statements are rewritten to.
func (d *DB) Placeholder() Placeholder { return d.bind }

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

func (d *DB) withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.DefaultTimeout == 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.cfg.DefaultTimeout)
}

func (d *DB) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return d.errMap.Map(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Row / Rows
// ─────────────────────────────────────────────────────────────────────────────

// Row wraps *sql.Row and maps errors through the unified error mapper.
type Row struct {
	raw    *sql.Row
	errMap ErrorMapper
	cancel context.CancelFunc
}

// Scan copies columns from the matched row into dest values.
func (r *Row) Scan(dest ...any) error {
	if r.cancel != nil {
		defer r.cancel()
	}
	return r.errMap.Map(r.raw.Scan(dest...))
}

// Rows wraps *sql.Rows so Close also releases the statement timeout and
// iteration errors go through the error mapper.
type Rows struct {
	*sql.Rows
	cancel context.CancelFunc
	errMap ErrorMapper
}

// Close closes the result set.
func (r *Rows) Close() error {
	err := r.Rows.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

// Err returns the mapped iteration error, if any.
func (r *Rows) Err() error { return r.errMap.Map(r.Rows.Err()) }

// ─────────────────────────────────────────────────────────────────────────────
// Stmt
// ─────────────────────────────────────────────────────────────────────────────

// Stmt wraps a prepared *sql.Stmt with hook dispatch and error mapping.
type Stmt struct {
	stmt   *sql.Stmt
	orig   string // as written, with $N placeholders
	query  string // as sent to the driver
	hooks  hookChain
	errMap ErrorMapper
	bind   Placeholder
}

func newStmt(s *sql.Stmt, orig, query string, hooks hookChain, errMap ErrorMapper, bind Placeholder) *Stmt {
	return &Stmt{stmt: s, orig: orig, query: query, hooks: hooks, errMap: errMap, bind: bind}
}

// Exec executes the prepared statement.
func (s *Stmt) Exec(ctx context.Context, args ...any) (sql.Result, error) {
	args = RebindArgs(s.bind, s.orig, args)
	start := time.Now()
	s.hooks.Before(ctx, s.query, args)
	res, err := s.stmt.ExecContext(ctx, args...)
	err = s.errMap.Map(err)
	s.hooks.After(ctx, s.query, args, time.Since(start), err)
	return res, err
}

// Close releases the prepared statement.
func (s *Stmt) Close() error { return s.stmt.Close() }

// ─────────────────────────────────────────────────────────────────────────────
// WithRetry
// ─────────────────────────────────────────────────────────────────────────────

// RetryConfig controls retry behaviour for transient errors.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	// RetryOn decides whether an error triggers another attempt.
	// Defaults to ErrDeadlock, ErrTimeout and ErrConnectionFailed.
	RetryOn func(error) bool
}

// WithRetry executes fn, retrying on transient errors per cfg.
// fn must be idempotent.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	retryOn := cfg.RetryOn
	if retryOn == nil {
		retryOn = func(err error) bool {
			return IsDeadlock(err) || IsTimeout(err) || IsConnectionFailed(err)
		}
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Delay):
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryOn(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("jobrecruit/db: all %d attempts failed, last error: %w", attempts, lastErr)
}
