// Package migrations embeds the JobRecruit schema and applies it with
// golang-migrate. The scripts are written once in a dialect accepted by
// PostgreSQL, MySQL 8 and SQLite.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var files embed.FS

// FS exposes the embedded migration scripts.
func FS() fs.FS { return files }

// Source returns a golang-migrate source driver reading the embedded scripts.
func Source() (source.Driver, error) {
	d, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("migrations: source: %w", err)
	}
	return d, nil
}

// NewMigrator binds the embedded scripts to an open pool. driverName is the
// database/sql driver the pool was opened with. Closing the returned
// Migrate also closes sqldb.
func NewMigrator(sqldb *sql.DB, driverName string) (*migrate.Migrate, error) {
	var (
		drv database.Driver
		err error
	)
	switch driverName {
	case "postgres":
		drv, err = postgres.WithInstance(sqldb, &postgres.Config{})
	case "pgx":
		drv, err = pgxmigrate.WithInstance(sqldb, &pgxmigrate.Config{})
	case "mysql":
		drv, err = mysql.WithInstance(sqldb, &mysql.Config{})
	case "sqlite3":
		drv, err = sqlite3.WithInstance(sqldb, &sqlite3.Config{})
	default:
		return nil, fmt.Errorf("migrations: unsupported driver %q", driverName)
	}
	if err != nil {
		return nil, fmt.Errorf("migrations: %s: %w", driverName, err)
	}

	src, err := Source()
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithInstance("iofs", src, driverName, drv)
	if err != nil {
		return nil, fmt.Errorf("migrations: init: %w", err)
	}
	return m, nil
}

// Open opens a dedicated connection pool for dsn and binds the embedded
// scripts to it. Closing the returned Migrate closes the pool.
func Open(driverName, dsn string) (*migrate.Migrate, error) {
	if driverName == "mysql" {
		dsn = withMultiStatements(dsn)
	}
	sqldb, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("migrations: open: %w", err)
	}
	m, err := NewMigrator(sqldb, driverName)
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return m, nil
}

// Up applies every pending migration to dsn. An already up-to-date schema
// is not an error.
func Up(driverName, dsn string, logger *slog.Logger) error {
	m, err := Open(driverName, dsn)
	if err != nil {
		return err
	}
	defer m.Close()
	m.Log = NewLogger(logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: up: %w", err)
	}
	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrations: version: %w", err)
	}
	if logger != nil {
		logger.Info("migrations: schema up to date", "version", v, "dirty", dirty)
	}
	return nil
}

// Execer is the subset of db.Querier Bootstrap needs.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Bootstrap runs every up script in version order without recording a
// schema version. It is meant for throwaway databases such as an in-memory
// SQLite pool in tests.
func Bootstrap(ctx context.Context, e Execer) error {
	names, err := fs.Glob(files, "*.up.sql")
	if err != nil {
		return fmt.Errorf("migrations: glob: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		script, err := fs.ReadFile(files, name)
		if err != nil {
			return fmt.Errorf("migrations: read %s: %w", name, err)
		}
		if _, err := e.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("migrations: apply %s: %w", name, err)
		}
	}
	return nil
}

func withMultiStatements(dsn string) string {
	if strings.Contains(dsn, "multiStatements=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&multiStatements=true"
	}
	return dsn + "?multiStatements=true"
}

// ─────────────────────────────────────────────────────────────────────────────
// Logger
// ─────────────────────────────────────────────────────────────────────────────

// Logger adapts slog to golang-migrate's Logger interface.
type Logger struct {
	l       *slog.Logger
	verbose bool
}

// NewLogger returns a migrate logger writing to l (slog.Default when nil).
func NewLogger(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{l: l}
}

// WithVerbose enables golang-migrate's per-statement output.
func (g *Logger) WithVerbose(v bool) *Logger {
	g.verbose = v
	return g
}

func (g *Logger) Printf(format string, v ...any) {
	g.l.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g *Logger) Verbose() bool { return g.verbose }
