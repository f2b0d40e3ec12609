package db

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
)

// ─────────────────────────────────────────────────────────────────────────────
// Driver interface
// ─────────────────────────────────────────────────────────────────────────────

// Driver encapsulates database-specific behaviour: DSN construction, the
// bind-parameter style and a tuned ErrorMapper. The database/sql driver
// itself is registered by blank-importing its package in main.
type Driver interface {
	// Name returns the name passed to sql.Register, e.g. "pgx", "mysql".
	Name() string

	// DSN converts structured options into a driver DSN string.
	DSN(opts DriverOptions) (string, error)

	// Placeholder is the bind style the driver understands.
	Placeholder() Placeholder

	// ErrorMapper returns a mapper tuned to this driver's error types.
	ErrorMapper() ErrorMapper
}

// DSNNormalizer is implemented by drivers that need options forced on every
// DSN passed to Open.
type DSNNormalizer interface {
	NormalizeDSN(dsn string) (string, error)
}

// DriverOptions carries the common connection parameters in a
// driver-agnostic form.
type DriverOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // "disable", "require", "verify-full", etc.
	// Extra holds driver-specific key/value parameters.
	Extra map[string]string
}

// ─────────────────────────────────────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────────────────────────────────────

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// RegisterDriver adds a Driver to the registry. It panics on a duplicate name.
func RegisterDriver(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, ok := drivers[d.Name()]; ok {
		panic(fmt.Sprintf("jobrecruit/db: driver %q already registered", d.Name()))
	}
	drivers[d.Name()] = d
}

// LookupDriver returns the registered Driver by name.
func LookupDriver(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("jobrecruit/db: driver %q not registered", name)
	}
	return d, nil
}

// Drivers lists the registered driver names in sorted order.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenWithDriver opens a DB from structured options instead of a DSN.
//
//	database, err := db.OpenWithDriver("pgx", db.DriverOptions{
//	    Host: "localhost", Port: 5432,
//	    User: "app", Password: "secret", Database: "jobrecruit",
//	}, db.Config{MaxOpenConns: 25})
func OpenWithDriver(driverName string, driverOpts DriverOptions, cfg Config) (*DB, error) {
	drv, err := LookupDriver(driverName)
	if err != nil {
		return nil, err
	}

	dsn, err := drv.DSN(driverOpts)
	if err != nil {
		return nil, fmt.Errorf("jobrecruit/db: DSN construction failed: %w", err)
	}

	cfg.DriverName = drv.Name()
	cfg.DSN = dsn
	return Open(cfg)
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL (lib/pq)
// ─────────────────────────────────────────────────────────────────────────────

// PostgresDriver adapts lib/pq. Import _ "github.com/lib/pq" to activate.
type PostgresDriver struct{}

func (PostgresDriver) Name() string             { return "postgres" }
func (PostgresDriver) Placeholder() Placeholder { return PlaceholderDollar }

func (PostgresDriver) DSN(o DriverOptions) (string, error) {
	return postgresURL(o)
}

func (PostgresDriver) ErrorMapper() ErrorMapper { return mapperOf(mapPQError) }

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL (pgx stdlib)
// ─────────────────────────────────────────────────────────────────────────────

// PgxDriver adapts jackc/pgx through its database/sql shim.
// Import _ "github.com/jackc/pgx/v5/stdlib" to activate.
type PgxDriver struct{}

func (PgxDriver) Name() string             { return "pgx" }
func (PgxDriver) Placeholder() Placeholder { return PlaceholderDollar }

func (PgxDriver) DSN(o DriverOptions) (string, error) {
	return postgresURL(o)
}

func (PgxDriver) ErrorMapper() ErrorMapper { return mapperOf(mapPGXError) }

func postgresURL(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("postgres driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 5432
	}
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	for k, v := range o.Extra {
		q.Set(k, v)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(o.User, o.Password),
		Host:     fmt.Sprintf("%s:%d", o.Host, port),
		Path:     "/" + o.Database,
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// MySQL
// ─────────────────────────────────────────────────────────────────────────────

// MySQLDriver adapts go-sql-driver/mysql. Statements are rebound to `?`.
type MySQLDriver struct{}

func (MySQLDriver) Name() string             { return "mysql" }
func (MySQLDriver) Placeholder() Placeholder { return PlaceholderQuestion }

func (MySQLDriver) DSN(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("mysql driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 3306
	}
	params := map[string]string{"parseTime": "true", "loc": "UTC", "clientFoundRows": "true"}
	for k, v := range o.Extra {
		params[k] = v
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		o.User, o.Password, o.Host, port, o.Database, joinParams(params)), nil
}

func (MySQLDriver) ErrorMapper() ErrorMapper { return mapperOf(mapMySQLError) }

// NormalizeDSN forces the options repositories rely on: DATETIME columns
// scan into time.Time and UPDATE reports matched rather than changed rows.
func (MySQLDriver) NormalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("mysql driver: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SQLite
// ─────────────────────────────────────────────────────────────────────────────

// SQLiteDriver adapts mattn/go-sqlite3. SQLite accepts $N natively.
type SQLiteDriver struct{}

func (SQLiteDriver) Name() string             { return "sqlite3" }
func (SQLiteDriver) Placeholder() Placeholder { return PlaceholderDollar }

func (SQLiteDriver) DSN(o DriverOptions) (string, error) {
	if o.Database == "" {
		return "", fmt.Errorf("sqlite3 driver: Database (file path) is required")
	}
	params := map[string]string{"_foreign_keys": "on"}
	for k, v := range o.Extra {
		params[k] = v
	}
	return "file:" + o.Database + "?" + joinParams(params), nil
}

func (SQLiteDriver) ErrorMapper() ErrorMapper { return mapperOf(mapSQLiteError) }

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// mapperOf turns a driver-specific matcher (nil when it does not apply) into
// an ErrorMapper that leaves unmatched errors untouched.
func mapperOf(match func(error) error) ErrorMapper {
	return ErrorMapperFunc(func(err error) error {
		if err == nil {
			return nil
		}
		if mapped := match(err); mapped != nil {
			return mapped
		}
		return err
	})
}

// joinParams renders k=v pairs in key order so DSNs are deterministic.
func joinParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

func init() {
	RegisterDriver(PostgresDriver{})
	RegisterDriver(PgxDriver{})
	RegisterDriver(MySQLDriver{})
	RegisterDriver(SQLiteDriver{})
}
