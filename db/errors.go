package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sentinel errors
// ─────────────────────────────────────────────────────────────────────────────

var (
	// ErrNotFound is returned when a query matches no rows.
	ErrNotFound = errors.New("jobrecruit/db: record not found")

	// ErrDuplicateKey is returned on unique constraint violations.
	ErrDuplicateKey = errors.New("jobrecruit/db: duplicate key")

	// ErrForeignKeyViolation is returned when a foreign key constraint is violated.
	ErrForeignKeyViolation = errors.New("jobrecruit/db: foreign key violation")

	// ErrDeadlock is returned when the database detects a deadlock.
	ErrDeadlock = errors.New("jobrecruit/db: deadlock detected")

	// ErrTimeout is returned when a statement exceeds its deadline.
	ErrTimeout = errors.New("jobrecruit/db: query timeout")

	// ErrCheckViolation is returned when a CHECK constraint is violated.
	ErrCheckViolation = errors.New("jobrecruit/db: check constraint violation")

	// ErrConnectionFailed is returned when the driver cannot reach the server.
	ErrConnectionFailed = errors.New("jobrecruit/db: connection failed")

	// ErrValueTooLong is returned when a value exceeds its column's width.
	ErrValueTooLong = errors.New("jobrecruit/db: value too long for column")
)

func IsNotFound(err error) bool            { return errors.Is(err, ErrNotFound) }
func IsDuplicateKey(err error) bool        { return errors.Is(err, ErrDuplicateKey) }
func IsForeignKeyViolation(err error) bool { return errors.Is(err, ErrForeignKeyViolation) }
func IsDeadlock(err error) bool            { return errors.Is(err, ErrDeadlock) }
func IsTimeout(err error) bool             { return errors.Is(err, ErrTimeout) }
func IsCheckViolation(err error) bool      { return errors.Is(err, ErrCheckViolation) }
func IsConnectionFailed(err error) bool    { return errors.Is(err, ErrConnectionFailed) }
func IsValueTooLong(err error) bool        { return errors.Is(err, ErrValueTooLong) }

// ─────────────────────────────────────────────────────────────────────────────
// DBError
// ─────────────────────────────────────────────────────────────────────────────

// DBError pairs a sentinel with the original driver error, so callers can
// match with errors.Is(err, ErrDuplicateKey) and still reach the cause.
type DBError struct {
	// Sentinel is one of the package-level Err* variables.
	Sentinel error
	// Cause is the original driver error.
	Cause error
	// Constraint names the violated constraint when the driver reports it.
	Constraint string
}

func (e *DBError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Sentinel, e.Constraint, e.Cause)
	}
	return fmt.Sprintf("%s (cause: %v)", e.Sentinel, e.Cause)
}

func (e *DBError) Is(target error) bool { return errors.Is(e.Sentinel, target) }
func (e *DBError) Unwrap() error        { return e.Cause }

// ─────────────────────────────────────────────────────────────────────────────
// ErrorMapper
// ─────────────────────────────────────────────────────────────────────────────

// ErrorMapper translates raw driver errors into sentinel errors.
type ErrorMapper interface {
	Map(err error) error
}

// ErrorMapperFunc adapts a function to ErrorMapper.
type ErrorMapperFunc func(error) error

func (f ErrorMapperFunc) Map(err error) error { return f(err) }

// DefaultErrorMapper handles the driver-independent cases (no rows, context
// expiry) and falls back to every known driver mapping.
func DefaultErrorMapper() ErrorMapper {
	return ErrorMapperFunc(defaultMap)
}

func defaultMap(err error) error {
	if err == nil {
		return nil
	}

	var dbe *DBError
	if errors.As(err, &dbe) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &DBError{Sentinel: ErrNotFound, Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &DBError{Sentinel: ErrTimeout, Cause: err}
	}

	for _, m := range []func(error) error{mapPQError, mapPGXError, mapMySQLError, mapSQLiteError} {
		if mapped := m(err); mapped != nil {
			return mapped
		}
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL (lib/pq and pgx)
// ─────────────────────────────────────────────────────────────────────────────

func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	return mapByPGCode(string(pqErr.Code), pqErr.Constraint, err)
}

func mapPGXError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	return mapByPGCode(pgErr.Code, pgErr.ConstraintName, err)
}

// SQLSTATE codes: https://www.postgresql.org/docs/current/errcodes-appendix.html
func mapByPGCode(code, constraint string, cause error) error {
	var sentinel error
	switch {
	case code == "23505":
		sentinel = ErrDuplicateKey
	case code == "23503":
		sentinel = ErrForeignKeyViolation
	case code == "23514":
		sentinel = ErrCheckViolation
	case code == "22001":
		sentinel = ErrValueTooLong
	case code == "40P01":
		sentinel = ErrDeadlock
	case code == "57014":
		sentinel = ErrTimeout
	case strings.HasPrefix(code, "08"):
		sentinel = ErrConnectionFailed
	default:
		return nil
	}
	return &DBError{Sentinel: sentinel, Cause: cause, Constraint: constraint}
}

// ─────────────────────────────────────────────────────────────────────────────
// MySQL
// ─────────────────────────────────────────────────────────────────────────────

func mapMySQLError(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return nil
	}
	var sentinel error
	switch me.Number {
	case 1062: // ER_DUP_ENTRY
		sentinel = ErrDuplicateKey
	case 1452, 1216, 1217, 1451: // referenced / referencing row
		sentinel = ErrForeignKeyViolation
	case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
		sentinel = ErrCheckViolation
	case 1406: // ER_DATA_TOO_LONG
		sentinel = ErrValueTooLong
	case 1213: // ER_LOCK_DEADLOCK
		sentinel = ErrDeadlock
	case 3024: // ER_QUERY_TIMEOUT
		sentinel = ErrTimeout
	case 1045, 2002, 2003, 2006, 2013:
		sentinel = ErrConnectionFailed
	default:
		return nil
	}
	return &DBError{Sentinel: sentinel, Cause: err}
}

// ─────────────────────────────────────────────────────────────────────────────
// SQLite
// ─────────────────────────────────────────────────────────────────────────────

// mapSQLiteError matches on message text so this package does not need cgo.
func mapSQLiteError(err error) error {
	s := err.Error()
	var sentinel error
	switch {
	case strings.Contains(s, "UNIQUE constraint failed"):
		sentinel = ErrDuplicateKey
	case strings.Contains(s, "FOREIGN KEY constraint failed"):
		sentinel = ErrForeignKeyViolation
	case strings.Contains(s, "CHECK constraint failed"):
		sentinel = ErrCheckViolation
	case strings.Contains(s, "database is locked"):
		sentinel = ErrDeadlock
	case strings.Contains(s, "string or blob too big"):
		sentinel = ErrValueTooLong
	default:
		return nil
	}
	return &DBError{Sentinel: sentinel, Cause: err}
}

// ─────────────────────────────────────────────────────────────────────────────
// ChainMapper
// ─────────────────────────────────────────────────────────────────────────────

// ChainMapper tries each mapper in order and returns the first result that
// differs from the input.
func ChainMapper(mappers ...ErrorMapper) ErrorMapper {
	return ErrorMapperFunc(func(err error) error {
		if err == nil {
			return nil
		}
		for _, m := range mappers {
			if mapped := m.Map(err); mapped != err {
				return mapped
			}
		}
		return err
	})
}
