// Package repo holds one data-access module per JobRecruit entity. Every
// authorization rule that depends on who the caller is lives in the SQL
// predicates of these repositories, so it holds no matter which handler or
// tool issues the call.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/B-Mitchell/JobRecruit/db"
)

// ─────────────────────────────────────────────────────────────────────────────
// Errors
// ─────────────────────────────────────────────────────────────────────────────

var (
	// ErrForbidden means the row exists but the caller's identity does not
	// satisfy the ownership or role predicate guarding it.
	ErrForbidden = errors.New("repo: forbidden")

	// ErrProfileRequired means the caller has no completed profile, or one
	// with the wrong role, for an operation that needs it.
	ErrProfileRequired = errors.New("repo: profile with the required role not found")

	// ErrInvalidTransition means an application is no longer pending.
	ErrInvalidTransition = errors.New("repo: invalid status transition")

	// ErrListingClosed means the listing no longer accepts applications.
	ErrListingClosed = errors.New("repo: listing is closed")
)

// ─────────────────────────────────────────────────────────────────────────────
// Repositories
// ─────────────────────────────────────────────────────────────────────────────

// Repositories bundles every repository over one db.Querier. Build it from a
// *db.DB for plain calls or from a *db.Tx inside db.ExecTx.
type Repositories struct {
	Profiles     ProfileRepository
	Listings     ListingRepository
	Applications ApplicationRepository
	Messages     MessageRepository
}

// New returns every repository backed by q.
func New(q db.Querier) *Repositories {
	return &Repositories{
		Profiles:     NewProfileRepo(q),
		Listings:     NewListingRepo(q),
		Applications: NewApplicationRepo(q),
		Messages:     NewMessageRepo(q),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// scanner is satisfied by both *db.Row and *db.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// placeholders renders n consecutive $N markers starting at start:
// placeholders(3, 2) == "$3, $4".
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

// likeEscape is the ESCAPE character used by every LIKE the repositories build.
const likeEscape = '!'

// containsPattern turns free text into a LIKE pattern matching any value
// that contains it, with the LIKE metacharacters in s matched literally.
func containsPattern(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('%')
	for _, r := range s {
		if r == '%' || r == '_' || r == likeEscape {
			b.WriteRune(likeEscape)
		}
		b.WriteRune(r)
	}
	b.WriteByte('%')
	return b.String()
}

// requireProfile tells an empty result apart from a caller without a
// completed profile.
func requireProfile(ctx context.Context, q db.Querier, externalID string) error {
	var n int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE external_id = $1`, externalID).Scan(&n)
	if err != nil {
		return fmt.Errorf("repo: profile lookup: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repo: %s has no profile: %w", externalID, ErrProfileRequired)
	}
	return nil
}

// rowsAffected reads the affected-row count. Callers decide what zero means.
func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("repo: rows affected: %w", err)
	}
	return n, nil
}

// NullString converts *string to sql.NullString for optional columns.
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullIfEmpty stores an empty optional text field as NULL.
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// stringPtr is the inverse of NullString.
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
