package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// ListingRepository interface
// ─────────────────────────────────────────────────────────────────────────────

// ListingRepository persists the "jobs" table. Writes carry the caller's
// identity and only touch rows the caller is allowed to touch.
type ListingRepository interface {
	// Insert posts a listing. ErrProfileRequired when PostedBy is not an
	// employer.
	Insert(ctx context.Context, params models.CreateListingParams) (*models.Listing, error)
	// GetByID reads a listing without a visibility check, for read-backs.
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	// Get and List only show listings to callers with a completed profile.
	// ErrProfileRequired otherwise.
	Get(ctx context.Context, id, callerID string) (*models.Listing, error)
	List(ctx context.Context, callerID string, filter models.ListingFilter) ([]*models.Listing, error)
	ListByPoster(ctx context.Context, posterID string) ([]*models.Listing, error)
	// Update applies a partial edit. Only the poster may edit.
	Update(ctx context.Context, callerID string, params models.UpdateListingParams) (*models.Listing, error)
	// Delete removes a listing. The poster or an admin may delete.
	Delete(ctx context.Context, id, callerID string) error
	CountActive(ctx context.Context) (int64, error)
}

type listingRepo struct {
	q db.Querier
}

// NewListingRepo returns a ListingRepository backed by q.
func NewListingRepo(q db.Querier) ListingRepository {
	return &listingRepo{q: q}
}

// ─────────────────────────────────────────────────────────────────────────────
// SQL
// ─────────────────────────────────────────────────────────────────────────────

const listingColumns = `
	id, title, description, salary, location, job_type, category,
	company_name, company_website, posted_by, status, created_at, updated_at`

const (
	// The SELECT yields one row only when the poster is an employer.
	sqlInsertListing = `
		INSERT INTO jobs (` + listingColumns + `)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, external_id, $10, $11, $11
		FROM   users
		WHERE  external_id = $12 AND role = 'employer'`

	sqlGetListing = `
		SELECT ` + listingColumns + `
		FROM   jobs
		WHERE  id = $1`

	// Visible only to a caller with a completed profile.
	sqlGetVisibleListing = `
		SELECT ` + listingColumns + `
		FROM   jobs
		WHERE  id = $1
		  AND  EXISTS (SELECT 1 FROM users WHERE external_id = $2)`

	sqlListByPoster = `
		SELECT ` + listingColumns + `
		FROM   jobs
		WHERE  posted_by = $1
		ORDER  BY created_at DESC, id DESC`

	sqlDeleteListing = `
		DELETE FROM jobs
		WHERE  id = $1
		  AND  (posted_by = $2
		        OR EXISTS (SELECT 1 FROM users WHERE external_id = $2 AND is_admin = $3))`

	sqlCountActiveListings = `
		SELECT COUNT(*) FROM jobs WHERE status = $1`
)

// ─────────────────────────────────────────────────────────────────────────────
// Insert
// ─────────────────────────────────────────────────────────────────────────────

func (r *listingRepo) Insert(ctx context.Context, p models.CreateListingParams) (*models.Listing, error) {
	now := time.Now().UTC()
	l := &models.Listing{
		ID:             uuid.NewString(),
		Title:          p.Title,
		Description:    p.Description,
		Salary:         p.Salary,
		Location:       p.Location,
		JobType:        p.JobType,
		Category:       p.Category,
		CompanyName:    p.CompanyName,
		CompanyWebsite: p.CompanyWebsite,
		PostedBy:       p.PostedBy,
		Status:         models.ListingActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if l.JobType == "" {
		l.JobType = models.JobTypeFullTime
	}

	res, err := r.q.Exec(ctx, sqlInsertListing,
		l.ID, l.Title, l.Description, l.Salary, l.Location, l.JobType, l.Category,
		l.CompanyName, nullIfEmpty(l.CompanyWebsite), string(l.Status), now, p.PostedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("repo/listing: insert: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("repo/listing: %s is not an employer: %w", p.PostedBy, ErrProfileRequired)
	}
	return l, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// GetByID returns db.ErrNotFound when no listing has this id.
func (r *listingRepo) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	return scanListing(r.q.QueryRow(ctx, sqlGetListing, id))
}

func (r *listingRepo) Get(ctx context.Context, id, callerID string) (*models.Listing, error) {
	l, err := scanListing(r.q.QueryRow(ctx, sqlGetVisibleListing, id, callerID))
	if db.IsNotFound(err) {
		if perr := requireProfile(ctx, r.q, callerID); perr != nil {
			return nil, perr
		}
	}
	return l, err
}

func (r *listingRepo) ListByPoster(ctx context.Context, posterID string) ([]*models.Listing, error) {
	return r.list(ctx, sqlListByPoster, posterID)
}

// List selects the listings filter.Matches accepts, newest first, for a
// caller with a completed profile. The text
// query compares lower-cased columns against an escaped LIKE pattern so
// user-supplied % and _ match literally.
func (r *listingRepo) List(ctx context.Context, callerID string, filter models.ListingFilter) ([]*models.Listing, error) {
	f := filter.Normalize()
	where := []string{`EXISTS (SELECT 1 FROM users WHERE external_id = $1)`}
	args := []any{callerID}
	i := 2

	if f.Query != "" {
		where = append(where, fmt.Sprintf(
			"(LOWER(title) LIKE $%[1]d ESCAPE '%[2]c' OR LOWER(description) LIKE $%[1]d ESCAPE '%[2]c' OR LOWER(company_name) LIKE $%[1]d ESCAPE '%[2]c')",
			i, likeEscape))
		args = append(args, containsPattern(strings.ToLower(f.Query)))
		i++
	}
	for _, facet := range []struct{ col, val string }{
		{"category", f.Category},
		{"job_type", f.JobType},
		{"location", f.Location},
	} {
		if facet.val == "" {
			continue
		}
		where = append(where, fmt.Sprintf("%s = $%d", facet.col, i))
		args = append(args, facet.val)
		i++
	}

	query := `SELECT ` + listingColumns + ` FROM jobs WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id DESC`

	listings, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		if err := requireProfile(ctx, r.q, callerID); err != nil {
			return nil, err
		}
	}
	return listings, nil
}

func (r *listingRepo) list(ctx context.Context, query string, args ...any) ([]*models.Listing, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repo/listing: list: %w", err)
	}
	defer rows.Close()

	listings := make([]*models.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (r *listingRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, sqlCountActiveListings, string(models.ListingActive)).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo/listing: count: %w", err)
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Update — partial update with explicit SQL construction
// ─────────────────────────────────────────────────────────────────────────────

// Update edits only the non-nil fields of params. The poster predicate sits
// in the WHERE clause; when nothing matched, a follow-up read tells a missing
// listing (db.ErrNotFound) from someone else's (ErrForbidden).
func (r *listingRepo) Update(ctx context.Context, callerID string, p models.UpdateListingParams) (*models.Listing, error) {
	setClauses := make([]string, 0, 10)
	args := make([]any, 0, 12)
	argIdx := 1

	set := func(col string, v any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, v)
		argIdx++
	}
	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Salary != nil {
		set("salary", *p.Salary)
	}
	if p.Location != nil {
		set("location", *p.Location)
	}
	if p.JobType != nil {
		set("job_type", *p.JobType)
	}
	if p.Category != nil {
		set("category", *p.Category)
	}
	if p.CompanyName != nil {
		set("company_name", *p.CompanyName)
	}
	if p.CompanyWebsite != nil {
		set("company_website", nullIfEmpty(*p.CompanyWebsite))
	}
	if p.Status != nil {
		set("status", string(*p.Status))
	}
	set("updated_at", time.Now().UTC())

	args = append(args, p.ID, callerID)
	query := fmt.Sprintf(`
		UPDATE jobs
		SET    %s
		WHERE  id = $%d AND posted_by = $%d`,
		strings.Join(setClauses, ", "), argIdx, argIdx+1)

	res, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repo/listing: update: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, r.denied(ctx, p.ID)
	}
	return r.GetByID(ctx, p.ID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete
// ─────────────────────────────────────────────────────────────────────────────

func (r *listingRepo) Delete(ctx context.Context, id, callerID string) error {
	res, err := r.q.Exec(ctx, sqlDeleteListing, id, callerID, true)
	if err != nil {
		return fmt.Errorf("repo/listing: delete: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return r.denied(ctx, id)
	}
	return nil
}

// denied explains why a guarded write touched no row.
func (r *listingRepo) denied(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("repo/listing: %s: %w", id, ErrForbidden)
}

// ─────────────────────────────────────────────────────────────────────────────
// scanListing
// ─────────────────────────────────────────────────────────────────────────────

func scanListing(s scanner) (*models.Listing, error) {
	var (
		l       models.Listing
		website sql.NullString
		status  string
	)
	err := s.Scan(
		&l.ID, &l.Title, &l.Description, &l.Salary, &l.Location, &l.JobType, &l.Category,
		&l.CompanyName, &website, &l.PostedBy, &status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("repo/listing: %w", err)
	}
	l.CompanyWebsite = website.String
	l.Status = models.ListingStatus(status)
	return &l, nil
}

var _ ListingRepository = (*listingRepo)(nil)
