package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// ProfileRepository interface
// ─────────────────────────────────────────────────────────────────────────────

// ProfileRepository persists the "users" table.
type ProfileRepository interface {
	// Insert completes a profile. A second completion for the same identity
	// fails with db.ErrDuplicateKey.
	Insert(ctx context.Context, params models.CompleteProfileParams) (*models.Profile, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Profile, error)
	// DisplayNames resolves many identities in one query. Identities with no
	// profile are absent from the result.
	DisplayNames(ctx context.Context, externalIDs []string) (map[string]string, error)
	List(ctx context.Context) ([]*models.Profile, error)
	ListAdmins(ctx context.Context) ([]*models.Profile, error)
	// SetAdmin sets the admin flag on every identity, stopping at the first
	// one without a profile. Run it inside db.ExecTx for all-or-nothing.
	SetAdmin(ctx context.Context, admin bool, externalIDs ...string) error
	Count(ctx context.Context) (int64, error)
}

// profileRepo is the production implementation backed by a db.Querier.
type profileRepo struct {
	q db.Querier
}

// NewProfileRepo returns a ProfileRepository backed by q.
// q can be a *db.DB or *db.Tx.
func NewProfileRepo(q db.Querier) ProfileRepository {
	return &profileRepo{q: q}
}

// ─────────────────────────────────────────────────────────────────────────────
// SQL
// ─────────────────────────────────────────────────────────────────────────────

const profileColumns = `
	external_id, role, email, name,
	skills, education, experience, resume_url,
	company_name, company_profile, company_website,
	is_admin, created_at`

const (
	sqlInsertProfile = `
		INSERT INTO users (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	sqlGetProfile = `
		SELECT ` + profileColumns + `
		FROM   users
		WHERE  external_id = $1`

	sqlListProfiles = `
		SELECT ` + profileColumns + `
		FROM   users
		ORDER  BY created_at, external_id`

	sqlListAdmins = `
		SELECT ` + profileColumns + `
		FROM   users
		WHERE  is_admin = $1
		ORDER  BY external_id`

	sqlSetAdmin = `
		UPDATE users SET is_admin = $1 WHERE external_id = $2`

	sqlCountProfiles = `
		SELECT COUNT(*) FROM users`
)

// ─────────────────────────────────────────────────────────────────────────────
// Insert
// ─────────────────────────────────────────────────────────────────────────────

func (r *profileRepo) Insert(ctx context.Context, p models.CompleteProfileParams) (*models.Profile, error) {
	profile := &models.Profile{
		ExternalID: p.ExternalID,
		Role:       p.Role,
		Email:      p.Email,
		Name:       p.Name,
		CreatedAt:  time.Now().UTC(),
	}

	var skills, education, experience, resume sql.NullString
	var company, companyProfile, website sql.NullString
	switch p.Role {
	case models.RoleJobSeeker:
		if p.JobSeeker == nil {
			return nil, fmt.Errorf("repo/profile: job seeker details missing")
		}
		d := *p.JobSeeker
		d.Skills = models.SplitSkills(models.JoinSkills(d.Skills))
		profile.JobSeeker = &d
		skills = nullIfEmpty(models.JoinSkills(d.Skills))
		education = nullIfEmpty(d.Education)
		experience = nullIfEmpty(d.Experience)
		resume = nullIfEmpty(d.ResumeURL)
	case models.RoleEmployer:
		if p.Employer == nil {
			return nil, fmt.Errorf("repo/profile: employer details missing")
		}
		d := *p.Employer
		profile.Employer = &d
		company = nullIfEmpty(d.CompanyName)
		companyProfile = nullIfEmpty(d.CompanyProfile)
		website = nullIfEmpty(d.CompanyWebsite)
	default:
		return nil, fmt.Errorf("repo/profile: unknown role %q", p.Role)
	}

	_, err := r.q.Exec(ctx, sqlInsertProfile,
		profile.ExternalID, string(profile.Role), profile.Email, profile.Name,
		skills, education, experience, resume,
		company, companyProfile, website,
		false, profile.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("repo/profile: insert: %w", err)
	}
	return profile, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// GetByExternalID returns db.ErrNotFound when the identity has not completed
// a profile yet.
func (r *profileRepo) GetByExternalID(ctx context.Context, externalID string) (*models.Profile, error) {
	return scanProfile(r.q.QueryRow(ctx, sqlGetProfile, externalID))
}

func (r *profileRepo) List(ctx context.Context) ([]*models.Profile, error) {
	return r.list(ctx, sqlListProfiles)
}

func (r *profileRepo) ListAdmins(ctx context.Context) ([]*models.Profile, error) {
	return r.list(ctx, sqlListAdmins, true)
}

func (r *profileRepo) list(ctx context.Context, query string, args ...any) ([]*models.Profile, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repo/profile: list: %w", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *profileRepo) DisplayNames(ctx context.Context, externalIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(externalIDs))
	if len(externalIDs) == 0 {
		return names, nil
	}

	args := make([]any, len(externalIDs))
	for i, id := range externalIDs {
		args[i] = id
	}
	query := fmt.Sprintf(`
		SELECT external_id, name
		FROM   users
		WHERE  external_id IN (%s)`, placeholders(1, len(args)))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repo/profile: names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("repo/profile: scan: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (r *profileRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, sqlCountProfiles).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo/profile: count: %w", err)
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SetAdmin
// ─────────────────────────────────────────────────────────────────────────────

// SetAdmin grants or revokes the admin capability through one prepared
// statement. Returns db.ErrNotFound for the first identity with no profile.
func (r *profileRepo) SetAdmin(ctx context.Context, admin bool, externalIDs ...string) error {
	stmt, err := r.q.Prepare(ctx, sqlSetAdmin)
	if err != nil {
		return fmt.Errorf("repo/profile: prepare set admin: %w", err)
	}
	defer stmt.Close()

	for _, id := range externalIDs {
		res, err := stmt.Exec(ctx, admin, id)
		if err != nil {
			return fmt.Errorf("repo/profile: set admin: %w", err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("repo/profile: %s: %w", id, db.ErrNotFound)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// scanProfile
// ─────────────────────────────────────────────────────────────────────────────

// scanProfile reads profileColumns and rebuilds the role variant.
func scanProfile(s scanner) (*models.Profile, error) {
	var (
		p    models.Profile
		role string

		skills, education, experience, cv sql.NullString
		company, companyProfile, website  sql.NullString
	)
	err := s.Scan(
		&p.ExternalID, &role, &p.Email, &p.Name,
		&skills, &education, &experience, &cv,
		&company, &companyProfile, &website,
		&p.IsAdmin, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("repo/profile: %w", err)
	}

	p.Role = models.Role(role)
	switch p.Role {
	case models.RoleJobSeeker:
		p.JobSeeker = &models.JobSeekerDetails{
			Skills:     models.SplitSkills(skills.String),
			Education:  education.String,
			Experience: experience.String,
			ResumeURL:  cv.String,
		}
	case models.RoleEmployer:
		p.Employer = &models.EmployerDetails{
			CompanyName:    company.String,
			CompanyProfile: companyProfile.String,
			CompanyWebsite: website.String,
		}
	}
	return &p, nil
}

var _ ProfileRepository = (*profileRepo)(nil)
