package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplicationRepository interface
// ─────────────────────────────────────────────────────────────────────────────

// ApplicationRepository persists the "applications" table.
type ApplicationRepository interface {
	// Insert submits an application on behalf of a job seeker, copying the
	// listing's title and company into the row.
	Insert(ctx context.Context, params models.SubmitApplicationParams) (*models.Application, error)
	GetByID(ctx context.Context, id string) (*models.Application, error)
	// ListForJob returns a listing's applications. Only its poster may read them.
	ListForJob(ctx context.Context, jobID, callerID string) ([]*models.Application, error)
	ListForApplicant(ctx context.Context, applicantID string) ([]*models.Application, error)
	// UpdateStatus moves a pending application to approved or rejected.
	// Only the poster of the application's listing may do so.
	UpdateStatus(ctx context.Context, params models.UpdateStatusParams) (*models.Application, error)
	Count(ctx context.Context) (int64, error)
}

type applicationRepo struct {
	q db.Querier
}

// NewApplicationRepo returns an ApplicationRepository backed by q.
func NewApplicationRepo(q db.Querier) ApplicationRepository {
	return &applicationRepo{q: q}
}

// ─────────────────────────────────────────────────────────────────────────────
// SQL
// ─────────────────────────────────────────────────────────────────────────────

const applicationColumns = `
	id, job_id, job_title, company_name, applicant_id, name, email,
	resume_url, cover_letter, status, created_at, updated_at`

const (
	// The SELECT yields a row only for an active listing and a job seeker
	// applicant; title and company come from the listing as it is now.
	sqlInsertApplication = `
		INSERT INTO applications (` + applicationColumns + `)
		SELECT $1, j.id, j.title, j.company_name, $2, $3, $4, $5, $6, $7, $8, $8
		FROM   jobs j
		WHERE  j.id = $9
		  AND  j.status = $10
		  AND  EXISTS (SELECT 1 FROM users u WHERE u.external_id = $2 AND u.role = 'job_seeker')`

	sqlGetApplication = `
		SELECT ` + applicationColumns + `
		FROM   applications
		WHERE  id = $1`

	sqlListApplicationsForJob = `
		SELECT a.id, a.job_id, a.job_title, a.company_name, a.applicant_id, a.name, a.email,
		       a.resume_url, a.cover_letter, a.status, a.created_at, a.updated_at
		FROM   applications a
		JOIN   jobs j ON j.id = a.job_id
		WHERE  a.job_id = $1 AND j.posted_by = $2
		ORDER  BY a.created_at, a.id`

	sqlListApplicationsForApplicant = `
		SELECT ` + applicationColumns + `
		FROM   applications
		WHERE  applicant_id = $1
		ORDER  BY created_at DESC, id DESC`

	sqlJobPoster = `
		SELECT posted_by FROM jobs WHERE id = $1`

	sqlUpdateApplicationStatus = `
		UPDATE applications
		SET    status = $1, updated_at = $2
		WHERE  id = $3
		  AND  status = $4
		  AND  job_id IN (SELECT id FROM jobs WHERE posted_by = $5)`

	sqlCountApplications = `
		SELECT COUNT(*) FROM applications`
)

// ─────────────────────────────────────────────────────────────────────────────
// Insert
// ─────────────────────────────────────────────────────────────────────────────

func (r *applicationRepo) Insert(ctx context.Context, p models.SubmitApplicationParams) (*models.Application, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	res, err := r.q.Exec(ctx, sqlInsertApplication,
		id, p.ApplicantID, p.Name, p.Email, p.ResumeURL, p.CoverLetter,
		string(models.StatusPending), now, p.JobID, string(models.ListingActive),
	)
	if err != nil {
		return nil, fmt.Errorf("repo/application: insert: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, r.submitDenied(ctx, p.JobID, p.ApplicantID)
	}
	return r.GetByID(ctx, id)
}

func (r *applicationRepo) submitDenied(ctx context.Context, jobID, applicantID string) error {
	listing, err := NewListingRepo(r.q).GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if listing.Status != models.ListingActive {
		return fmt.Errorf("repo/application: %s: %w", jobID, ErrListingClosed)
	}
	return fmt.Errorf("repo/application: %s is not a job seeker: %w", applicantID, ErrProfileRequired)
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*models.Application, error) {
	return scanApplication(r.q.QueryRow(ctx, sqlGetApplication, id))
}

func (r *applicationRepo) ListForJob(ctx context.Context, jobID, callerID string) ([]*models.Application, error) {
	poster, err := r.poster(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if poster != callerID {
		return nil, fmt.Errorf("repo/application: job %s: %w", jobID, ErrForbidden)
	}
	return r.list(ctx, sqlListApplicationsForJob, jobID, callerID)
}

func (r *applicationRepo) ListForApplicant(ctx context.Context, applicantID string) ([]*models.Application, error) {
	return r.list(ctx, sqlListApplicationsForApplicant, applicantID)
}

func (r *applicationRepo) list(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repo/application: list: %w", err)
	}
	defer rows.Close()

	apps := make([]*models.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (r *applicationRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, sqlCountApplications).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo/application: count: %w", err)
	}
	return n, nil
}

func (r *applicationRepo) poster(ctx context.Context, jobID string) (string, error) {
	var poster string
	if err := r.q.QueryRow(ctx, sqlJobPoster, jobID).Scan(&poster); err != nil {
		return "", fmt.Errorf("repo/application: job %s: %w", jobID, err)
	}
	return poster, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateStatus
// ─────────────────────────────────────────────────────────────────────────────

// UpdateStatus is a conditional write: it only matches a pending row whose
// listing the reviewer posted, so concurrent reviewers cannot move an
// application out of a terminal state. When nothing matched, the row is read
// back to report db.ErrNotFound, ErrForbidden or ErrInvalidTransition.
func (r *applicationRepo) UpdateStatus(ctx context.Context, p models.UpdateStatusParams) (*models.Application, error) {
	if !models.StatusPending.CanTransitionTo(p.Status) {
		return nil, fmt.Errorf("repo/application: pending -> %s: %w", p.Status, ErrInvalidTransition)
	}

	res, err := r.q.Exec(ctx, sqlUpdateApplicationStatus,
		string(p.Status), time.Now().UTC(), p.ID, string(models.StatusPending), p.ReviewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("repo/application: update status: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return r.GetByID(ctx, p.ID)
	}

	current, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	poster, err := r.poster(ctx, current.JobID)
	if err != nil && !db.IsNotFound(err) {
		return nil, err
	}
	if poster != p.ReviewerID {
		return nil, fmt.Errorf("repo/application: %s: %w", p.ID, ErrForbidden)
	}
	return nil, fmt.Errorf("repo/application: %s -> %s: %w", current.Status, p.Status, ErrInvalidTransition)
}

// ─────────────────────────────────────────────────────────────────────────────
// scanApplication
// ─────────────────────────────────────────────────────────────────────────────

func scanApplication(s scanner) (*models.Application, error) {
	var (
		a      models.Application
		status string
	)
	err := s.Scan(
		&a.ID, &a.JobID, &a.JobTitle, &a.CompanyName, &a.ApplicantID, &a.Name, &a.Email,
		&a.ResumeURL, &a.CoverLetter, &status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("repo/application: %w", err)
	}
	a.Status = models.ApplicationStatus(status)
	return &a, nil
}

var _ ApplicationRepository = (*applicationRepo)(nil)
