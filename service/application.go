package service

import (
	"context"
	"strings"

	"github.com/B-Mitchell/JobRecruit/models"
)

// Applications handles submission and review.
type Applications struct{ *deps }

// Submit applies to jobID on behalf of the caller. The same job seeker may
// apply to one listing more than once.
func (s *Applications) Submit(ctx context.Context, callerID, jobID string, p models.SubmitApplicationParams) (*models.Application, error) {
	p.JobID = jobID
	p.ApplicantID = callerID
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.ResumeURL = strings.TrimSpace(p.ResumeURL)
	p.CoverLetter = strings.TrimSpace(p.CoverLetter)
	if err := check(s.validate, p); err != nil {
		return nil, err
	}

	a, err := s.repos.Applications.Insert(ctx, p)
	if err != nil {
		return nil, translate(err)
	}
	s.logger.InfoContext(ctx, "service: application submitted", "application", a.ID, "listing", jobID, "applicant", callerID)
	return a, nil
}

// ListForJob returns the applications to a listing the caller posted.
func (s *Applications) ListForJob(ctx context.Context, jobID, callerID string) ([]*models.Application, error) {
	apps, err := s.repos.Applications.ListForJob(ctx, jobID, callerID)
	return apps, translate(err)
}

// ListMine returns the caller's own applications, newest first.
func (s *Applications) ListMine(ctx context.Context, callerID string) ([]*models.Application, error) {
	return s.repos.Applications.ListForApplicant(ctx, callerID)
}

// UpdateStatus approves or rejects a pending application.
func (s *Applications) UpdateStatus(ctx context.Context, p models.UpdateStatusParams) (*models.Application, error) {
	if err := check(s.validate, p); err != nil {
		return nil, err
	}
	a, err := s.repos.Applications.UpdateStatus(ctx, p)
	if err != nil {
		return nil, translate(err)
	}
	s.logger.InfoContext(ctx, "service: application reviewed", "application", a.ID, "status", a.Status, "by", p.ReviewerID)
	return a, nil
}
