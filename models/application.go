package models

import "time"

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransitionTo is the whole lifecycle: pending moves once to approved or
// rejected and stays there.
func (s ApplicationStatus) CanTransitionTo(to ApplicationStatus) bool {
	return s == StatusPending && to.Terminal()
}

// Application is a row of the "applications" table. JobTitle and
// CompanyName are copied from the listing at submission time.
type Application struct {
	ID          string            `json:"id"`
	JobID       string            `json:"job_id"`
	JobTitle    string            `json:"job_title"`
	CompanyName string            `json:"company_name"`
	ApplicantID string            `json:"applicant_id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	ResumeURL   string            `json:"resume_url"`
	CoverLetter string            `json:"cover_letter"`
	Status      ApplicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CanReview reports whether review controls should still be offered.
func (a *Application) CanReview() bool { return !a.Status.Terminal() }

// SubmitApplicationParams is a job seeker's submission. ApplicantID is the
// caller's verified identity.
type SubmitApplicationParams struct {
	JobID       string `json:"-" validate:"required,max=64"`
	ApplicantID string `json:"-" validate:"required,max=128"`
	Name        string `json:"name" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email,max=320"`
	ResumeURL   string `json:"resume_url" validate:"required,url,max=2048"`
	CoverLetter string `json:"cover_letter" validate:"required"`
}

// UpdateStatusParams moves an application out of pending. ReviewerID must
// be the identity that posted the application's listing.
type UpdateStatusParams struct {
	ID         string            `json:"-" validate:"required"`
	ReviewerID string            `json:"-" validate:"required"`
	Status     ApplicationStatus `json:"status" validate:"required,oneof=approved rejected"`
}
