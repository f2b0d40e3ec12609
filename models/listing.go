package models

import (
	"strings"
	"time"
)

// Job types offered by the posting form.
const (
	JobTypeFullTime   = "full-time"
	JobTypePartTime   = "part-time"
	JobTypeContract   = "contract"
	JobTypeInternship = "internship"
)

// ListingStatus marks whether a listing still accepts attention. Only active
// listings count towards the admin "active jobs" figure.
type ListingStatus string

const (
	ListingActive ListingStatus = "active"
	ListingClosed ListingStatus = "closed"
)

// Listing is a row of the "jobs" table.
type Listing struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Salary         string        `json:"salary"`
	Location       string        `json:"location"`
	JobType        string        `json:"job_type"`
	Category       string        `json:"category"`
	CompanyName    string        `json:"company_name"`
	CompanyWebsite string        `json:"company_website,omitempty"`
	PostedBy       string        `json:"posted_by"`
	Status         ListingStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// CreateListingParams holds the fields required to post a listing.
// PostedBy is the caller's verified identity.
type CreateListingParams struct {
	PostedBy       string `json:"-" validate:"required,max=128"`
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description" validate:"required"`
	Salary         string `json:"salary" validate:"required,max=100"`
	Location       string `json:"location" validate:"required,max=200"`
	JobType        string `json:"job_type" validate:"omitempty,oneof=full-time part-time contract internship"`
	Category       string `json:"category" validate:"required,oneof=technology finance healthcare education marketing"`
	CompanyName    string `json:"company_name" validate:"required,max=200"`
	CompanyWebsite string `json:"company_website" validate:"omitempty,url,max=2048"`
}

// UpdateListingParams is a partial update: nil fields are left untouched.
type UpdateListingParams struct {
	ID             string         `json:"-"`
	Title          *string        `json:"title" validate:"omitempty,min=1,max=200"`
	Description    *string        `json:"description" validate:"omitempty,min=1"`
	Salary         *string        `json:"salary" validate:"omitempty,min=1,max=100"`
	Location       *string        `json:"location" validate:"omitempty,min=1,max=200"`
	JobType        *string        `json:"job_type" validate:"omitempty,oneof=full-time part-time contract internship"`
	Category       *string        `json:"category" validate:"omitempty,oneof=technology finance healthcare education marketing"`
	CompanyName    *string        `json:"company_name" validate:"omitempty,min=1,max=200"`
	CompanyWebsite *string        `json:"company_website" validate:"omitempty,url,max=2048"`
	Status         *ListingStatus `json:"status" validate:"omitempty,oneof=active closed"`
}

// Empty reports whether the update would change nothing.
func (p UpdateListingParams) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Salary == nil &&
		p.Location == nil && p.JobType == nil && p.Category == nil &&
		p.CompanyName == nil && p.CompanyWebsite == nil && p.Status == nil
}

// ListingFilter narrows a listing browse. Query is a case-insensitive
// substring matched against title, description or company name; every
// non-empty facet must match exactly. Empty fields match everything.
type ListingFilter struct {
	Query    string `form:"q" json:"q"`
	Category string `form:"category" json:"category"`
	JobType  string `form:"job_type" json:"job_type"`
	Location string `form:"location" json:"location"`
}

// Normalize trims surrounding whitespace from every field.
func (f ListingFilter) Normalize() ListingFilter {
	return ListingFilter{
		Query:    strings.TrimSpace(f.Query),
		Category: strings.TrimSpace(f.Category),
		JobType:  strings.TrimSpace(f.JobType),
		Location: strings.TrimSpace(f.Location),
	}
}

// Matches is the in-memory form of the filter. The SQL built by the listing
// repository must select exactly the listings Matches accepts.
func (f ListingFilter) Matches(l *Listing) bool {
	if q := strings.ToLower(f.Query); q != "" {
		if !strings.Contains(strings.ToLower(l.Title), q) &&
			!strings.Contains(strings.ToLower(l.Description), q) &&
			!strings.Contains(strings.ToLower(l.CompanyName), q) {
			return false
		}
	}
	if f.Category != "" && l.Category != f.Category {
		return false
	}
	if f.JobType != "" && l.JobType != f.JobType {
		return false
	}
	if f.Location != "" && l.Location != f.Location {
		return false
	}
	return true
}
