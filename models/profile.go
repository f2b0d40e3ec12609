package models

import (
	"strings"
	"time"
)

// Role is the capability set a profile was completed with. It never changes
// after completion.
type Role string

const (
	RoleJobSeeker Role = "job_seeker"
	RoleEmployer  Role = "employer"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool { return r == RoleJobSeeker || r == RoleEmployer }

// JobSeekerDetails are the fields only a job seeker profile carries.
type JobSeekerDetails struct {
	Skills     []string `json:"skills" validate:"required,min=1,dive,required,max=100,excludes=0x2C"`
	Education  string   `json:"education" validate:"required"`
	Experience string   `json:"experience" validate:"required"`
	ResumeURL  string   `json:"resume_url" validate:"required,url,max=2048"`
}

// EmployerDetails are the fields only an employer profile carries.
type EmployerDetails struct {
	CompanyName    string `json:"company_name" validate:"required,max=200"`
	CompanyProfile string `json:"company_profile" validate:"required"`
	CompanyWebsite string `json:"company_website" validate:"required,url,max=2048"`
}

// Profile is a row of the "users" table, keyed by the identity id issued by
// the external auth provider. Exactly one of JobSeeker and Employer is set,
// matching Role.
type Profile struct {
	ExternalID string            `json:"external_id"`
	Role       Role              `json:"role"`
	Email      string            `json:"email"`
	Name       string            `json:"name"`
	IsAdmin    bool              `json:"is_admin"`
	JobSeeker  *JobSeekerDetails `json:"job_seeker,omitempty"`
	Employer   *EmployerDetails  `json:"employer,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (p *Profile) IsJobSeeker() bool { return p != nil && p.Role == RoleJobSeeker }
func (p *Profile) IsEmployer() bool  { return p != nil && p.Role == RoleEmployer }
func (p *Profile) IsAdminUser() bool { return p != nil && p.IsAdmin }

// CompleteProfileParams is the one-time profile completion input. ExternalID
// and Email come from the verified identity, never from the request body.
type CompleteProfileParams struct {
	ExternalID string            `json:"-" validate:"required,max=128"`
	Email      string            `json:"-" validate:"required,email,max=320"`
	Name       string            `json:"name" validate:"required,max=200"`
	Role       Role              `json:"role" validate:"required,oneof=job_seeker employer"`
	JobSeeker  *JobSeekerDetails `json:"job_seeker,omitempty"`
	Employer   *EmployerDetails  `json:"employer,omitempty"`
}

// JoinSkills renders a skill list for the comma-joined "skills" column. A
// skill must not itself contain a comma; validation rejects those.
func JoinSkills(skills []string) string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ",")
}

// SplitSkills is the inverse of JoinSkills.
func SplitSkills(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
