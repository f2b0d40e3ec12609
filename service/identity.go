package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/models"
)

// Identity is what the auth provider vouches for: a stable id and an email.
type Identity struct {
	ID    string
	Email string
}

// Identities resolves a verified identity to its profile.
type Identities struct{ *deps }

// Resolve returns the caller's profile. A nil profile with a nil error means
// the identity is signed in but has not completed a profile yet.
func (s *Identities) Resolve(ctx context.Context, identityID string) (*models.Profile, error) {
	if strings.TrimSpace(identityID) == "" {
		return nil, invalid("identity id is required")
	}
	p, err := s.repos.Profiles.GetByExternalID(ctx, identityID)
	if db.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service: resolve %s: %w", identityID, err)
	}
	return p, nil
}

// Profiles completes a profile once per identity.
type Profiles struct{ *deps }

// Complete records the caller's role and role-specific details. Exactly the
// variant matching params.Role must be present. Email always comes from the
// verified identity.
func (s *Profiles) Complete(ctx context.Context, who Identity, params models.CompleteProfileParams) (*models.Profile, error) {
	params.ExternalID = who.ID
	params.Email = strings.TrimSpace(who.Email)
	params.Name = strings.TrimSpace(params.Name)

	// Nested details are validated along with params.
	switch params.Role {
	case models.RoleJobSeeker:
		if params.JobSeeker == nil || params.Employer != nil {
			return nil, invalid("a job_seeker profile carries job_seeker details only")
		}
		d := *params.JobSeeker
		d.Skills = trimSkills(d.Skills)
		d.Education = strings.TrimSpace(d.Education)
		d.Experience = strings.TrimSpace(d.Experience)
		d.ResumeURL = strings.TrimSpace(d.ResumeURL)
		params.JobSeeker = &d
	case models.RoleEmployer:
		if params.Employer == nil || params.JobSeeker != nil {
			return nil, invalid("an employer profile carries employer details only")
		}
		d := *params.Employer
		d.CompanyName = strings.TrimSpace(d.CompanyName)
		d.CompanyProfile = strings.TrimSpace(d.CompanyProfile)
		d.CompanyWebsite = strings.TrimSpace(d.CompanyWebsite)
		params.Employer = &d
	}
	if err := check(s.validate, params); err != nil {
		return nil, err
	}

	p, err := s.repos.Profiles.Insert(ctx, params)
	if db.IsDuplicateKey(err) {
		return nil, fmt.Errorf("%w: %w", ErrProfileExists, err)
	}
	if err != nil {
		return nil, translate(err)
	}
	s.logger.InfoContext(ctx, "service: profile completed", "identity", p.ExternalID, "role", p.Role)
	return p, nil
}

// trimSkills drops blank entries. A comma inside a skill is left for the
// validator to reject, since the column stores the list comma-joined.
func trimSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
