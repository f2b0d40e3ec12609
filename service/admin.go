package service

import (
	"context"
	"fmt"

	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/models"
	"github.com/B-Mitchell/JobRecruit/repo"
)

// Admin serves the aggregate dashboard. Every read requires the caller's
// profile to carry the admin capability.
type Admin struct{ *deps }

func (s *Admin) authorize(ctx context.Context, callerID string) error {
	p, err := s.repos.Profiles.GetByExternalID(ctx, callerID)
	if db.IsNotFound(err) {
		return fmt.Errorf("%w: %s has no profile", ErrForbidden, callerID)
	}
	if err != nil {
		return err
	}
	if !p.IsAdminUser() {
		return fmt.Errorf("%w: %s is not an admin", ErrForbidden, callerID)
	}
	return nil
}

// Stats counts active listings, profiles and applications.
func (s *Admin) Stats(ctx context.Context, callerID string) (*models.Stats, error) {
	if err := s.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	var (
		st  models.Stats
		err error
	)
	if st.ActiveJobs, err = s.repos.Listings.CountActive(ctx); err != nil {
		return nil, err
	}
	if st.Users, err = s.repos.Profiles.Count(ctx); err != nil {
		return nil, err
	}
	if st.Applications, err = s.repos.Applications.Count(ctx); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Admin) Users(ctx context.Context, callerID string) ([]*models.Profile, error) {
	if err := s.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return s.repos.Profiles.List(ctx)
}

func (s *Admin) Jobs(ctx context.Context, callerID string) ([]*models.Listing, error) {
	if err := s.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return s.repos.Listings.List(ctx, callerID, models.ListingFilter{})
}

// Admins lists every profile holding the admin capability.
func (s *Admin) Admins(ctx context.Context) ([]*models.Profile, error) {
	return s.repos.Profiles.ListAdmins(ctx)
}

// SetAdmin grants or revokes the admin capability for every identity in one
// transaction. An unknown identity aborts the whole change. It is an
// operator action and takes no caller.
func (s *Admin) SetAdmin(ctx context.Context, admin bool, identityIDs ...string) error {
	if len(identityIDs) == 0 {
		return invalid("at least one identity is required")
	}
	err := s.db.ExecTx(ctx, func(tx *db.Tx) error {
		return repo.NewProfileRepo(tx).SetAdmin(ctx, admin, identityIDs...)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "service: admin capability changed", "identities", identityIDs, "admin", admin)
	return nil
}
