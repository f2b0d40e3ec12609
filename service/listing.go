package service

import (
	"context"
	"strings"

	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/models"
	"github.com/B-Mitchell/JobRecruit/repo"
)

// Listings posts, browses, edits and removes job listings.
type Listings struct{ *deps }

func (s *Listings) Create(ctx context.Context, callerID string, p models.CreateListingParams) (*models.Listing, error) {
	p.PostedBy = callerID
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Salary = strings.TrimSpace(p.Salary)
	p.Location = strings.TrimSpace(p.Location)
	p.CompanyName = strings.TrimSpace(p.CompanyName)
	p.CompanyWebsite = strings.TrimSpace(p.CompanyWebsite)
	if p.JobType == "" {
		p.JobType = models.JobTypeFullTime
	}
	if err := check(s.validate, p); err != nil {
		return nil, err
	}

	l, err := s.repos.Listings.Insert(ctx, p)
	if err != nil {
		return nil, translate(err)
	}
	s.logger.InfoContext(ctx, "service: listing created", "listing", l.ID, "poster", callerID)
	return l, nil
}

// Get returns db.ErrNotFound for an unknown id and ErrProfileRequired when
// the caller has not completed a profile.
func (s *Listings) Get(ctx context.Context, id, callerID string) (*models.Listing, error) {
	l, err := s.repos.Listings.Get(ctx, id, callerID)
	if err != nil {
		return nil, translate(err)
	}
	return l, nil
}

// List browses listings for a caller with a completed profile.
func (s *Listings) List(ctx context.Context, callerID string, f models.ListingFilter) ([]*models.Listing, error) {
	jobs, err := s.repos.Listings.List(ctx, callerID, f.Normalize())
	if err != nil {
		return nil, translate(err)
	}
	return jobs, nil
}

// ListMine returns the listings the caller posted.
func (s *Listings) ListMine(ctx context.Context, callerID string) ([]*models.Listing, error) {
	return s.repos.Listings.ListByPoster(ctx, callerID)
}

// Update applies a partial edit. The write and the read-back run in one
// transaction so the caller sees exactly the row they produced.
func (s *Listings) Update(ctx context.Context, callerID string, p models.UpdateListingParams) (*models.Listing, error) {
	if p.Empty() {
		return nil, invalid("nothing to update")
	}
	for _, f := range []*string{p.Title, p.Description, p.Salary, p.Location, p.CompanyName, p.CompanyWebsite} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	if err := check(s.validate, p); err != nil {
		return nil, err
	}

	var updated *models.Listing
	err := s.db.ExecTx(ctx, func(tx *db.Tx) error {
		var err error
		updated, err = repo.NewListingRepo(tx).Update(ctx, callerID, p)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

// Delete removes a listing. The poster or an admin may delete it;
// applications already submitted to it are kept.
func (s *Listings) Delete(ctx context.Context, id, callerID string) error {
	if err := s.repos.Listings.Delete(ctx, id, callerID); err != nil {
		return translate(err)
	}
	s.logger.InfoContext(ctx, "service: listing deleted", "listing", id, "by", callerID)
	return nil
}
