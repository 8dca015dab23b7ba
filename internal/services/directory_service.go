package services

import (
	"context"
	"errors"
	"fmt"

	"loadbook/internal/core"
)

// DirectoryService covers the address book and the singleton driver profile.
type DirectoryService struct {
	companies CompanyStore
	profile   ProfileStore
}

func NewDirectoryService(companies CompanyStore, profile ProfileStore) *DirectoryService {
	return &DirectoryService{
		companies: companies,
		profile:   profile,
	}
}

func (s *DirectoryService) ListCompanies(ctx context.Context) ([]core.Company, error) {
	return s.companies.GetCompanies(ctx)
}

func (s *DirectoryService) GetCompany(ctx context.Context, id int64) (core.Company, error) {
	return s.companies.GetCompany(ctx, id)
}

func (s *DirectoryService) SaveCompany(ctx context.Context, c *core.Company) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.companies.SaveCompany(ctx, c)
}

func (s *DirectoryService) DeleteCompany(ctx context.Context, id int64) error {
	return s.companies.DeleteCompany(ctx, id)
}

// Profile returns the saved profile, or an empty one when none exists yet.
// The profile screen always renders; a missing row is not an error there.
func (s *DirectoryService) Profile(ctx context.Context) (core.UserProfile, error) {
	p, err := s.profile.GetUserProfile(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return core.UserProfile{ID: core.ProfileID}, nil
	}
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *DirectoryService) SaveProfile(ctx context.Context, p *core.UserProfile) error {
	return s.profile.SaveUserProfile(ctx, p)
}
