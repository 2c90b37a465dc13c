package bookings

import (
	"context"
	"fmt"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

func (s *Service) ListApartments(ctx context.Context) ([]models.Apartment, error) {
	out, err := s.store.ListApartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list apartments: %w", err)
	}
	return out, nil
}

func (s *Service) GetApartment(ctx context.Context, id string) (models.Apartment, error) {
	a, err := s.store.GetApartment(ctx, id)
	if err != nil {
		return models.Apartment{}, fmt.Errorf("get apartment: %w", err)
	}
	return a, nil
}

// CreateApartment validates and stores a new apartment.
func (s *Service) CreateApartment(ctx context.Context, a models.Apartment) (models.Apartment, error) {
	if err := a.Validate(); err != nil {
		return models.Apartment{}, err
	}
	if a.Amenities == nil {
		a.Amenities = []string{}
	}
	if a.Images == nil {
		a.Images = []string{}
	}
	now := s.now()
	a.CreatedAt, a.UpdatedAt = now, now

	id, err := s.store.CreateApartment(ctx, a)
	if err != nil {
		return models.Apartment{}, fmt.Errorf("store apartment: %w", err)
	}
	a.ID = id
	return a, nil
}

// UpdateApartment applies patch to a stored apartment.
func (s *Service) UpdateApartment(ctx context.Context, id string, patch models.ApartmentPatch) (models.Apartment, error) {
	current, err := s.GetApartment(ctx, id)
	if err != nil {
		return models.Apartment{}, err
	}
	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return models.Apartment{}, err
	}
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateApartment(ctx, updated); err != nil {
		return models.Apartment{}, fmt.Errorf("store apartment: %w", err)
	}
	return updated, nil
}

// DeleteApartment removes an apartment. Bookings keep their apartment id.
func (s *Service) DeleteApartment(ctx context.Context, id string) error {
	if err := s.store.DeleteApartment(ctx, id); err != nil {
		return fmt.Errorf("delete apartment: %w", err)
	}
	return nil
}
