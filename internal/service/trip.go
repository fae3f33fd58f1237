// Package service contains the business logic for the Wayfare API.
// Services validate inputs, enforce business rules, and orchestrate repo
// calls. No SQL lives here — services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkaplan/wayfare/backend/internal/domain"
	"github.com/mkaplan/wayfare/backend/internal/itinerary"
	"github.com/mkaplan/wayfare/backend/internal/repo"
)

// TripService implements business logic for trip itineraries.
// Every write runs the full itinerary validator; only normalized trips
// reach the repo.
type TripService struct {
	trips repo.TripRepo
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(trips repo.TripRepo) *TripService {
	return &TripService{trips: trips}
}

// Create validates, normalizes, and persists a new trip.
// Returns itinerary.ValidationErrors (matching domain.ErrValidation) with
// the complete list of problems when the itinerary is rejected.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	normalized, err := validateTrip(trip)
	if err != nil {
		return domain.Trip{}, err
	}

	normalized.ID = uuid.New()
	assignWaypointIDs(normalized.Waypoints)

	result, err := s.trips.Create(ctx, normalized)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single trip aggregate by ID.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	result, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return result, nil
}

// List returns one page of trips plus the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.trips.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// Update validates and persists changes to an existing trip. The waypoint
// sequence is replaced wholesale; waypoints that already carry IDs keep
// them, so identities are stable across edits.
func (s *TripService) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	normalized, err := validateTrip(trip)
	if err != nil {
		return domain.Trip{}, err
	}

	assignWaypointIDs(normalized.Waypoints)

	result, err := s.trips.Update(ctx, normalized)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a trip by ID.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.trips.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// validateTrip runs the itinerary validator plus the trip-level name rule.
func validateTrip(trip domain.Trip) (domain.Trip, error) {
	normalized, err := itinerary.Validate(trip)
	if err != nil {
		return domain.Trip{}, err
	}
	if normalized.Name == "" {
		return domain.Trip{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	return normalized, nil
}

// assignWaypointIDs fills in IDs for waypoints and hotels that don't have
// one yet. Waypoint IDs are assigned at creation and stable across edits;
// hotel IDs are assigned on first persist.
func assignWaypointIDs(wps []domain.Waypoint) {
	for i := range wps {
		if wps[i].ID == uuid.Nil {
			wps[i].ID = uuid.New()
		}
		for j := range wps[i].Hotels {
			if wps[i].Hotels[j].ID == nil {
				id := uuid.New()
				wps[i].Hotels[j].ID = &id
			}
		}
	}
}
