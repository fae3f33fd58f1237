package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkaplan/wayfare/backend/internal/domain"
	"github.com/mkaplan/wayfare/backend/internal/repo"
)

// ExperienceService implements read access to the experience catalog.
type ExperienceService struct {
	experiences repo.ExperienceRepo
}

// NewExperienceService constructs an ExperienceService backed by the
// provided ExperienceRepo.
func NewExperienceService(experiences repo.ExperienceRepo) *ExperienceService {
	return &ExperienceService{experiences: experiences}
}

// Search returns one page of experiences matching the filters.
// Returns domain.ErrValidation (wrapped) when a min/max range is inverted.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ExperienceService) Search(ctx context.Context, f domain.Filters, p domain.PaginationParams) ([]domain.Experience, int64, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}

	exps, total, err := s.experiences.Search(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ExperienceService.Search: %w", err)
	}
	if exps == nil {
		exps = []domain.Experience{}
	}
	return exps, total, nil
}

// GetByID returns a single experience with its live tiers.
func (s *ExperienceService) GetByID(ctx context.Context, id uuid.UUID) (domain.Experience, error) {
	result, err := s.experiences.GetByID(ctx, id)
	if err != nil {
		return domain.Experience{}, fmt.Errorf("service.ExperienceService.GetByID: %w", err)
	}
	return result, nil
}
