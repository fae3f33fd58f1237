package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkaplan/wayfare/backend/internal/auth"
	"github.com/mkaplan/wayfare/backend/internal/domain"
	"github.com/mkaplan/wayfare/backend/internal/lifecycle"
	"github.com/mkaplan/wayfare/backend/internal/repo"
)

// transitionAttempts bounds the optimistic-concurrency retry loop in
// Transition. Two concurrent writers resolve on the second pass; more than
// that means the booking is churning and the caller should see the conflict.
const transitionAttempts = 3

// BookingService implements the booking workflow: creating a pending booking
// for an authenticated customer and moving it through the status lifecycle.
// The lifecycle decision itself lives in the lifecycle package; this service
// supplies its inputs (clock, catalog) and persists the outcome.
type BookingService struct {
	bookings repo.BookingRepo
	catalog  repo.ExperienceRepo

	// now is the clock, a field so tests can freeze time.
	now func() time.Time
}

// NewBookingService constructs a BookingService backed by the provided repos.
func NewBookingService(bookings repo.BookingRepo, catalog repo.ExperienceRepo) *BookingService {
	return &BookingService{bookings: bookings, catalog: catalog, now: time.Now}
}

// CreateParams is the customer-supplied part of a new booking. Identity
// comes from the session, never from the request body.
type CreateParams struct {
	ExperienceID uuid.UUID
	TierName     string
	StartDate    time.Time
	EndDate      time.Time
}

// Create books an experience tier for the session's user. The new booking
// starts in pending status with the tier snapshotted (name and price copied)
// so later catalog edits never alter it.
//
// Returns domain.ErrValidation for bad dates or an unknown tier,
// domain.ErrNotFound for an unknown experience, and
// *lifecycle.DependencyError when the catalog cannot be read.
func (s *BookingService) Create(ctx context.Context, sess auth.Session, p CreateParams) (domain.Booking, error) {
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return domain.Booking{}, fmt.Errorf("%w: startDate and endDate are required", domain.ErrValidation)
	}
	if p.EndDate.Before(p.StartDate) {
		return domain.Booking{}, fmt.Errorf("%w: endDate must not be before startDate", domain.ErrValidation)
	}

	exp, err := s.catalog.GetByID(ctx, p.ExperienceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Booking{}, fmt.Errorf("service.BookingService.Create: experience: %w", err)
		}
		return domain.Booking{}, &lifecycle.DependencyError{Err: err}
	}
	if !exp.IsAvailable {
		return domain.Booking{}, fmt.Errorf("%w: experience is not available for booking", domain.ErrValidation)
	}
	tier, ok := exp.FindTier(p.TierName)
	if !ok {
		return domain.Booking{}, fmt.Errorf("%w: experience has no tier %q", domain.ErrValidation, p.TierName)
	}

	booking := domain.Booking{
		ID:              uuid.New(),
		CustomerName:    sess.Name,
		CustomerEmail:   sess.Email,
		ExperienceID:    exp.ID,
		ExperienceTitle: exp.Title,
		BookingDate:     s.now().UTC(),
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		Tier:            domain.Tier{Name: tier.Name, Price: tier.Price},
		Status:          domain.StatusPending,
	}

	result, err := s.bookings.Create(ctx, booking)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", err)
	}
	return result, nil
}

// Get returns one of the session user's bookings by ID.
// Other customers' bookings are reported as not found rather than forbidden,
// so booking IDs don't leak existence.
func (s *BookingService) Get(ctx context.Context, sess auth.Session, id uuid.UUID) (domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Get: %w", err)
	}
	if b.CustomerEmail != sess.Email {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Get: %w", domain.ErrNotFound)
	}
	return b, nil
}

// List returns one page of the session user's bookings, newest first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *BookingService) List(ctx context.Context, sess auth.Session, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	bookings, total, err := s.bookings.ListByCustomer(ctx, sess.Email, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.BookingService.List: %w", err)
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, total, nil
}

// Transition moves a booking to the target status, enforcing the lifecycle
// rules against the booking's currently stored state.
//
// Persistence uses an optimistic status check so two concurrent transitions
// can never both apply: the loser observes the winner's status on re-read
// and fails with the *lifecycle.LifecycleError that status implies.
func (s *BookingService) Transition(ctx context.Context, sess auth.Session, id uuid.UUID, target domain.BookingStatus, paymentConfirmed bool) (domain.Booking, error) {
	env := lifecycle.Env{
		Now:              s.now(),
		Catalog:          s.catalog,
		PaymentConfirmed: paymentConfirmed,
	}

	var lastErr error
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		b, err := s.Get(ctx, sess, id)
		if err != nil {
			return domain.Booking{}, err
		}

		decided, err := lifecycle.Transition(ctx, b, target, env)
		if err != nil {
			return domain.Booking{}, err
		}

		result, err := s.bookings.UpdateStatus(ctx, id, b.Status, decided.Status)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Booking{}, fmt.Errorf("service.BookingService.Transition: %w", err)
		}
		// A concurrent transition won; loop to re-read and re-decide
		// against the state it left behind.
		lastErr = err
	}

	return domain.Booking{}, fmt.Errorf("service.BookingService.Transition: %w", lastErr)
}
