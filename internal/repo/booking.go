package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mkaplan/wayfare/backend/internal/domain"
)

// BookingRepo defines the persistence operations for bookings.
// Bookings are never deleted — terminal statuses preserve the audit trail —
// so the interface deliberately has no Delete.
type BookingRepo interface {
	// Create inserts a new booking and returns the persisted record.
	Create(ctx context.Context, b domain.Booking) (domain.Booking, error)

	// GetByID retrieves a single booking by its UUID primary key.
	// Returns domain.ErrNotFound if no booking with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Booking, error)

	// ListByCustomer returns one page of a customer's bookings, newest
	// first, plus the total count for pagination.
	ListByCustomer(ctx context.Context, email string, p domain.PaginationParams) ([]domain.Booking, int64, error)

	// UpdateStatus moves a booking from expected to target status with an
	// optimistic check: the update only applies if the stored status still
	// equals expected. Returns domain.ErrConflict when a concurrent writer
	// got there first, domain.ErrNotFound when the booking does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, target domain.BookingStatus) (domain.Booking, error)
}

// pgBookingRepo is the Postgres implementation of BookingRepo.
type pgBookingRepo struct {
	db db
}

// NewBookingRepo constructs a BookingRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewBookingRepo(db db) BookingRepo {
	return &pgBookingRepo{db: db}
}

const bookingColumns = `id, customer_name, customer_email, experience_id, experience_title,
		booking_date, start_date, end_date, tier_name, tier_price, status`

func (r *pgBookingRepo) Create(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	const q = `
		INSERT INTO bookings (id, customer_name, customer_email, experience_id, experience_title,
			booking_date, start_date, end_date, tier_name, tier_price, status)
		VALUES (@id, @customer_name, @customer_email, @experience_id, @experience_title,
			@booking_date, @start_date, @end_date, @tier_name, @tier_price, @status)
		RETURNING ` + bookingColumns

	args := pgx.NamedArgs{
		"id":               b.ID,
		"customer_name":    b.CustomerName,
		"customer_email":   b.CustomerEmail,
		"experience_id":    b.ExperienceID,
		"experience_title": b.ExperienceTitle,
		"booking_date":     b.BookingDate,
		"start_date":       b.StartDate,
		"end_date":         b.EndDate,
		"tier_name":        b.Tier.Name,
		"tier_price":       b.Tier.Price,
		"status":           string(b.Status),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanBooking(row)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	const q = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanBooking(row)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgBookingRepo) ListByCustomer(ctx context.Context, email string, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	const countQ = `SELECT count(*) FROM bookings WHERE customer_email = @email`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"email": email}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.BookingRepo.ListByCustomer: count: %w", err)
	}

	const q = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE customer_email = @email
		ORDER BY booking_date DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"email": email, "limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.BookingRepo.ListByCustomer: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.BookingRepo.ListByCustomer: scan: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.BookingRepo.ListByCustomer: rows: %w", err)
	}

	return bookings, total, nil
}

func (r *pgBookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected, target domain.BookingStatus) (domain.Booking, error) {
	const q = `
		UPDATE bookings
		SET status = @target
		WHERE id = @id AND status = @expected
		RETURNING ` + bookingColumns

	args := pgx.NamedArgs{"id": id, "expected": string(expected), "target": string(target)}
	row := r.db.QueryRow(ctx, q, args)
	result, err := scanBooking(row)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.UpdateStatus: %w", err)
	}

	// No row matched: either the booking is gone or a concurrent transition
	// already moved it. Distinguish the two for the caller.
	const check = `SELECT count(*) FROM bookings WHERE id = @id`
	var n int64
	if err := r.db.QueryRow(ctx, check, pgx.NamedArgs{"id": id}).Scan(&n); err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.UpdateStatus: check: %w", err)
	}
	if n == 0 {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.UpdateStatus: %w", domain.ErrNotFound)
	}
	return domain.Booking{}, fmt.Errorf("repo.BookingRepo.UpdateStatus: status changed concurrently: %w", domain.ErrConflict)
}

// scanBooking maps a bookings-table row into a domain.Booking.
// A missing row becomes domain.ErrNotFound.
func scanBooking(s scanner) (domain.Booking, error) {
	var (
		b      domain.Booking
		status string
	)
	err := s.Scan(&b.ID, &b.CustomerName, &b.CustomerEmail, &b.ExperienceID, &b.ExperienceTitle,
		&b.BookingDate, &b.StartDate, &b.EndDate, &b.Tier.Name, &b.Tier.Price, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Booking{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	b.Status = domain.BookingStatus(status)
	return b, nil
}
