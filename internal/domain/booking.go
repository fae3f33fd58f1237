package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a booking.
// It is a closed enumeration; ParseBookingStatus rejects anything else at
// the boundary. The string values are part of the wire contract.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusApproved  BookingStatus = "approved"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// Valid reports whether s is one of the five known booking statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
// Bookings are never deleted; they end up in a terminal status instead,
// preserving an audit trail.
func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ParseBookingStatus converts a raw string into a BookingStatus.
// Returns an error wrapping ErrValidation for unknown values.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(raw)
	if !s.Valid() {
		return "", unknownEnum("booking status", raw)
	}
	return s, nil
}

// Tier is the pricing tier snapshot stored on a booking.
// It is a copy taken at booking time, deliberately decoupled from the live
// experience catalog so later tier edits never alter historical bookings.
type Tier struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Booking is a customer's reservation against an experience tier.
type Booking struct {
	ID              uuid.UUID     `json:"id"`
	CustomerName    string        `json:"customerName"`
	CustomerEmail   string        `json:"customerEmail"`
	ExperienceID    uuid.UUID     `json:"experienceId"`
	ExperienceTitle string        `json:"experienceTitle"` // denormalized at booking time
	BookingDate     time.Time     `json:"bookingDate"`
	StartDate       time.Time     `json:"startDate"`
	EndDate         time.Time     `json:"endDate"`
	Tier            Tier          `json:"tier"`
	Status          BookingStatus `json:"status"`
}
