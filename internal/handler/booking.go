package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mkaplan/wayfare/backend/internal/auth"
	"github.com/mkaplan/wayfare/backend/internal/domain"
	"github.com/mkaplan/wayfare/backend/internal/service"
)

// bookingRequest is the request body for creating a booking. Customer
// identity never comes from the body — it is taken from the session, so a
// client cannot book on someone else's behalf.
type bookingRequest struct {
	ExperienceID uuid.UUID `json:"experienceId"`
	Tier         string    `json:"tier"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
}

// transitionRequest is the request body for POST /bookings/{id}/status.
// PaymentConfirmed relays the external payment signal for the
// approved → confirmed transition.
type transitionRequest struct {
	Status           string `json:"status"`
	PaymentConfirmed bool   `json:"paymentConfirmed,omitempty"`
}

// handleCreateBooking handles POST /bookings.
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, err.Error())
		return
	}

	created, err := s.bookings.Create(r.Context(), sess, service.CreateParams{
		ExperienceID: req.ExperienceID,
		TierName:     req.Tier,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// handleListBookings handles GET /bookings, scoped to the session's user.
func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	params := pagination(r)

	bookings, total, err := s.bookings.List(r.Context(), sess, params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, listResponse[domain.Booking]{
		Data:       bookings,
		Pagination: paginationMeta{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// handleGetBooking handles GET /bookings/{id}.
func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	booking, err := s.bookings.Get(r.Context(), sess, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, booking)
}

// handleTransitionBooking handles POST /bookings/{id}/status.
// Lifecycle violations surface as 409 with the original reason; a failed
// catalog lookup surfaces as 502 so clients know to retry.
func (s *Server) handleTransitionBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, err.Error())
		return
	}

	target, err := domain.ParseBookingStatus(req.Status)
	if err != nil {
		requestError(w, validationMessage(err))
		return
	}

	updated, err := s.bookings.Transition(r.Context(), sess, id, target, req.PaymentConfirmed)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}
