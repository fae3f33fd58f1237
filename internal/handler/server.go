// Package handler implements the HTTP handlers for the Wayfare API.
// All handlers are methods on Server; they decode requests, call the
// service layer, and map errors to status codes. Methods are split into
// resource-specific files (trip.go, experience.go, booking.go) but all
// share the same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkaplan/wayfare/backend/internal/auth"
	"github.com/mkaplan/wayfare/backend/internal/domain"
	"github.com/mkaplan/wayfare/backend/internal/service"
	"github.com/mkaplan/wayfare/backend/spec"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExperienceServicer defines the catalog operations the experience handlers
// depend on.
type ExperienceServicer interface {
	Search(ctx context.Context, f domain.Filters, p domain.PaginationParams) ([]domain.Experience, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Experience, error)
}

// BookingServicer defines the booking operations the booking handlers
// depend on. Every method takes the caller's session: bookings are always
// scoped to the authenticated customer.
type BookingServicer interface {
	Create(ctx context.Context, sess auth.Session, p service.CreateParams) (domain.Booking, error)
	Get(ctx context.Context, sess auth.Session, id uuid.UUID) (domain.Booking, error)
	List(ctx context.Context, sess auth.Session, p domain.PaginationParams) ([]domain.Booking, int64, error)
	Transition(ctx context.Context, sess auth.Session, id uuid.UUID, target domain.BookingStatus, paymentConfirmed bool) (domain.Booking, error)
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	trips       TripServicer
	experiences ExperienceServicer
	bookings    BookingServicer
	sessions    auth.SessionStore
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, experiences ExperienceServicer, bookings BookingServicer, sessions auth.SessionStore) *Server {
	return &Server{trips: trips, experiences: experiences, bookings: bookings, sessions: sessions}
}

// Routes returns the chi router for the full API surface.
// Booking routes require a session; trips and the catalog are public.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/openapi.yaml", s.handleOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.handleCreateTrip)
		r.Get("/", s.handleListTrips)
		r.Get("/{id}", s.handleGetTrip)
		r.Put("/{id}", s.handleUpdateTrip)
		r.Delete("/{id}", s.handleDeleteTrip)
	})

	r.Route("/experiences", func(r chi.Router) {
		r.Get("/", s.handleSearchExperiences)
		r.Get("/{id}", s.handleGetExperience)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Use(auth.RequireSession(s.sessions))
		r.Post("/", s.handleCreateBooking)
		r.Get("/", s.handleListBookings)
		r.Get("/{id}", s.handleGetBooking)
		r.Post("/{id}/status", s.handleTransitionBooking)
	})

	return r
}

// handleHealth reports liveness. It returns 200 as long as the process is
// serving; database health is the load balancer's concern, not this probe's.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleOpenAPI serves the embedded API specification, keeping the spec and
// the running code in sync by construction.
func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(spec.OpenAPI)
}

// ---- shared helpers --------------------------------------------------------

// respondJSON writes v as a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into dst, rejecting unknown fields so
// client typos surface as 422s instead of silently dropped data.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathID parses the {id} URL parameter as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.New("invalid id: must be a UUID")
	}
	return id, nil
}

// pagination builds PaginationParams from the optional ?page= and ?limit=
// query parameters. Malformed values fall back to defaults rather than
// erroring — pagination is never worth failing a read for.
func pagination(r *http.Request) domain.PaginationParams {
	var page, limit *int
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = &v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = &v
	}
	return domain.NewPaginationParams(page, limit)
}

// paginationMeta is the pagination block included in list responses.
type paginationMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// listResponse is the envelope for all paginated list endpoints.
type listResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination paginationMeta `json:"pagination"`
}
