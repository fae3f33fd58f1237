package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mkaplan/wayfare/backend/internal/domain"
)

// tripRequest is the request body for creating or updating a trip.
// Waypoint types arrive as raw strings and are passed through to the
// itinerary validator untouched, so an invalid type is reported alongside
// the other field errors instead of aborting the decode.
type tripRequest struct {
	Name      string            `json:"name"`
	Waypoints []waypointRequest `json:"waypoints"`
}

type waypointRequest struct {
	ID          *uuid.UUID     `json:"id,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	Hotels      []hotelRequest `json:"hotels,omitempty"`
}

type hotelRequest struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	Name         string     `json:"name"`
	DetailsLink  string     `json:"detailsLink,omitempty"`
	LocationLink string     `json:"locationLink,omitempty"`
}

// toDomain converts the request body into a domain.Trip, preserving any
// IDs the client sent so waypoint identity survives edits.
func (req tripRequest) toDomain(id uuid.UUID) domain.Trip {
	trip := domain.Trip{
		ID:        id,
		Name:      req.Name,
		Waypoints: make([]domain.Waypoint, len(req.Waypoints)),
	}
	for i, wp := range req.Waypoints {
		out := domain.Waypoint{
			Name:        wp.Name,
			Description: wp.Description,
			Type:        domain.WaypointType(wp.Type),
			ImageURL:    wp.ImageURL,
			Hotels:      make([]domain.Hotel, len(wp.Hotels)),
		}
		if wp.ID != nil {
			out.ID = *wp.ID
		}
		for j, h := range wp.Hotels {
			out.Hotels[j] = domain.Hotel{
				ID:           h.ID,
				Name:         h.Name,
				DetailsLink:  h.DetailsLink,
				LocationLink: h.LocationLink,
			}
		}
		trip.Waypoints[i] = out
	}
	return trip
}

// handleCreateTrip handles POST /trips.
func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, err.Error())
		return
	}

	created, err := s.trips.Create(r.Context(), req.toDomain(uuid.Nil))
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// handleListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	params := pagination(r)

	trips, total, err := s.trips.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, listResponse[domain.Trip]{
		Data:       trips,
		Pagination: paginationMeta{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// handleGetTrip handles GET /trips/{id}.
func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, trip)
}

// handleUpdateTrip handles PUT /trips/{id}.
func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		requestError(w, err.Error())
		return
	}

	updated, err := s.trips.Update(r.Context(), req.toDomain(id))
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// handleDeleteTrip handles DELETE /trips/{id}.
func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	if err := s.trips.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
