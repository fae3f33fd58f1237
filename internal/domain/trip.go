// Package domain contains the core data types for the Wayfare application.
// This package has no dependencies beyond uuid and is imported by every other
// internal package (itinerary, lifecycle, repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// WaypointType classifies a waypoint's role within an itinerary.
// It is a closed enumeration: values outside the four constants below are
// rejected at the decoding boundary (see ParseWaypointType), never stored.
type WaypointType string

const (
	WaypointStart      WaypointType = "start"
	WaypointEnd        WaypointType = "end"
	WaypointStop       WaypointType = "stop"
	WaypointAttraction WaypointType = "attraction"
)

// Valid reports whether t is one of the four known waypoint types.
func (t WaypointType) Valid() bool {
	switch t {
	case WaypointStart, WaypointEnd, WaypointStop, WaypointAttraction:
		return true
	}
	return false
}

// ParseWaypointType converts a raw string into a WaypointType.
// Returns an error wrapping ErrValidation for unknown values.
func ParseWaypointType(s string) (WaypointType, error) {
	t := WaypointType(s)
	if !t.Valid() {
		return "", unknownEnum("waypoint type", s)
	}
	return t, nil
}

// Trip represents a planned itinerary: an ordered sequence of waypoints.
// The trip is the top-level aggregate; waypoints (and their hotels) are owned
// by it and are persisted and loaded together.
type Trip struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Waypoints []Waypoint `json:"waypoints"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Waypoint is one entry in a trip's ordered itinerary.
// Position within Trip.Waypoints is itinerary order — reordering the slice
// changes the meaning of the trip.
type Waypoint struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Type        WaypointType `json:"type"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	// Hotels is never nil after validation; a waypoint with no lodging
	// options carries an empty slice.
	Hotels []Hotel `json:"hotels"`
}

// Hotel is a lodging option attached to a single waypoint.
// Hotels are owned exclusively by their parent waypoint; there is no
// cross-waypoint sharing. ID is nil until the hotel has been persisted.
type Hotel struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	Name         string     `json:"name"`
	DetailsLink  string     `json:"detailsLink,omitempty"`
	LocationLink string     `json:"locationLink,omitempty"`
}
