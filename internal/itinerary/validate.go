// Package itinerary validates and normalizes trip itineraries.
//
// Validate is a pure function: it performs no I/O and never mutates its
// input. Validation failures are expected, recoverable outcomes returned as
// values, so callers can present the complete list of problems to the user
// in one round trip instead of fixing them one at a time.
package itinerary

import (
	"fmt"
	"strings"

	"github.com/mkaplan/wayfare/backend/internal/domain"
)

// minDescriptionLen is the minimum trimmed length of a waypoint description.
const minDescriptionLen = 10

// FieldError pins a single validation failure to the waypoint and field that
// caused it. Waypoint is the zero-based index into Trip.Waypoints, or -1 for
// trip-level structural problems.
type FieldError struct {
	Waypoint int    `json:"waypoint"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Waypoint < 0 {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("waypoints[%d].%s: %s", e.Waypoint, e.Field, e.Message)
}

// ValidationErrors is the accumulated list of everything wrong with a trip.
// It satisfies errors.Is(err, domain.ErrValidation) so handlers can map it
// to HTTP 422 the same way they map any other validation failure.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return "invalid itinerary: " + strings.Join(msgs, "; ")
}

// Is makes errors.Is(e, domain.ErrValidation) true.
func (e ValidationErrors) Is(target error) bool {
	return target == domain.ErrValidation
}

// Validate checks a candidate trip against the itinerary rules and returns a
// normalized copy on success.
//
// Per-waypoint rules:
//   - name must be non-empty after trimming
//   - description must be at least 10 characters after trimming
//   - type must be one of start, end, stop, attraction
//   - every hotel name must be non-empty after trimming
//
// Structural rules:
//   - the waypoint sequence must be non-empty
//   - exactly one start and exactly one end waypoint
//   - start must be first and end must be last (sequence order is itinerary
//     order, not advisory)
//
// All violations are accumulated and returned together as ValidationErrors;
// the first error never masks the rest.
//
// Normalization trims every text field and materializes nil hotel slices as
// empty, so downstream consumers never distinguish "missing" from "empty".
// Normalization is idempotent: validating an already-normalized trip returns
// an identical result.
func Validate(trip domain.Trip) (domain.Trip, error) {
	var errs ValidationErrors

	if len(trip.Waypoints) == 0 {
		errs = append(errs, FieldError{
			Waypoint: -1,
			Field:    "waypoints",
			Message:  "at least one waypoint is required",
		})
		return domain.Trip{}, errs
	}

	out := trip
	out.Name = strings.TrimSpace(trip.Name)
	out.Waypoints = make([]domain.Waypoint, len(trip.Waypoints))

	for i, wp := range trip.Waypoints {
		norm := wp
		norm.Name = strings.TrimSpace(wp.Name)
		norm.Description = strings.TrimSpace(wp.Description)
		norm.ImageURL = strings.TrimSpace(wp.ImageURL)

		if norm.Name == "" {
			errs = append(errs, FieldError{Waypoint: i, Field: "name", Message: "name is required"})
		}
		if len([]rune(norm.Description)) < minDescriptionLen {
			errs = append(errs, FieldError{
				Waypoint: i,
				Field:    "description",
				Message:  fmt.Sprintf("description must be at least %d characters", minDescriptionLen),
			})
		}
		if !wp.Type.Valid() {
			errs = append(errs, FieldError{
				Waypoint: i,
				Field:    "type",
				Message:  fmt.Sprintf("type must be one of start, end, stop, attraction (got %q)", string(wp.Type)),
			})
		}

		norm.Hotels = make([]domain.Hotel, len(wp.Hotels))
		for j, h := range wp.Hotels {
			hn := h
			hn.Name = strings.TrimSpace(h.Name)
			hn.DetailsLink = strings.TrimSpace(h.DetailsLink)
			hn.LocationLink = strings.TrimSpace(h.LocationLink)
			if hn.Name == "" {
				errs = append(errs, FieldError{
					Waypoint: i,
					Field:    fmt.Sprintf("hotels[%d].name", j),
					Message:  "hotel name is required",
				})
			}
			norm.Hotels[j] = hn
		}

		out.Waypoints[i] = norm
	}

	errs = append(errs, structuralErrors(trip.Waypoints)...)

	if len(errs) > 0 {
		return domain.Trip{}, errs
	}
	return out, nil
}

// structuralErrors enforces the start/end invariants over the whole sequence.
// Position errors are only reported when the counts are right, so a trip with
// no start at all is not also flagged for "start is not first".
func structuralErrors(wps []domain.Waypoint) ValidationErrors {
	var errs ValidationErrors

	starts, ends := 0, 0
	for _, wp := range wps {
		switch wp.Type {
		case domain.WaypointStart:
			starts++
		case domain.WaypointEnd:
			ends++
		}
	}

	switch {
	case starts == 0:
		errs = append(errs, FieldError{Waypoint: -1, Field: "waypoints", Message: "itinerary must contain a start waypoint"})
	case starts > 1:
		errs = append(errs, FieldError{Waypoint: -1, Field: "waypoints", Message: "itinerary must contain exactly one start waypoint"})
	case wps[0].Type != domain.WaypointStart:
		errs = append(errs, FieldError{Waypoint: 0, Field: "type", Message: "first waypoint must be the start"})
	}

	switch {
	case ends == 0:
		errs = append(errs, FieldError{Waypoint: -1, Field: "waypoints", Message: "itinerary must contain an end waypoint"})
	case ends > 1:
		errs = append(errs, FieldError{Waypoint: -1, Field: "waypoints", Message: "itinerary must contain exactly one end waypoint"})
	case wps[len(wps)-1].Type != domain.WaypointEnd:
		errs = append(errs, FieldError{Waypoint: len(wps) - 1, Field: "type", Message: "last waypoint must be the end"})
	}

	return errs
}
