package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mkaplan/wayfare/backend/internal/domain"
	"github.com/mkaplan/wayfare/backend/internal/itinerary"
	"github.com/mkaplan/wayfare/backend/internal/lifecycle"
)

// errorDetail is the body of every non-2xx response.
// Fields is only populated for itinerary validation failures, where the
// client needs the full accumulated list to fix the form in one pass.
type errorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Fields  []itinerary.FieldError `json:"fields,omitempty"`
}

// errorResponse wraps errorDetail to match the wire format.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// writeError maps a service-layer error onto an HTTP status and body.
//
//	ValidationErrors / ErrValidation → 422 (recoverable: fix and resubmit)
//	ErrNotFound                      → 404
//	LifecycleError / ErrConflict     → 409 (state changed; not retryable as-is)
//	DependencyError                  → 502 (retryable with backoff)
//	anything else                    → 500, logged
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs itinerary.ValidationErrors
	if errors.As(err, &verrs) {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: errorDetail{
			Code:    "validation_error",
			Message: "itinerary is invalid",
			Fields:  verrs,
		}})
		return
	}

	var lerr *lifecycle.LifecycleError
	if errors.As(err, &lerr) {
		respondJSON(w, http.StatusConflict, errorResponse{Error: errorDetail{
			Code:    "lifecycle_error",
			Message: lerr.Error(),
		}})
		return
	}

	var derr *lifecycle.DependencyError
	if errors.As(err, &derr) {
		respondJSON(w, http.StatusBadGateway, errorResponse{Error: errorDetail{
			Code:    "dependency_unavailable",
			Message: "a dependency is temporarily unavailable; retry later",
		}})
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: errorDetail{
			Code:    "validation_error",
			Message: validationMessage(err),
		}})
	case errors.Is(err, domain.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: errorDetail{
			Code:    "not_found",
			Message: "resource not found",
		}})
	case errors.Is(err, domain.ErrConflict):
		respondJSON(w, http.StatusConflict, errorResponse{Error: errorDetail{
			Code:    "conflict",
			Message: "the resource changed concurrently; reload and retry",
		}})
	default:
		slog.ErrorContext(r.Context(), "internal error", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: errorDetail{
			Code:    "internal",
			Message: "internal server error",
		}})
	}
}

// requestError writes a 422 for requests rejected before reaching the
// service layer (malformed body, bad UUID, unknown enum value).
func requestError(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: errorDetail{
		Code:    "validation_error",
		Message: message,
	}})
}

// validationMessage extracts the human-readable part from a wrapped
// domain.ErrValidation, e.g.
// "service.BookingService.Create: validation error: endDate must not be
// before startDate" → "endDate must not be before startDate".
func validationMessage(err error) string {
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}
