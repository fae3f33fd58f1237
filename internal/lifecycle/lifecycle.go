// Package lifecycle enforces the booking status state machine.
//
// Transition is a pure decision function: every external signal it depends
// on (current time, tier catalog, payment confirmation) arrives through Env,
// so the decision is deterministic and unit-testable without mocking clocks
// or networks. The caller performs all I/O and persistence around it.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkaplan/wayfare/backend/internal/domain"
)

// TierCatalog reports whether a booking's tier is still purchasable.
// The repo-backed implementation lives in the service layer; tests pass a
// stub. A false result means the tier was removed or the experience is no
// longer available.
type TierCatalog interface {
	IsTierActive(ctx context.Context, experienceID uuid.UUID, tierName string) (bool, error)
}

// Env carries the external signals a transition decision depends on.
// Time is explicit: callers pass "now" rather than the function reading the
// clock, so the same inputs always produce the same decision.
type Env struct {
	Now time.Time

	// Catalog is consulted only for the pending → approved transition.
	Catalog TierCatalog

	// PaymentConfirmed is set by the caller once an external payment or
	// hold confirmation has been received. Consulted only for
	// approved → confirmed.
	PaymentConfirmed bool
}

// LifecycleError reports a transition that is not reachable from the
// booking's current state, or whose precondition is false. It is not
// retryable: nothing short of a state change will make the same call
// succeed. Surfaced verbatim to the caller for user display.
type LifecycleError struct {
	From   domain.BookingStatus
	To     domain.BookingStatus
	Reason string
}

func (e *LifecycleError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot transition booking from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("cannot transition booking from %s to %s", e.From, e.To)
}

// DependencyError reports that a precondition could not be evaluated because
// an external dependency (the tier catalog) failed. Unlike LifecycleError it
// is retryable: callers should retry with backoff rather than treat it as a
// permanent rejection.
type DependencyError struct {
	Err error
}

func (e *DependencyError) Error() string {
	return "booking dependency unavailable: " + e.Err.Error()
}

func (e *DependencyError) Unwrap() error { return e.Err }

// allowed is the legal edge set of the state machine. A target absent from
// its source's list fails before any precondition is evaluated. Terminal
// states (cancelled, completed) have no outgoing edges.
var allowed = map[domain.BookingStatus][]domain.BookingStatus{
	domain.StatusPending:   {domain.StatusApproved, domain.StatusCancelled},
	domain.StatusApproved:  {domain.StatusConfirmed, domain.StatusCancelled},
	domain.StatusConfirmed: {domain.StatusCompleted, domain.StatusCancelled},
	domain.StatusCancelled: {},
	domain.StatusCompleted: {},
}

// canTransition reports whether the edge from → to exists in the table.
func canTransition(from, to domain.BookingStatus) bool {
	for _, t := range allowed[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Transition applies the status change to a copy of the booking and returns
// it. On any failure the original booking is untouched and the returned
// booking is the zero value.
//
// Failure modes are disjoint:
//   - *LifecycleError — the edge does not exist, or its precondition is
//     false given env. Not retryable without a state change.
//   - *DependencyError — the tier catalog could not be consulted. Retryable.
func Transition(ctx context.Context, b domain.Booking, target domain.BookingStatus, env Env) (domain.Booking, error) {
	if !target.Valid() {
		return domain.Booking{}, &LifecycleError{From: b.Status, To: target, Reason: "unknown target status"}
	}
	if !canTransition(b.Status, target) {
		reason := "transition not allowed"
		if b.Status.Terminal() {
			reason = fmt.Sprintf("%s is a terminal status", b.Status)
		}
		return domain.Booking{}, &LifecycleError{From: b.Status, To: target, Reason: reason}
	}

	if err := checkPrecondition(ctx, b, target, env); err != nil {
		return domain.Booking{}, err
	}

	out := b
	out.Status = target
	return out, nil
}

// checkPrecondition evaluates the guard for an edge already known to exist.
func checkPrecondition(ctx context.Context, b domain.Booking, target domain.BookingStatus, env Env) error {
	switch {
	case b.Status == domain.StatusPending && target == domain.StatusApproved:
		if env.Catalog == nil {
			return &DependencyError{Err: errNoCatalog}
		}
		active, err := env.Catalog.IsTierActive(ctx, b.ExperienceID, b.Tier.Name)
		if err != nil {
			return &DependencyError{Err: err}
		}
		if !active {
			return &LifecycleError{From: b.Status, To: target, Reason: fmt.Sprintf("tier %q is no longer offered", b.Tier.Name)}
		}

	case b.Status == domain.StatusApproved && target == domain.StatusConfirmed:
		if !env.PaymentConfirmed {
			return &LifecycleError{From: b.Status, To: target, Reason: "payment has not been confirmed"}
		}

	case b.Status == domain.StatusConfirmed && target == domain.StatusCompleted:
		if !env.Now.After(b.EndDate) {
			return &LifecycleError{From: b.Status, To: target, Reason: "booking end date has not elapsed"}
		}

	case b.Status == domain.StatusConfirmed && target == domain.StatusCancelled:
		// No retroactive cancellation of in-progress or finished trips.
		if !env.Now.Before(b.StartDate) {
			return &LifecycleError{From: b.Status, To: target, Reason: "confirmed bookings can only be cancelled before the start date"}
		}
	}

	// pending → cancelled and approved → cancelled are unconditional.
	return nil
}

var errNoCatalog = errors.New("no tier catalog configured")
