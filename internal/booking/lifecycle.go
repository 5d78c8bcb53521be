package booking

import (
	"fmt"
	"time"

	"fleet-rental-backend/internal/model"
)

// Booking lifecycle states, persisted as strings.
const (
	StatePending   = "PENDING"   // reserved, awaiting payment/approval signal
	StateConfirmed = "CONFIRMED" // approved, awaiting handover
	StateActive    = "ACTIVE"    // car is out with the customer
	StateReturned  = "RETURNED"  // terminal
	StateCancelled = "CANCELLED" // terminal
)

// allowedTransitions is the booking state graph. Terminal states map to an
// empty list; anything not listed fails with ErrInvalidState.
var allowedTransitions = map[string][]string{
	StatePending:   {StateConfirmed, StateCancelled},
	StateConfirmed: {StateActive, StateCancelled},
	StateActive:    {StateReturned},
	StateReturned:  {},
	StateCancelled: {},
}

// CanTransition reports whether from -> to is a legal transition. There are
// no self-loops: re-applying the current state is rejected, so a second
// cancel of a cancelled booking surfaces as an error rather than a no-op.
func CanTransition(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// applyTransition moves a booking to the target state and stamps the
// matching timestamp. The caller persists the change.
func applyTransition(b *model.Booking, to string, now time.Time) error {
	if !CanTransition(b.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, b.State, to)
	}
	b.State = to
	switch to {
	case StateConfirmed:
		if b.ConfirmedAt == nil {
			t := now
			b.ConfirmedAt = &t
		}
	case StateActive:
		if b.HandedAt == nil {
			t := now
			b.HandedAt = &t
		}
	case StateReturned:
		if b.ReturnedAt == nil {
			t := now
			b.ReturnedAt = &t
		}
	case StateCancelled:
		if b.CancelledAt == nil {
			t := now
			b.CancelledAt = &t
		}
	}
	return nil
}
