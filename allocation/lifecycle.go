/*
lifecycle.go - Allocation status state machine

PURPOSE:
  Governs which status transitions are legal and derives the
  wall-clock-correct status for a booking:

      Pending --> Active --> Completed   (driven by time)
         \           \
          +--> Cancelled <--+            (explicit action, sticky)

  Completed and Cancelled are terminal.

LAZY vs EAGER:
  EffectiveStatus derives the time-driven status at read time, so
  readers never observe a Pending booking whose window has started or
  an Active booking whose window has ended. A background sweep
  (api/sweeper.go) additionally persists the same advancement so stored
  rows converge. Both paths are idempotent and agree by construction.

SEE ALSO:
  - manager.go:     Uses CanTransition for cancellation
  - availability.go: Uses EffectiveStatus before overlap probing
*/
package allocation

import "time"

// CanTransition reports whether an explicit move from one status to
// another is legal. Time-driven advancement (Pending->Active->Completed)
// and explicit cancellation are the only legal moves.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusActive || to == StatusCompleted || to == StatusCancelled
	case StatusActive:
		return to == StatusCompleted || to == StatusCancelled
	default:
		// Completed and Cancelled are terminal.
		return false
	}
}

// EffectiveStatus derives the status an allocation should have at the
// given instant. Cancelled is sticky; otherwise the window decides.
// Idempotent: applying it twice with the same now changes nothing.
func EffectiveStatus(a Allocation, now time.Time) Status {
	if a.Status == StatusCancelled {
		return StatusCancelled
	}
	switch {
	case !now.Before(a.Window.End):
		return StatusCompleted
	case !now.Before(a.Window.Start):
		return StatusActive
	default:
		return StatusPending
	}
}

// InitialStatus returns the status a freshly confirmed booking starts
// in: normally Pending, but Active when now is already inside the
// window (confirmations for a slot starting "right now").
func InitialStatus(w Window, now time.Time) Status {
	if w.Contains(now) {
		return StatusActive
	}
	return StatusPending
}
