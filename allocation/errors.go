/*
errors.go - Centralized error types for the booking engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps these onto HTTP status codes; nothing in the core
  fails silently and leaves persisted state ambiguous.

ERROR CATEGORIES:
  1. Validation errors   - malformed requests, rejected before any
                           collaborator call
  2. Conflict errors     - overlap detected at confirmation time
                           (retryable: choose another slot)
  3. Dependency timeouts - classifier or persistence slow/unreachable
  4. Not-found errors    - unknown workspace/user/allocation
  5. Authorization       - cancel attempted by a non-owner

USAGE:
  if errors.Is(err, allocation.ErrSlotConflict) {
      // ask the user to re-request suggestions
  }

SEE ALSO:
  - manager.go: produces conflict/authorization/final-state errors
  - ranker.go:  produces validation errors
  - api:        maps errors to HTTP responses
*/
package allocation

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSlotConflict is returned when the requested window overlaps a
	// committed allocation at confirmation time. The suggestion step's
	// filtering is advisory and can be stale; callers should re-request
	// suggestions.
	ErrSlotConflict = errors.New("slot no longer available")

	// ErrWorkspaceNotFound is returned for an unknown workspace id.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrUserNotFound is returned for an unknown user id.
	ErrUserNotFound = errors.New("user not found")

	// ErrAllocationNotFound is returned for an unknown allocation id.
	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrAlreadyFinal is returned when cancelling an allocation that is
	// already Completed or Cancelled. Re-cancelling reports this same
	// failure every time; it never silently succeeds twice.
	ErrAlreadyFinal = errors.New("allocation already in a final state")

	// ErrNotAuthorized is returned when the requester may not act on
	// the allocation (e.g. cancelling someone else's booking).
	ErrNotAuthorized = errors.New("requester not authorized")

	// ErrDependencyTimeout is returned when a persistence call exceeds
	// its deadline during confirmation or cancellation. The operation
	// is retryable; the booking was not silently lost.
	ErrDependencyTimeout = errors.New("dependency timed out")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a malformed request field. Surfaced to the
// caller verbatim, before any collaborator call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError carries the identity of the committed allocation that
// blocked a confirmation.
type ConflictError struct {
	WorkspaceID WorkspaceID
	Window      Window
	BlockedBy   AllocationID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("workspace %s already booked for %s - %s (allocation %s)",
		e.WorkspaceID,
		e.Window.Start.Format("2006-01-02 15:04"),
		e.Window.End.Format("2006-01-02 15:04"),
		e.BlockedBy)
}

func (e *ConflictError) Unwrap() error { return ErrSlotConflict }

// TransitionError describes an illegal lifecycle transition.
type TransitionError struct {
	AllocationID AllocationID
	From, To     Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("allocation %s: cannot transition %s -> %s", e.AllocationID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	if e.From == StatusCompleted || e.From == StatusCancelled {
		return ErrAlreadyFinal
	}
	return nil
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the caller may reasonably retry (with a
// different slot for conflicts, or as-is for timeouts).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSlotConflict) || errors.Is(err, ErrDependencyTimeout)
}

// IsClientError returns true if the error is due to invalid client input
// or an action the client is not allowed to take.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrAlreadyFinal) ||
		errors.Is(err, ErrNotAuthorized)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkspaceNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrAllocationNotFound)
}

// joinFacilities renders a facility list for error and reason strings.
func joinFacilities(names []string) string {
	return strings.Join(names, ", ")
}
