/*
availability.go - Current/scheduled workspace status

PURPOSE:
  Computes what a workspace looks like "right now": Available, Occupied
  until some time, or administratively Unavailable. The administrative
  flag wins unconditionally; otherwise the committed allocations decide.

DEFENSIVE TIE-BREAK:
  The non-overlap invariant guarantees at most one committed window
  contains any instant. If corrupted data presents several, the
  resolver picks the one with the latest end, logs the integrity issue,
  and carries on. Crashing on dirty data would take the whole
  suggestion path down with it.

SEE ALSO:
  - interval.go:  Contains (zero-width probe)
  - lifecycle.go: EffectiveStatus (lazy advancement before probing)
*/
package allocation

import (
	"context"
	"log"
	"time"
)

// =============================================================================
// AVAILABILITY STATUS
// =============================================================================

type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "Available"
	StatusOccupied    AvailabilityStatus = "Occupied"
	StatusUnavailable AvailabilityStatus = "Unavailable"
)

// Availability is the resolved state of one workspace at one instant.
type Availability struct {
	WorkspaceID   WorkspaceID
	Status        AvailabilityStatus
	OccupiedUntil *time.Time // set only when Status == StatusOccupied
}

// =============================================================================
// RESOLVER
// =============================================================================

// ResolveAvailability computes the status of a workspace from its
// committed allocations and the administrative flag. Pure given its
// inputs; the store round-trip lives in Resolver.Resolve.
func ResolveAvailability(ws Workspace, committed []Allocation, now time.Time) Availability {
	if !ws.Available {
		return Availability{WorkspaceID: ws.ID, Status: StatusUnavailable}
	}

	var occupying *Allocation
	for i := range committed {
		a := committed[i]
		// Lazy advancement: a row still stored as Pending/Active may
		// already be Completed by wall clock.
		if s := EffectiveStatus(a, now); s != StatusPending && s != StatusActive {
			continue
		}
		if !a.Window.Contains(now) {
			continue
		}
		if occupying == nil {
			occupying = &a
			continue
		}
		// Should be unreachable given the non-overlap invariant.
		log.Printf("[Availability] integrity: workspace %s has overlapping committed allocations %s and %s at %s",
			ws.ID, occupying.ID, a.ID, now.Format(time.RFC3339))
		if a.Window.End.After(occupying.Window.End) {
			occupying = &a
		}
	}

	if occupying != nil {
		until := occupying.Window.End
		return Availability{WorkspaceID: ws.ID, Status: StatusOccupied, OccupiedUntil: &until}
	}
	return Availability{WorkspaceID: ws.ID, Status: StatusAvailable}
}

// Resolver resolves availability against a store.
type Resolver struct {
	Workspaces  WorkspaceStore
	Allocations AllocationStore

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Resolve loads the workspace and its committed allocations and
// computes the current availability.
func (r *Resolver) Resolve(ctx context.Context, id WorkspaceID) (Availability, error) {
	ws, err := r.Workspaces.GetWorkspace(ctx, id)
	if err != nil {
		return Availability{}, err
	}
	if ws == nil {
		return Availability{}, ErrWorkspaceNotFound
	}

	committed, err := r.Allocations.ListCommitted(ctx, id)
	if err != nil {
		return Availability{}, err
	}

	return ResolveAvailability(*ws, committed, r.now()), nil
}
