/*
Package allocation provides the workspace suggestion and booking engine.

PURPOSE:
  This package contains the domain types and algorithms for matching
  requesting users to physical workspaces (desks, rooms) for a time
  window, and for turning a chosen suggestion into a durable booking
  that never overlaps another committed booking on the same workspace.

KEY CONCEPTS IN THIS FILE (types.go):
  - Workspace: A bookable physical resource (read-only to this package)
  - User: The requesting party (read-only to this package)
  - AllocationRequest: A transient description of what is needed
  - SuggestedWorkspace: A scored, explained candidate (never persisted)
  - Allocation: The durable booking with a status lifecycle
  - Window: A half-open time interval [start, end)

DESIGN PRINCIPLES:
  1. Immutability: An Allocation's window and workspace never change
     after creation; only its status moves.
  2. Single conflict rule: Window.Overlaps is the one definition of
     "conflict" in the whole system (see interval.go).
  3. Type Safety: Strong typing for IDs prevents mixing workspace,
     user, and allocation identifiers.
  4. Explainability: Every score carries ordered human-readable reasons.

SEE ALSO:
  - interval.go:     Window and the overlap rule
  - lifecycle.go:    Status state machine
  - scorer.go:       Hybrid suitability scoring
  - ranker.go:       Ranked suggestion generation
  - manager.go:      Conflict-safe confirmation and cancellation
*/
package allocation

import (
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkspaceID string
type UserID string
type AllocationID string

// =============================================================================
// WORKSPACE - Bookable physical resource
// =============================================================================

// WorkspaceType is a free-form category ("Meeting Room", "Hot Desk", ...).
// A handful of well-known values drive the privacy/collaboration
// heuristics in the scorer; unknown values are simply neutral.
type WorkspaceType string

const (
	TypeMeetingRoom   WorkspaceType = "Meeting Room"
	TypePrivateOffice WorkspaceType = "Private Office"
	TypeHotDesk       WorkspaceType = "Hot Desk"
	TypeOpenSpace     WorkspaceType = "Open Space"
	TypeCollabSpace   WorkspaceType = "Collaboration Space"
	TypePhoneBooth    WorkspaceType = "Phone Booth"
)

// Workspace is owned by the workspace-administration collaborator.
// This package treats it as read-only.
type Workspace struct {
	ID          WorkspaceID
	Name        string
	Type        WorkspaceType
	Floor       int
	Capacity    int
	Facilities  []string
	Available   bool // administrative flag, independent of schedule
	Description string
	XCoord      *float64
	YCoord      *float64
}

// HasFacility reports whether the workspace offers the named facility.
func (w Workspace) HasFacility(name string) bool {
	for _, f := range w.Facilities {
		if f == name {
			return true
		}
	}
	return false
}

// =============================================================================
// USER - Requesting party
// =============================================================================

// User is owned by the user-management collaborator; read-only here.
type User struct {
	ID         UserID
	Name       string
	Level      string // free-form tier, e.g. "senior", "intern"
	Department string
}

// =============================================================================
// ALLOCATION REQUEST - Transient, exists only for one suggestion call
// =============================================================================

type NeedLevel string

const (
	NeedLow    NeedLevel = "low"
	NeedMedium NeedLevel = "medium"
	NeedHigh   NeedLevel = "high"
)

type AllocationRequest struct {
	UserID             UserID
	TeamSize           int
	Window             Window
	PrivacyNeed        NeedLevel
	CollaborationNeed  NeedLevel
	RequiredFacilities []string
	PreferredFloor     *int
	PreferredType      WorkspaceType
	Notes              string
}

// Validate enforces the request invariants before any collaborator call.
func (r AllocationRequest) Validate() error {
	if !r.Window.Start.Before(r.Window.End) {
		return &ValidationError{Field: "window", Reason: "start time must be before end time"}
	}
	if r.TeamSize < 1 {
		return &ValidationError{Field: "team_size", Reason: "team size must be at least 1"}
	}
	return nil
}

// =============================================================================
// SUGGESTED WORKSPACE - Scored candidate, never persisted
// =============================================================================

// SuggestedWorkspace is a projection produced by the ranker. It is
// discarded after the response; only a confirmed suggestion becomes
// an Allocation.
type SuggestedWorkspace struct {
	Workspace   Workspace
	Suitability float64  // 0-100 hybrid score
	Confidence  float64  // 0-1, straight from the classifier
	Reasons     []string // ordered, deterministic for a given input
}

// =============================================================================
// ALLOCATION - The durable booking
// =============================================================================

type Status string

const (
	StatusPending   Status = "Pending"
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Allocation is exclusively owned by the persistence layer once
// confirmed; all status changes are read-modify-write against the
// store, never against a second in-memory copy.
//
// Invariant: for any workspace, allocations with status Pending or
// Active are pairwise non-overlapping in time.
type Allocation struct {
	ID                 AllocationID
	UserID             UserID
	WorkspaceID        WorkspaceID
	Window             Window
	TeamSize           int
	PrivacyNeed        NeedLevel
	CollaborationNeed  NeedLevel
	RequiredFacilities []string
	Notes              string
	Status             Status

	// Carried over from the suggestion that produced the booking.
	// Nil for direct confirmations that skipped the suggestion step.
	Suitability *float64
	Confidence  *float64

	CreatedAt time.Time
}

// Committed reports whether the allocation counts toward overlap checks.
func (a Allocation) Committed() bool {
	return a.Status == StatusPending || a.Status == StatusActive
}

// =============================================================================
// CONFIRMATION REQUEST - Input to the confirmation manager
// =============================================================================

type AllocationConfirm struct {
	UserID             UserID
	WorkspaceID        WorkspaceID
	Window             Window
	TeamSize           int
	PrivacyNeed        NeedLevel
	CollaborationNeed  NeedLevel
	RequiredFacilities []string
	Notes              string
	Suitability        *float64
	Confidence         *float64
}

func (c AllocationConfirm) Validate() error {
	if !c.Window.Start.Before(c.Window.End) {
		return &ValidationError{Field: "window", Reason: "start time must be before end time"}
	}
	if c.TeamSize < 1 {
		return &ValidationError{Field: "team_size", Reason: "team size must be at least 1"}
	}
	if c.WorkspaceID == "" {
		return &ValidationError{Field: "workspace_id", Reason: "workspace id is required"}
	}
	return nil
}
