/*
stores.go - Persistence interfaces consumed by the booking engine

PURPOSE:
  Defines the storage contracts the engine depends on. The engine never
  talks to a database directly; it is handed implementations of these
  interfaces (sqlite in production, memory in tests).

ATOMICITY CONTRACT:
  InsertAllocationIfNoConflict is the load-bearing call: the overlap
  check against committed allocations and the insert must happen
  atomically with respect to other inserts on the same workspace.
  The sqlite store runs both inside one transaction; the memory store
  holds its lock across both. The confirmation manager adds a
  per-workspace mutex on top, so either layer alone would suffice.

SEE ALSO:
  - store/memory.go:        In-memory implementation
  - store/sqlite/sqlite.go: SQLite implementation
  - manager.go:             Primary consumer
*/
package allocation

import (
	"context"
	"time"
)

// WorkspaceFilter narrows ListWorkspaces. Zero values mean "no filter".
type WorkspaceFilter struct {
	Floor         *int
	Type          WorkspaceType
	MinCapacity   int
	AvailableOnly bool
}

// AllocationFilter narrows ListAllocations. Zero values mean "no filter".
type AllocationFilter struct {
	UserID      UserID
	WorkspaceID WorkspaceID
	Status      Status
	From        *time.Time
	To          *time.Time
	Limit       int
}

// WorkspaceStore provides read access to workspace records. Workspace
// administration (create/update) belongs to an external collaborator.
type WorkspaceStore interface {
	GetWorkspace(ctx context.Context, id WorkspaceID) (*Workspace, error)
	ListWorkspaces(ctx context.Context, filter WorkspaceFilter) ([]Workspace, error)
}

// UserStore provides read access to user records.
type UserStore interface {
	GetUser(ctx context.Context, id UserID) (*User, error)
}

// AllocationStore owns Allocation records. All status changes are
// read-modify-write against this store; the engine never mutates a
// cached copy.
type AllocationStore interface {
	GetAllocation(ctx context.Context, id AllocationID) (*Allocation, error)
	ListAllocations(ctx context.Context, filter AllocationFilter) ([]Allocation, error)

	// ListCommitted returns the Pending/Active allocations for a
	// workspace, the only records that count toward overlap checks.
	ListCommitted(ctx context.Context, workspaceID WorkspaceID) ([]Allocation, error)

	// InsertAllocationIfNoConflict atomically verifies that no
	// committed allocation on the same workspace overlaps the
	// candidate's window, then inserts it. On overlap it returns a
	// *ConflictError and writes nothing.
	InsertAllocationIfNoConflict(ctx context.Context, a Allocation) (*Allocation, error)

	// UpdateAllocationStatus sets the status of an existing allocation.
	// Returns ErrAllocationNotFound for unknown ids.
	UpdateAllocationStatus(ctx context.Context, id AllocationID, status Status) (*Allocation, error)
}

// Store bundles the three persistence capabilities. Concrete stores
// (sqlite, memory) implement all of them.
type Store interface {
	WorkspaceStore
	UserStore
	AllocationStore
}
