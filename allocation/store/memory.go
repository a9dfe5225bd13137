// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/workspace-engine/allocation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements allocation.Store with maps behind a RWMutex.
// The conflict-checked insert holds the write lock across check and
// insert, which satisfies the atomicity contract.
type Memory struct {
	mu          sync.RWMutex
	workspaces  map[allocation.WorkspaceID]allocation.Workspace
	users       map[allocation.UserID]allocation.User
	allocations map[allocation.AllocationID]allocation.Allocation
}

func NewMemory() *Memory {
	return &Memory{
		workspaces:  make(map[allocation.WorkspaceID]allocation.Workspace),
		users:       make(map[allocation.UserID]allocation.User),
		allocations: make(map[allocation.AllocationID]allocation.Allocation),
	}
}

// =============================================================================
// SEEDING - Test/dev setup helpers
// =============================================================================

func (m *Memory) PutWorkspace(ws allocation.Workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspaces[ws.ID] = ws
}

func (m *Memory) PutUser(u allocation.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// SaveWorkspace and SaveUser mirror the persistent store's seeding
// writers so the memory store satisfies the same seed surface.

func (m *Memory) SaveWorkspace(_ context.Context, ws allocation.Workspace) error {
	m.PutWorkspace(ws)
	return nil
}

func (m *Memory) SaveUser(_ context.Context, u allocation.User) error {
	m.PutUser(u)
	return nil
}

// =============================================================================
// WORKSPACE STORE
// =============================================================================

func (m *Memory) GetWorkspace(_ context.Context, id allocation.WorkspaceID) (*allocation.Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ws, ok := m.workspaces[id]
	if !ok {
		return nil, nil
	}
	return &ws, nil
}

func (m *Memory) ListWorkspaces(_ context.Context, filter allocation.WorkspaceFilter) ([]allocation.Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []allocation.Workspace
	for _, ws := range m.workspaces {
		if filter.AvailableOnly && !ws.Available {
			continue
		}
		if filter.Floor != nil && ws.Floor != *filter.Floor {
			continue
		}
		if filter.Type != "" && ws.Type != filter.Type {
			continue
		}
		if filter.MinCapacity > 0 && ws.Capacity < filter.MinCapacity {
			continue
		}
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// USER STORE
// =============================================================================

func (m *Memory) GetUser(_ context.Context, id allocation.UserID) (*allocation.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// =============================================================================
// ALLOCATION STORE
// =============================================================================

func (m *Memory) GetAllocation(_ context.Context, id allocation.AllocationID) (*allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.allocations[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) ListAllocations(_ context.Context, filter allocation.AllocationFilter) ([]allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []allocation.Allocation
	for _, a := range m.allocations {
		if filter.UserID != "" && a.UserID != filter.UserID {
			continue
		}
		if filter.WorkspaceID != "" && a.WorkspaceID != filter.WorkspaceID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.From != nil && a.Window.Start.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.Window.End.After(*filter.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Window.Start.Equal(out[j].Window.Start) {
			return out[i].Window.Start.After(out[j].Window.Start)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *Memory) ListCommitted(_ context.Context, workspaceID allocation.WorkspaceID) ([]allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.committedLocked(workspaceID), nil
}

func (m *Memory) committedLocked(workspaceID allocation.WorkspaceID) []allocation.Allocation {
	var out []allocation.Allocation
	for _, a := range m.allocations {
		if a.WorkspaceID == workspaceID && a.Committed() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Window.Start.Before(out[j].Window.Start) })
	return out
}

// InsertAllocationIfNoConflict checks and inserts under one write lock.
func (m *Memory) InsertAllocationIfNoConflict(_ context.Context, a allocation.Allocation) (*allocation.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.committedLocked(a.WorkspaceID) {
		if existing.Window.Overlaps(a.Window) {
			return nil, &allocation.ConflictError{
				WorkspaceID: a.WorkspaceID,
				Window:      a.Window,
				BlockedBy:   existing.ID,
			}
		}
	}

	m.allocations[a.ID] = a
	stored := a
	return &stored, nil
}

func (m *Memory) UpdateAllocationStatus(_ context.Context, id allocation.AllocationID, status allocation.Status) (*allocation.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.allocations[id]
	if !ok {
		return nil, allocation.ErrAllocationNotFound
	}
	a.Status = status
	m.allocations[id] = a
	return &a, nil
}
