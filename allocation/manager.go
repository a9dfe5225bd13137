/*
manager.go - Conflict-safe booking confirmation and cancellation

PURPOSE:
  Turns a chosen suggestion into a persisted Allocation while
  guaranteeing that no two committed bookings on the same workspace
  ever overlap, then governs the explicit side of the lifecycle
  (cancellation and the status sweep).

WHY RE-CHECK:
  The ranker's availability filtering is advisory: between the
  suggestion response and the user clicking "confirm", someone else may
  have taken the slot. The manager re-checks at the moment of write.

CONCURRENCY CONTROL:
  Two layers, per workspace (never global):
    1. A keyed mutex serializes check-then-insert per workspace id.
    2. The store's InsertAllocationIfNoConflict is itself atomic.
  Either alone is sufficient; together a racing pair of overlapping
  confirmations resolves to exactly one winner and one ErrSlotConflict.

SEE ALSO:
  - stores.go:    The atomic insert contract
  - lifecycle.go: CanTransition / EffectiveStatus
  - api/sweeper.go: Eager background status advancement
*/
package allocation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultStoreTimeout bounds a single persistence call during
// confirmation and cancellation.
const DefaultStoreTimeout = 5 * time.Second

// Manager confirms and cancels bookings.
type Manager struct {
	Store Store

	// StoreTimeout bounds each persistence call. Zero means
	// DefaultStoreTimeout.
	StoreTimeout time.Duration

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time

	mu    sync.Mutex
	locks map[WorkspaceID]*sync.Mutex
}

// NewManager creates a confirmation manager backed by the given store.
func NewManager(store Store) *Manager {
	return &Manager{Store: store, locks: make(map[WorkspaceID]*sync.Mutex)}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// workspaceLock returns the mutex serializing confirmations on one
// workspace, creating it on first use.
func (m *Manager) workspaceLock(id WorkspaceID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks == nil {
		m.locks = make(map[WorkspaceID]*sync.Mutex)
	}
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// withDeadline wraps ctx with the store timeout and translates a
// deadline overrun into ErrDependencyTimeout so callers see a
// retryable failure rather than a silent booking loss.
func (m *Manager) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := m.StoreTimeout
	if timeout == 0 {
		timeout = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func translateTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrDependencyTimeout
	}
	return err
}

// =============================================================================
// CONFIRMATION
// =============================================================================

// Confirm validates the request, re-checks availability at the moment
// of write, and persists the booking atomically. On overlap it returns
// a *ConflictError (errors.Is ErrSlotConflict); the caller should
// re-request suggestions.
func (m *Manager) Confirm(ctx context.Context, confirm AllocationConfirm) (*Allocation, error) {
	if err := confirm.Validate(); err != nil {
		return nil, err
	}

	sctx, cancel := m.withDeadline(ctx)
	defer cancel()

	ws, err := m.Store.GetWorkspace(sctx, confirm.WorkspaceID)
	if err != nil {
		return nil, translateTimeout(err)
	}
	if ws == nil {
		return nil, ErrWorkspaceNotFound
	}
	if !ws.Available {
		return nil, &ConflictError{WorkspaceID: ws.ID, Window: confirm.Window}
	}

	now := m.now()
	candidate := Allocation{
		ID:                 AllocationID(uuid.NewString()),
		UserID:             confirm.UserID,
		WorkspaceID:        confirm.WorkspaceID,
		Window:             confirm.Window,
		TeamSize:           confirm.TeamSize,
		PrivacyNeed:        confirm.PrivacyNeed,
		CollaborationNeed:  confirm.CollaborationNeed,
		RequiredFacilities: confirm.RequiredFacilities,
		Notes:              confirm.Notes,
		Status:             InitialStatus(confirm.Window, now),
		Suitability:        confirm.Suitability,
		Confidence:         confirm.Confidence,
		CreatedAt:          now,
	}

	lock := m.workspaceLock(confirm.WorkspaceID)
	lock.Lock()
	defer lock.Unlock()

	created, err := m.Store.InsertAllocationIfNoConflict(sctx, candidate)
	if err != nil {
		return nil, translateTimeout(err)
	}
	return created, nil
}

// =============================================================================
// CANCELLATION
// =============================================================================

// Cancel transitions a Pending/Active allocation to Cancelled.
// Only the booking owner (or an admin) may cancel. Cancelling an
// already-final allocation fails with ErrAlreadyFinal every time and
// never changes stored state.
func (m *Manager) Cancel(ctx context.Context, id AllocationID, requester UserID, admin bool) (*Allocation, error) {
	sctx, cancel := m.withDeadline(ctx)
	defer cancel()

	a, err := m.Store.GetAllocation(sctx, id)
	if err != nil {
		return nil, translateTimeout(err)
	}
	if a == nil {
		return nil, ErrAllocationNotFound
	}
	if a.UserID != requester && !admin {
		return nil, ErrNotAuthorized
	}

	// Judge the transition against the wall-clock-correct status, not
	// the possibly stale stored one.
	current := EffectiveStatus(*a, m.now())
	if !CanTransition(current, StatusCancelled) {
		return nil, &TransitionError{AllocationID: id, From: current, To: StatusCancelled}
	}

	updated, err := m.Store.UpdateAllocationStatus(sctx, id, StatusCancelled)
	if err != nil {
		return nil, translateTimeout(err)
	}
	return updated, nil
}

// =============================================================================
// LIFECYCLE ADVANCEMENT
// =============================================================================

// AdvanceStatuses persists time-driven advancement for every committed
// allocation whose stored status lags the wall clock. Idempotent; used
// by the background sweeper and safe to call at any frequency.
// Returns how many rows were advanced.
func (m *Manager) AdvanceStatuses(ctx context.Context) (int, error) {
	now := m.now()

	committed := []Status{StatusPending, StatusActive}
	advanced := 0
	for _, status := range committed {
		allocs, err := m.Store.ListAllocations(ctx, AllocationFilter{Status: status})
		if err != nil {
			return advanced, translateTimeout(err)
		}
		for _, a := range allocs {
			target := EffectiveStatus(a, now)
			if target == a.Status {
				continue
			}
			if _, err := m.Store.UpdateAllocationStatus(ctx, a.ID, target); err != nil {
				if errors.Is(err, ErrAllocationNotFound) {
					continue
				}
				return advanced, translateTimeout(err)
			}
			advanced++
		}
	}
	return advanced, nil
}
