package allocation_test

import (
	"testing"
	"time"

	"github.com/warp/workspace-engine/allocation"
)

// =============================================================================
// TRANSITION RULES
// =============================================================================

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to allocation.Status
		want     bool
	}{
		{allocation.StatusPending, allocation.StatusActive, true},
		{allocation.StatusPending, allocation.StatusCompleted, true}, // window fully passed before any sweep
		{allocation.StatusPending, allocation.StatusCancelled, true},
		{allocation.StatusActive, allocation.StatusCompleted, true},
		{allocation.StatusActive, allocation.StatusCancelled, true},
		{allocation.StatusActive, allocation.StatusPending, false},
		{allocation.StatusCompleted, allocation.StatusCancelled, false},
		{allocation.StatusCompleted, allocation.StatusActive, false},
		{allocation.StatusCancelled, allocation.StatusPending, false},
		{allocation.StatusCancelled, allocation.StatusCancelled, false},
	}

	for _, tc := range cases {
		if got := allocation.CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

// =============================================================================
// TIME-DRIVEN STATUS DERIVATION
// =============================================================================

func TestEffectiveStatus_FollowsWallClock(t *testing.T) {
	// GIVEN: An allocation with window [T, T+1h)
	start := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	a := allocation.Allocation{
		Status: allocation.StatusPending,
		Window: allocation.Window{Start: start, End: start.Add(time.Hour)},
	}

	// THEN: status tracks "now" relative to the window
	if got := allocation.EffectiveStatus(a, start.Add(-time.Minute)); got != allocation.StatusPending {
		t.Errorf("at T-1min: got %s, want Pending", got)
	}
	if got := allocation.EffectiveStatus(a, start.Add(30*time.Minute)); got != allocation.StatusActive {
		t.Errorf("at T+30min: got %s, want Active", got)
	}
	if got := allocation.EffectiveStatus(a, start.Add(2*time.Hour)); got != allocation.StatusCompleted {
		t.Errorf("at T+2h: got %s, want Completed", got)
	}
	// Boundary: window end is exclusive, so at exactly T+1h it is done.
	if got := allocation.EffectiveStatus(a, start.Add(time.Hour)); got != allocation.StatusCompleted {
		t.Errorf("at T+1h exactly: got %s, want Completed", got)
	}
}

func TestEffectiveStatus_CancelledIsSticky(t *testing.T) {
	start := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	a := allocation.Allocation{
		Status: allocation.StatusCancelled,
		Window: allocation.Window{Start: start, End: start.Add(time.Hour)},
	}

	for _, now := range []time.Time{start.Add(-time.Minute), start.Add(30 * time.Minute), start.Add(2 * time.Hour)} {
		if got := allocation.EffectiveStatus(a, now); got != allocation.StatusCancelled {
			t.Errorf("at %v: got %s, want Cancelled", now, got)
		}
	}
}

func TestEffectiveStatus_Idempotent(t *testing.T) {
	start := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	a := allocation.Allocation{
		Status: allocation.StatusPending,
		Window: allocation.Window{Start: start, End: start.Add(time.Hour)},
	}
	now := start.Add(10 * time.Minute)

	first := allocation.EffectiveStatus(a, now)
	a.Status = first
	second := allocation.EffectiveStatus(a, now)
	if first != second {
		t.Errorf("derivation not idempotent: %s then %s", first, second)
	}
}

func TestInitialStatus(t *testing.T) {
	start := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	w := allocation.Window{Start: start, End: start.Add(time.Hour)}

	if got := allocation.InitialStatus(w, start.Add(-time.Hour)); got != allocation.StatusPending {
		t.Errorf("future window: got %s, want Pending", got)
	}
	if got := allocation.InitialStatus(w, start.Add(time.Minute)); got != allocation.StatusActive {
		t.Errorf("in-window confirmation: got %s, want Active", got)
	}
}
