package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/warp/workspace-engine/allocation"
)

var testBase = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testAllocation(id string, start, end time.Time) allocation.Allocation {
	return allocation.Allocation{
		ID:          allocation.AllocationID(id),
		UserID:      "user-1",
		WorkspaceID: "ws-1",
		Window:      allocation.Window{Start: start, End: end},
		TeamSize:    2,
		PrivacyNeed: allocation.NeedLow, CollaborationNeed: allocation.NeedLow,
		Status:    allocation.StatusPending,
		CreatedAt: testBase,
	}
}

// =============================================================================
// WORKSPACES
// =============================================================================

func TestWorkspaceRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	x, y := 12.5, 40.0
	ws := allocation.Workspace{
		ID: "ws-1", Name: "Focus Room", Type: allocation.TypePrivateOffice,
		Floor: 3, Capacity: 2, Facilities: []string{"Monitor", "Whiteboard"},
		Available: true, Description: "Quiet corner office",
		XCoord: &x, YCoord: &y,
	}
	if err := s.SaveWorkspace(ctx, ws); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetWorkspace(ctx, "ws-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected workspace, got nil")
	}
	if got.Name != ws.Name || got.Type != ws.Type || got.Floor != ws.Floor || got.Capacity != ws.Capacity {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if len(got.Facilities) != 2 || got.Facilities[0] != "Monitor" {
		t.Errorf("facilities mismatch: got %v", got.Facilities)
	}
	if got.XCoord == nil || *got.XCoord != x || got.YCoord == nil || *got.YCoord != y {
		t.Errorf("coordinates mismatch: got %v %v", got.XCoord, got.YCoord)
	}
}

func TestGetWorkspace_MissingIsNilNil(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetWorkspace(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestListWorkspaces_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := []allocation.Workspace{
		{ID: "ws-1", Name: "A", Type: allocation.TypeMeetingRoom, Floor: 1, Capacity: 8, Available: true},
		{ID: "ws-2", Name: "B", Type: allocation.TypeMeetingRoom, Floor: 2, Capacity: 4, Available: true},
		{ID: "ws-3", Name: "C", Type: allocation.TypeHotDesk, Floor: 2, Capacity: 1, Available: false},
	}
	for _, ws := range seed {
		if err := s.SaveWorkspace(ctx, ws); err != nil {
			t.Fatalf("save %s: %v", ws.ID, err)
		}
	}

	floor := 2
	cases := []struct {
		name   string
		filter allocation.WorkspaceFilter
		want   []allocation.WorkspaceID
	}{
		{"all", allocation.WorkspaceFilter{}, []allocation.WorkspaceID{"ws-1", "ws-2", "ws-3"}},
		{"available only", allocation.WorkspaceFilter{AvailableOnly: true}, []allocation.WorkspaceID{"ws-1", "ws-2"}},
		{"by floor", allocation.WorkspaceFilter{Floor: &floor}, []allocation.WorkspaceID{"ws-2", "ws-3"}},
		{"by type", allocation.WorkspaceFilter{Type: allocation.TypeHotDesk}, []allocation.WorkspaceID{"ws-3"}},
		{"min capacity", allocation.WorkspaceFilter{MinCapacity: 5}, []allocation.WorkspaceID{"ws-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ListWorkspaces(ctx, tc.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d workspaces, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

// =============================================================================
// USERS
// =============================================================================

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := allocation.User{ID: "user-1", Name: "Dana", Level: "senior", Department: "Engineering"}
	if err := s.SaveUser(ctx, u); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Name != "Dana" || got.Level != "senior" || got.Department != "Engineering" {
		t.Errorf("round trip mismatch: got %+v", got)
	}

	missing, err := s.GetUser(ctx, "ghost")
	if err != nil || missing != nil {
		t.Errorf("missing user: got %+v, %v", missing, err)
	}
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func TestInsertAllocationIfNoConflict_RejectsOverlap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testAllocation("a-1", testBase, testBase.Add(2*time.Hour))
	if _, err := s.InsertAllocationIfNoConflict(ctx, first); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	// Mid-window overlap is rejected and names the blocker.
	second := testAllocation("a-2", testBase.Add(time.Hour), testBase.Add(3*time.Hour))
	_, err := s.InsertAllocationIfNoConflict(ctx, second)
	if !errors.Is(err, allocation.ErrSlotConflict) {
		t.Fatalf("expected slot conflict, got %v", err)
	}
	var ce *allocation.ConflictError
	if !errors.As(err, &ce) || ce.BlockedBy != "a-1" {
		t.Errorf("expected blocker a-1, got %+v", ce)
	}

	// Nothing was written for the loser.
	if got, _ := s.GetAllocation(ctx, "a-2"); got != nil {
		t.Errorf("rejected allocation was persisted: %+v", got)
	}
}

func TestInsertAllocationIfNoConflict_TouchingEndpointsAllowed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testAllocation("a-1", testBase, testBase.Add(time.Hour))
	if _, err := s.InsertAllocationIfNoConflict(ctx, first); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	second := testAllocation("a-2", testBase.Add(time.Hour), testBase.Add(2*time.Hour))
	if _, err := s.InsertAllocationIfNoConflict(ctx, second); err != nil {
		t.Errorf("touching endpoints must not conflict: %v", err)
	}
}

func TestInsertAllocationIfNoConflict_IgnoresTerminalRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testAllocation("a-1", testBase, testBase.Add(2*time.Hour))
	if _, err := s.InsertAllocationIfNoConflict(ctx, first); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := s.UpdateAllocationStatus(ctx, "a-1", allocation.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	second := testAllocation("a-2", testBase, testBase.Add(2*time.Hour))
	if _, err := s.InsertAllocationIfNoConflict(ctx, second); err != nil {
		t.Errorf("cancelled row must not block: %v", err)
	}
}

func TestAllocationRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	suit, conf := 87.5, 0.92
	a := testAllocation("a-1", testBase, testBase.Add(time.Hour))
	a.PrivacyNeed = allocation.NeedHigh
	a.CollaborationNeed = allocation.NeedMedium
	a.RequiredFacilities = []string{"Projector"}
	a.Notes = "Sprint review"
	a.Suitability = &suit
	a.Confidence = &conf

	if _, err := s.InsertAllocationIfNoConflict(ctx, a); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetAllocation(ctx, "a-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected allocation, got nil")
	}
	if !got.Window.Start.Equal(a.Window.Start) || !got.Window.End.Equal(a.Window.End) {
		t.Errorf("window mismatch: got %v", got.Window)
	}
	if got.PrivacyNeed != allocation.NeedHigh || got.CollaborationNeed != allocation.NeedMedium {
		t.Errorf("needs mismatch: got %+v", got)
	}
	if got.Notes != "Sprint review" || len(got.RequiredFacilities) != 1 {
		t.Errorf("details mismatch: got %+v", got)
	}
	if got.Suitability == nil || *got.Suitability != suit || got.Confidence == nil || *got.Confidence != conf {
		t.Errorf("scores mismatch: got %v %v", got.Suitability, got.Confidence)
	}
}

func TestAllocation_NullableScoresSurviveAsNil(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testAllocation("a-1", testBase, testBase.Add(time.Hour))
	if _, err := s.InsertAllocationIfNoConflict(ctx, a); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetAllocation(ctx, "a-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Suitability != nil || got.Confidence != nil {
		t.Errorf("unset scores must come back nil, got %v %v", got.Suitability, got.Confidence)
	}
	if got.Notes != "" {
		t.Errorf("unset notes must come back empty, got %q", got.Notes)
	}
}

func TestListAllocations_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a1 := testAllocation("a-1", testBase, testBase.Add(time.Hour))
	a2 := testAllocation("a-2", testBase.Add(2*time.Hour), testBase.Add(3*time.Hour))
	a2.UserID = "user-2"
	a3 := testAllocation("a-3", testBase.Add(4*time.Hour), testBase.Add(5*time.Hour))
	for _, a := range []allocation.Allocation{a1, a2, a3} {
		if _, err := s.InsertAllocationIfNoConflict(ctx, a); err != nil {
			t.Fatalf("insert %s: %v", a.ID, err)
		}
	}
	if _, err := s.UpdateAllocationStatus(ctx, "a-3", allocation.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	byUser, err := s.ListAllocations(ctx, allocation.AllocationFilter{UserID: "user-2"})
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 1 || byUser[0].ID != "a-2" {
		t.Errorf("by user: got %+v", byUser)
	}

	pending, err := s.ListAllocations(ctx, allocation.AllocationFilter{Status: allocation.StatusPending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending: got %d, want 2", len(pending))
	}

	from := testBase.Add(90 * time.Minute)
	windowed, err := s.ListAllocations(ctx, allocation.AllocationFilter{From: &from})
	if err != nil {
		t.Fatalf("list from: %v", err)
	}
	if len(windowed) != 2 {
		t.Errorf("from filter: got %d, want 2", len(windowed))
	}

	limited, err := s.ListAllocations(ctx, allocation.AllocationFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit: got %d, want 1", len(limited))
	}
}

func TestListCommitted_ExcludesTerminal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a1 := testAllocation("a-1", testBase, testBase.Add(time.Hour))
	a2 := testAllocation("a-2", testBase.Add(time.Hour), testBase.Add(2*time.Hour))
	for _, a := range []allocation.Allocation{a1, a2} {
		if _, err := s.InsertAllocationIfNoConflict(ctx, a); err != nil {
			t.Fatalf("insert %s: %v", a.ID, err)
		}
	}
	if _, err := s.UpdateAllocationStatus(ctx, "a-1", allocation.StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := s.ListCommitted(ctx, "ws-1")
	if err != nil {
		t.Fatalf("list committed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a-2" {
		t.Errorf("got %+v, want only a-2", got)
	}
}

func TestUpdateAllocationStatus_Missing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpdateAllocationStatus(context.Background(), "ghost", allocation.StatusCancelled)
	if !errors.Is(err, allocation.ErrAllocationNotFound) {
		t.Errorf("expected ErrAllocationNotFound, got %v", err)
	}
}
