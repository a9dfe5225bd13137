package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workspace-engine/allocation"
	"github.com/warp/workspace-engine/allocation/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func fixedVerdict(label allocation.Label, confidence float64) allocation.Classifier {
	return allocation.ClassifierFunc(func(context.Context, string) (allocation.Prediction, error) {
		return allocation.Prediction{Label: label, Confidence: confidence}, nil
	})
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	mem.PutWorkspace(allocation.Workspace{
		ID: "ws-1", Name: "Huddle A", Type: allocation.TypeMeetingRoom,
		Floor: 1, Capacity: 6, Facilities: []string{"Whiteboard"}, Available: true,
	})
	mem.PutWorkspace(allocation.Workspace{
		ID: "ws-2", Name: "Desk 12", Type: allocation.TypeHotDesk,
		Floor: 2, Capacity: 1, Available: true,
	})
	mem.PutUser(allocation.User{ID: "user-1", Name: "Dana", Level: "senior"})
	mem.PutUser(allocation.User{ID: "user-2", Name: "Priya", Level: "junior"})

	h := NewHandler(mem, fixedVerdict(allocation.LabelPositive, 0.7))
	h.AdminUsers["admin-1"] = true

	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, mem
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, userID string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func futureWindow() (string, string) {
	start := time.Now().Add(24 * time.Hour).UTC()
	return start.Format(time.RFC3339), start.Add(2 * time.Hour).Format(time.RFC3339)
}

// =============================================================================
// IDENTITY
// =============================================================================

func TestAPI_MissingIdentityRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	start, end := futureWindow()

	body := SuggestRequest{TeamSize: 2, StartTime: start, EndTime: end}

	resp := doJSON(t, srv, http.MethodPost, "/api/allocations/suggest", "", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodPost, "/api/allocations/confirm", "", ConfirmRequest{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

func TestAPI_SuggestReturnsRankedList(t *testing.T) {
	srv, _ := newTestServer(t)
	start, end := futureWindow()

	resp := doJSON(t, srv, http.MethodPost, "/api/allocations/suggest", "user-1",
		SuggestRequest{TeamSize: 2, StartTime: start, EndTime: end})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[[]SuggestionDTO](t, resp)
	// ws-2 holds one seat; a team of two only fits ws-1.
	require.Len(t, got, 2)
	assert.Equal(t, "ws-1", got[0].Workspace.ID)
	assert.Greater(t, got[0].Suitability, got[1].Suitability)
	assert.NotEmpty(t, got[0].Reasons)
}

func TestAPI_SuggestValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	start, end := futureWindow()

	cases := []struct {
		name string
		path string
		body SuggestRequest
	}{
		{"unparseable time", "/api/allocations/suggest", SuggestRequest{TeamSize: 2, StartTime: "tomorrow", EndTime: end}},
		{"inverted window", "/api/allocations/suggest", SuggestRequest{TeamSize: 2, StartTime: end, EndTime: start}},
		{"zero team size", "/api/allocations/suggest", SuggestRequest{TeamSize: 0, StartTime: start, EndTime: end}},
		{"bad limit", "/api/allocations/suggest?limit=nope", SuggestRequest{TeamSize: 2, StartTime: start, EndTime: end}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, srv, http.MethodPost, tc.path, "user-1", tc.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAPI_SuggestLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	start, end := futureWindow()

	resp := doJSON(t, srv, http.MethodPost, "/api/allocations/suggest?limit=1", "user-1",
		SuggestRequest{TeamSize: 1, StartTime: start, EndTime: end})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[[]SuggestionDTO](t, resp)
	assert.Len(t, got, 1)
}

// =============================================================================
// CONFIRM AND CANCEL
// =============================================================================

func TestAPI_ConfirmThenOverlapConflicts(t *testing.T) {
	srv, _ := newTestServer(t)
	start, end := futureWindow()

	// First booking lands.
	resp := doJSON(t, srv, http.MethodPost, "/api/allocations/confirm", "user-1",
		ConfirmRequest{WorkspaceID: "ws-1", TeamSize: 2, StartTime: start, EndTime: end})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[AllocationDTO](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, string(allocation.StatusPending), created.Status)

	// An overlapping booking from anyone else is turned away.
	resp = doJSON(t, srv, http.MethodPost, "/api/allocations/confirm", "user-2",
		ConfirmRequest{WorkspaceID: "ws-1", TeamSize: 1, StartTime: start, EndTime: end})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_ConfirmUnknownWorkspace(t *testing.T) {
	srv, _ := newTestServer(t)
	start, end := futureWindow()

	resp := doJSON(t, srv, http.MethodPost, "/api/allocations/confirm", "user-1",
		ConfirmRequest{WorkspaceID: "ghost", TeamSize: 1, StartTime: start, EndTime: end})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CancelFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	start, end := futureWindow()

	resp := doJSON(t, srv, http.MethodPost, "/api/allocations/confirm", "user-1",
		ConfirmRequest{WorkspaceID: "ws-1", TeamSize: 2, StartTime: start, EndTime: end})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[AllocationDTO](t, resp)

	// A stranger may not cancel it.
	resp = doJSON(t, srv, http.MethodPost, "/api/allocations/"+created.ID+"/cancel", "user-2", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// The owner may.
	resp = doJSON(t, srv, http.MethodPost, "/api/allocations/"+created.ID+"/cancel", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cancelled := decodeBody[AllocationDTO](t, resp)
	assert.Equal(t, string(allocation.StatusCancelled), cancelled.Status)

	// A second cancel is a conflict, not a success.
	resp = doJSON(t, srv, http.MethodPost, "/api/allocations/"+created.ID+"/cancel", "user-1", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The freed slot books again.
	resp = doJSON(t, srv, http.MethodPost, "/api/allocations/confirm", "user-2",
		ConfirmRequest{WorkspaceID: "ws-1", TeamSize: 1, StartTime: start, EndTime: end})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_AdminCancelsAnyBooking(t *testing.T) {
	srv, _ := newTestServer(t)
	start, end := futureWindow()

	resp := doJSON(t, srv, http.MethodPost, "/api/allocations/confirm", "user-1",
		ConfirmRequest{WorkspaceID: "ws-1", TeamSize: 2, StartTime: start, EndTime: end})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[AllocationDTO](t, resp)

	resp = doJSON(t, srv, http.MethodPost, "/api/allocations/"+created.ID+"/cancel", "admin-1", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_GetAndListAllocations(t *testing.T) {
	srv, _ := newTestServer(t)
	start, end := futureWindow()

	resp := doJSON(t, srv, http.MethodPost, "/api/allocations/confirm", "user-1",
		ConfirmRequest{WorkspaceID: "ws-1", TeamSize: 2, StartTime: start, EndTime: end})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[AllocationDTO](t, resp)

	resp = doJSON(t, srv, http.MethodGet, "/api/allocations/"+created.ID, "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[AllocationDTO](t, resp)
	assert.Equal(t, created.ID, got.ID)

	resp = doJSON(t, srv, http.MethodGet, "/api/allocations?user_id=user-1", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]AllocationDTO](t, resp)
	assert.Len(t, list, 1)

	resp = doJSON(t, srv, http.MethodGet, "/api/allocations?user_id=user-2", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	empty := decodeBody[[]AllocationDTO](t, resp)
	assert.Empty(t, empty)

	resp = doJSON(t, srv, http.MethodGet, "/api/allocations/ghost", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// WORKSPACES
// =============================================================================

func TestAPI_ListWorkspacesWithFilters(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/api/workspaces", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decodeBody[[]WorkspaceDTO](t, resp)
	assert.Len(t, all, 2)

	resp = doJSON(t, srv, http.MethodGet, "/api/workspaces?type="+url.QueryEscape(string(allocation.TypeHotDesk)), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	desks := decodeBody[[]WorkspaceDTO](t, resp)
	require.Len(t, desks, 1)
	assert.Equal(t, "ws-2", desks[0].ID)
}

func TestAPI_WorkspaceStatus(t *testing.T) {
	srv, mem := newTestServer(t)

	// Free right now.
	resp := doJSON(t, srv, http.MethodGet, "/api/workspaces/ws-1/status", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	free := decodeBody[AvailabilityDTO](t, resp)
	assert.Equal(t, string(allocation.StatusAvailable), free.Status)

	// Occupied once a booking covers the current moment.
	now := time.Now().UTC()
	_, err := mem.InsertAllocationIfNoConflict(context.Background(), allocation.Allocation{
		ID: "a-now", UserID: "user-1", WorkspaceID: "ws-1",
		Window:   allocation.Window{Start: now.Add(-10 * time.Minute), End: now.Add(50 * time.Minute)},
		TeamSize: 1, Status: allocation.StatusActive, CreatedAt: now,
	})
	require.NoError(t, err)

	resp = doJSON(t, srv, http.MethodGet, "/api/workspaces/ws-1/status", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	busy := decodeBody[AvailabilityDTO](t, resp)
	assert.Equal(t, string(allocation.StatusOccupied), busy.Status)
	require.NotNil(t, busy.OccupiedUntil)

	// Unknown workspace.
	resp = doJSON(t, srv, http.MethodGet, "/api/workspaces/ghost/status", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// SEEDING
// =============================================================================

func TestSeedDemoData_IdempotentOnNonEmptyStore(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, SeedDemoData(ctx, mem))
	first, err := mem.ListWorkspaces(ctx, allocation.WorkspaceFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// A second seed run leaves the store untouched.
	require.NoError(t, SeedDemoData(ctx, mem))
	second, err := mem.ListWorkspaces(ctx, allocation.WorkspaceFilter{})
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
}

// =============================================================================
// LIFECYCLE SWEEPER
// =============================================================================

func TestSweeper_RunNowAdvancesElapsedBookings(t *testing.T) {
	mem := store.NewMemory()
	mem.PutWorkspace(allocation.Workspace{
		ID: "ws-1", Name: "Huddle A", Type: allocation.TypeMeetingRoom,
		Floor: 1, Capacity: 4, Available: true,
	})

	past := time.Now().Add(-2 * time.Hour).UTC()
	_, err := mem.InsertAllocationIfNoConflict(context.Background(), allocation.Allocation{
		ID: "a-old", UserID: "user-1", WorkspaceID: "ws-1",
		Window:   allocation.Window{Start: past, End: past.Add(time.Hour)},
		TeamSize: 1, Status: allocation.StatusPending, CreatedAt: past,
	})
	require.NoError(t, err)

	sweeper := NewLifecycleSweeper(allocation.NewManager(mem))
	sweeper.RunNow()

	got, err := mem.GetAllocation(context.Background(), "a-old")
	require.NoError(t, err)
	assert.Equal(t, allocation.StatusCompleted, got.Status)
}
