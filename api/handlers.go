/*
handlers.go - HTTP API handlers for the workspace booking engine

PURPOSE:
  Exposes the suggestion and booking engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Allocations:
    POST   /api/allocations/suggest      Ranked workspace suggestions
    POST   /api/allocations/confirm      Confirm a booking
    GET    /api/allocations              List bookings (filters)
    GET    /api/allocations/{id}         Get one booking
    POST   /api/allocations/{id}/cancel  Cancel a booking

  Workspaces:
    GET    /api/workspaces               List workspaces (filters)
    GET    /api/workspaces/{id}          Get workspace details
    GET    /api/workspaces/{id}/status   Current availability

IDENTITY:
  The requester id arrives in the X-User-ID header, set by the
  upstream authentication layer. The core trusts it without
  re-validating credentials and receives it as an explicit argument
  on every call; nothing is read from ambient state.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing requester identity
  - 403: Authorization failures
  - 404: Resource not found
  - 409: Conflict (slot taken, already final)
  - 504: Dependency timeout (retryable)
  - 500: Internal errors

SEE ALSO:
  - dto.go:     Request/response data structures
  - server.go:  Router setup and middleware
  - sweeper.go: Background lifecycle advancement
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/workspace-engine/allocation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   allocation.Store
	Ranker  *allocation.Ranker
	Manager *allocation.Manager

	// AdminUsers may cancel any booking, not just their own.
	AdminUsers map[allocation.UserID]bool
}

// NewHandler creates a handler wired to the given store and classifier.
func NewHandler(store allocation.Store, classifier allocation.Classifier) *Handler {
	return &Handler{
		Store: store,
		Ranker: &allocation.Ranker{
			Store:  store,
			Scorer: &allocation.Scorer{Classifier: classifier},
		},
		Manager:    allocation.NewManager(store),
		AdminUsers: make(map[allocation.UserID]bool),
	}
}

// requester extracts the authenticated user id supplied by the
// upstream auth layer.
func requester(r *http.Request) allocation.UserID {
	return allocation.UserID(r.Header.Get("X-User-ID"))
}

// =============================================================================
// SUGGESTION HANDLERS
// =============================================================================

// SuggestWorkspaces returns ranked suggestions for a request.
func (h *Handler) SuggestWorkspaces(w http.ResponseWriter, r *http.Request) {
	userID := requester(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Missing X-User-ID header", nil)
		return
	}

	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	domainReq, err := req.toDomain(userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
	}

	suggestions, err := h.Ranker.Suggest(r.Context(), domainReq, limit)
	if err != nil {
		writeDomainError(w, "Failed to generate suggestions", err)
		return
	}

	dtos := make([]SuggestionDTO, len(suggestions))
	for i, s := range suggestions {
		dtos[i] = SuggestionDTO{
			Workspace:   workspaceDTO(s.Workspace),
			Suitability: s.Suitability,
			Confidence:  s.Confidence,
			Reasons:     s.Reasons,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BOOKING HANDLERS
// =============================================================================

// ConfirmAllocation re-validates availability and persists a booking.
func (h *Handler) ConfirmAllocation(w http.ResponseWriter, r *http.Request) {
	userID := requester(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Missing X-User-ID header", nil)
		return
	}

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	confirm, err := req.toDomain(userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	created, err := h.Manager.Confirm(r.Context(), confirm)
	if err != nil {
		writeDomainError(w, "Failed to confirm allocation", err)
		return
	}
	writeJSON(w, http.StatusCreated, allocationDTO(*created, time.Now()))
}

// CancelAllocation transitions a booking to Cancelled.
func (h *Handler) CancelAllocation(w http.ResponseWriter, r *http.Request) {
	userID := requester(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Missing X-User-ID header", nil)
		return
	}

	id := allocation.AllocationID(chi.URLParam(r, "id"))
	cancelled, err := h.Manager.Cancel(r.Context(), id, userID, h.AdminUsers[userID])
	if err != nil {
		writeDomainError(w, "Failed to cancel allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, allocationDTO(*cancelled, time.Now()))
}

// GetAllocation returns a single booking.
func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	id := allocation.AllocationID(chi.URLParam(r, "id"))

	a, err := h.Store.GetAllocation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get allocation", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Allocation not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, allocationDTO(*a, time.Now()))
}

// ListAllocations returns bookings matching the query filters.
func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := allocation.AllocationFilter{
		UserID:      allocation.UserID(q.Get("user_id")),
		WorkspaceID: allocation.WorkspaceID(q.Get("workspace_id")),
		Status:      allocation.Status(q.Get("status")),
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from (use RFC3339)", err)
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to (use RFC3339)", err)
			return
		}
		filter.To = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		filter.Limit = n
	}

	allocs, err := h.Store.ListAllocations(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list allocations", err)
		return
	}

	now := time.Now()
	dtos := make([]AllocationDTO, len(allocs))
	for i, a := range allocs {
		dtos[i] = allocationDTO(a, now)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// WORKSPACE HANDLERS
// =============================================================================

// ListWorkspaces returns workspaces matching the query filters.
func (h *Handler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := allocation.WorkspaceFilter{
		Type:          allocation.WorkspaceType(q.Get("type")),
		AvailableOnly: q.Get("available") == "true",
	}
	if v := q.Get("floor"); v != "" {
		floor, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid floor", err)
			return
		}
		filter.Floor = &floor
	}
	if v := q.Get("min_capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid min_capacity", err)
			return
		}
		filter.MinCapacity = n
	}

	workspaces, err := h.Store.ListWorkspaces(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workspaces", err)
		return
	}

	dtos := make([]WorkspaceDTO, len(workspaces))
	for i, ws := range workspaces {
		dtos[i] = workspaceDTO(ws)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetWorkspace returns a single workspace.
func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	id := allocation.WorkspaceID(chi.URLParam(r, "id"))

	ws, err := h.Store.GetWorkspace(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get workspace", err)
		return
	}
	if ws == nil {
		writeError(w, http.StatusNotFound, "Workspace not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, workspaceDTO(*ws))
}

// GetWorkspaceStatus resolves the current availability of a workspace.
func (h *Handler) GetWorkspaceStatus(w http.ResponseWriter, r *http.Request) {
	id := allocation.WorkspaceID(chi.URLParam(r, "id"))

	resolver := &allocation.Resolver{Workspaces: h.Store, Allocations: h.Store}
	av, err := resolver.Resolve(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to resolve availability", err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityDTO(av))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the engine's error taxonomy onto HTTP status
// codes.
func writeDomainError(w http.ResponseWriter, msg string, err error) {
	var ve *allocation.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, msg, err)
	case errors.Is(err, allocation.ErrSlotConflict):
		writeError(w, http.StatusConflict, msg, err)
	case errors.Is(err, allocation.ErrAlreadyFinal):
		writeError(w, http.StatusConflict, msg, err)
	case errors.Is(err, allocation.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, msg, err)
	case allocation.IsNotFound(err):
		writeError(w, http.StatusNotFound, msg, err)
	case errors.Is(err, allocation.ErrDependencyTimeout):
		writeError(w, http.StatusGatewayTimeout, msg, err)
	default:
		writeError(w, http.StatusInternalServerError, msg, err)
	}
}
