/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract,
  allowing field renaming and version evolution without breaking
  clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Structural validation (parseable times, known need levels) happens
  during conversion here; domain validation (start < end, team size)
  belongs to the allocation package.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"fmt"
	"time"

	"github.com/warp/workspace-engine/allocation"
)

// =============================================================================
// WORKSPACE TYPES
// =============================================================================

// WorkspaceDTO represents a workspace in API responses.
type WorkspaceDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Floor       int      `json:"floor"`
	Capacity    int      `json:"capacity"`
	Facilities  []string `json:"facilities"`
	Available   bool     `json:"available"`
	Description string   `json:"description,omitempty"`
	XCoord      *float64 `json:"x_coord,omitempty"`
	YCoord      *float64 `json:"y_coord,omitempty"`
}

func workspaceDTO(ws allocation.Workspace) WorkspaceDTO {
	return WorkspaceDTO{
		ID:          string(ws.ID),
		Name:        ws.Name,
		Type:        string(ws.Type),
		Floor:       ws.Floor,
		Capacity:    ws.Capacity,
		Facilities:  ws.Facilities,
		Available:   ws.Available,
		Description: ws.Description,
		XCoord:      ws.XCoord,
		YCoord:      ws.YCoord,
	}
}

// AvailabilityDTO is the resolved status of one workspace.
type AvailabilityDTO struct {
	WorkspaceID   string  `json:"workspace_id"`
	Status        string  `json:"status"`
	OccupiedUntil *string `json:"occupied_until,omitempty"`
}

func availabilityDTO(av allocation.Availability) AvailabilityDTO {
	dto := AvailabilityDTO{
		WorkspaceID: string(av.WorkspaceID),
		Status:      string(av.Status),
	}
	if av.OccupiedUntil != nil {
		s := av.OccupiedUntil.UTC().Format(time.RFC3339)
		dto.OccupiedUntil = &s
	}
	return dto
}

// =============================================================================
// SUGGESTION TYPES
// =============================================================================

// SuggestRequest asks for ranked workspace suggestions.
type SuggestRequest struct {
	TeamSize           int      `json:"team_size"`
	StartTime          string   `json:"start_time"` // RFC3339
	EndTime            string   `json:"end_time"`   // RFC3339
	PrivacyNeed        string   `json:"privacy_need"`
	CollaborationNeed  string   `json:"collaboration_need"`
	RequiredFacilities []string `json:"required_facilities"`
	PreferredFloor     *int     `json:"preferred_floor,omitempty"`
	PreferredType      string   `json:"preferred_type,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

func (r SuggestRequest) toDomain(userID allocation.UserID) (allocation.AllocationRequest, error) {
	window, err := parseWindow(r.StartTime, r.EndTime)
	if err != nil {
		return allocation.AllocationRequest{}, err
	}
	return allocation.AllocationRequest{
		UserID:             userID,
		TeamSize:           r.TeamSize,
		Window:             window,
		PrivacyNeed:        needLevel(r.PrivacyNeed),
		CollaborationNeed:  needLevel(r.CollaborationNeed),
		RequiredFacilities: r.RequiredFacilities,
		PreferredFloor:     r.PreferredFloor,
		PreferredType:      allocation.WorkspaceType(r.PreferredType),
		Notes:              r.Notes,
	}, nil
}

// SuggestionDTO is one ranked candidate with reasoning.
type SuggestionDTO struct {
	Workspace   WorkspaceDTO `json:"workspace"`
	Suitability float64      `json:"suitability_score"`
	Confidence  float64      `json:"confidence_score"`
	Reasons     []string     `json:"reasoning"`
}

// =============================================================================
// ALLOCATION TYPES
// =============================================================================

// ConfirmRequest turns a chosen suggestion into a booking.
type ConfirmRequest struct {
	WorkspaceID        string   `json:"workspace_id"`
	TeamSize           int      `json:"team_size"`
	StartTime          string   `json:"start_time"`
	EndTime            string   `json:"end_time"`
	PrivacyNeed        string   `json:"privacy_need"`
	CollaborationNeed  string   `json:"collaboration_need"`
	RequiredFacilities []string `json:"required_facilities"`
	Notes              string   `json:"notes,omitempty"`
	Suitability        *float64 `json:"suitability_score,omitempty"`
	Confidence         *float64 `json:"confidence_score,omitempty"`
}

func (r ConfirmRequest) toDomain(userID allocation.UserID) (allocation.AllocationConfirm, error) {
	window, err := parseWindow(r.StartTime, r.EndTime)
	if err != nil {
		return allocation.AllocationConfirm{}, err
	}
	return allocation.AllocationConfirm{
		UserID:             userID,
		WorkspaceID:        allocation.WorkspaceID(r.WorkspaceID),
		Window:             window,
		TeamSize:           r.TeamSize,
		PrivacyNeed:        needLevel(r.PrivacyNeed),
		CollaborationNeed:  needLevel(r.CollaborationNeed),
		RequiredFacilities: r.RequiredFacilities,
		Notes:              r.Notes,
		Suitability:        r.Suitability,
		Confidence:         r.Confidence,
	}, nil
}

// AllocationDTO represents a booking in API responses. The status is
// always the wall-clock-effective one, never a stale stored value.
type AllocationDTO struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"user_id"`
	WorkspaceID        string   `json:"workspace_id"`
	StartTime          string   `json:"start_time"`
	EndTime            string   `json:"end_time"`
	TeamSize           int      `json:"team_size"`
	PrivacyNeed        string   `json:"privacy_need"`
	CollaborationNeed  string   `json:"collaboration_need"`
	RequiredFacilities []string `json:"required_facilities"`
	Notes              string   `json:"notes,omitempty"`
	Status             string   `json:"status"`
	Suitability        *float64 `json:"suitability_score,omitempty"`
	Confidence         *float64 `json:"confidence_score,omitempty"`
	CreatedAt          string   `json:"created_at"`
}

func allocationDTO(a allocation.Allocation, now time.Time) AllocationDTO {
	return AllocationDTO{
		ID:                 string(a.ID),
		UserID:             string(a.UserID),
		WorkspaceID:        string(a.WorkspaceID),
		StartTime:          a.Window.Start.UTC().Format(time.RFC3339),
		EndTime:            a.Window.End.UTC().Format(time.RFC3339),
		TeamSize:           a.TeamSize,
		PrivacyNeed:        string(a.PrivacyNeed),
		CollaborationNeed:  string(a.CollaborationNeed),
		RequiredFacilities: a.RequiredFacilities,
		Notes:              a.Notes,
		Status:             string(allocation.EffectiveStatus(a, now)),
		Suitability:        a.Suitability,
		Confidence:         a.Confidence,
		CreatedAt:          a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseWindow(start, end string) (allocation.Window, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return allocation.Window{}, fmt.Errorf("invalid start_time (use RFC3339): %w", err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return allocation.Window{}, fmt.Errorf("invalid end_time (use RFC3339): %w", err)
	}
	return allocation.Window{Start: s, End: e}, nil
}

// needLevel normalizes the wire value; anything unrecognized falls back
// to low rather than failing the whole request.
func needLevel(s string) allocation.NeedLevel {
	switch allocation.NeedLevel(s) {
	case allocation.NeedMedium:
		return allocation.NeedMedium
	case allocation.NeedHigh:
		return allocation.NeedHigh
	default:
		return allocation.NeedLow
	}
}
