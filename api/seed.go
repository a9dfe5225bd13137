/*
seed.go - Demo data loader

PURPOSE:
  Populates an empty store with a small office: a few floors of
  workspaces of each type and a handful of users, so the suggestion
  flow can be exercised immediately after first start. Never touches a
  store that already has workspaces.

SEE ALSO:
  - cmd/server/main.go: Invokes SeedDemoData behind the -seed flag
*/
package api

import (
	"context"
	"log"

	"github.com/warp/workspace-engine/allocation"
)

// SeedStore is the write surface seeding needs. Workspace/user
// administration is otherwise outside the engine, so the allocation
// store interfaces deliberately omit these methods.
type SeedStore interface {
	allocation.Store
	SaveWorkspace(ctx context.Context, ws allocation.Workspace) error
	SaveUser(ctx context.Context, u allocation.User) error
}

// SeedDemoData loads demo workspaces and users into an empty store.
func SeedDemoData(ctx context.Context, store SeedStore) error {
	existing, err := store.ListWorkspaces(ctx, allocation.WorkspaceFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Printf("[Seed] Store already has %d workspaces, skipping", len(existing))
		return nil
	}

	workspaces := []allocation.Workspace{
		{ID: "ws-101", Name: "Aurora", Type: allocation.TypeMeetingRoom, Floor: 1, Capacity: 8,
			Facilities: []string{"Projector", "Whiteboard", "Video Conference"}, Available: true,
			Description: "Large meeting room near reception"},
		{ID: "ws-102", Name: "Borealis", Type: allocation.TypeMeetingRoom, Floor: 1, Capacity: 4,
			Facilities: []string{"Whiteboard", "Screen"}, Available: true},
		{ID: "ws-103", Name: "Corner Office", Type: allocation.TypePrivateOffice, Floor: 1, Capacity: 2,
			Facilities: []string{"Monitor", "Standing Desk"}, Available: true},
		{ID: "ws-201", Name: "North Open Space", Type: allocation.TypeOpenSpace, Floor: 2, Capacity: 12,
			Facilities: []string{"Monitor", "Whiteboard"}, Available: true},
		{ID: "ws-202", Name: "Desk Row A", Type: allocation.TypeHotDesk, Floor: 2, Capacity: 1,
			Facilities: []string{"Monitor", "Docking Station"}, Available: true},
		{ID: "ws-203", Name: "Desk Row B", Type: allocation.TypeHotDesk, Floor: 2, Capacity: 1,
			Facilities: []string{"Monitor"}, Available: true},
		{ID: "ws-204", Name: "Booth 2", Type: allocation.TypePhoneBooth, Floor: 2, Capacity: 1,
			Facilities: []string{"Sound Proofing"}, Available: true},
		{ID: "ws-301", Name: "The Garage", Type: allocation.TypeCollabSpace, Floor: 3, Capacity: 10,
			Facilities: []string{"Whiteboard", "Projector", "Flipchart"}, Available: true},
		{ID: "ws-302", Name: "Quiet Room", Type: allocation.TypePrivateOffice, Floor: 3, Capacity: 3,
			Facilities: []string{"Monitor", "Whiteboard"}, Available: true},
		{ID: "ws-303", Name: "Storage Annex", Type: allocation.TypeOpenSpace, Floor: 3, Capacity: 6,
			Facilities: []string{}, Available: false,
			Description: "Under renovation"},
	}

	users := []allocation.User{
		{ID: "user-1", Name: "Dana Velasquez", Level: "senior", Department: "Engineering"},
		{ID: "user-2", Name: "Priya Nair", Level: "manager", Department: "Product"},
		{ID: "user-3", Name: "Tom Okafor", Level: "junior", Department: "Design"},
	}

	for _, ws := range workspaces {
		if err := store.SaveWorkspace(ctx, ws); err != nil {
			return err
		}
	}
	for _, u := range users {
		if err := store.SaveUser(ctx, u); err != nil {
			return err
		}
	}

	log.Printf("[Seed] Loaded %d workspaces and %d users", len(workspaces), len(users))
	return nil
}
