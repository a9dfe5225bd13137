/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements allocation.Store (workspaces, users, allocations) using
  SQLite. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

CONFLICT-CHECKED INSERT:
  InsertAllocationIfNoConflict runs the overlap check and the insert
  inside a single database transaction. The SQL predicate is the exact
  half-open rule from allocation/interval.go:

      existing.start < candidate.end AND candidate.start < existing.end

  restricted to status IN ('Pending','Active'). Touching endpoints do
  not conflict.

KEY TABLES:
  workspaces:   Bookable resources (facilities as a JSON array)
  users:        Requesting parties
  allocations:  Bookings with status lifecycle and optional scores

INDEXES:
  idx_allocations_workspace_status: the overlap-check hot path
  idx_allocations_user:             per-user history
  idx_allocations_status:           lifecycle sweeps

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/workspaces.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - allocation/stores.go:       Interface definitions
  - allocation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/workspace-engine/allocation"
)

// Store implements allocation.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workspaces (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		floor INTEGER NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity > 0),
		facilities_json TEXT NOT NULL DEFAULT '[]',
		available BOOLEAN NOT NULL DEFAULT TRUE,
		description TEXT,
		x_coord REAL,
		y_coord REAL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_workspaces_floor ON workspaces(floor);
	CREATE INDEX IF NOT EXISTS idx_workspaces_type ON workspaces(type);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		level TEXT,
		department TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		workspace_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		team_size INTEGER NOT NULL CHECK (team_size > 0),
		privacy_need TEXT NOT NULL DEFAULT 'low',
		collaboration_need TEXT NOT NULL DEFAULT 'low',
		required_facilities_json TEXT NOT NULL DEFAULT '[]',
		notes TEXT,
		status TEXT NOT NULL DEFAULT 'Pending',
		suitability_score REAL,
		confidence_score REAL,
		created_at TEXT NOT NULL
	);

	-- Hot path: overlap checks against committed allocations
	CREATE INDEX IF NOT EXISTS idx_allocations_workspace_status
		ON allocations(workspace_id, status, start_time);

	CREATE INDEX IF NOT EXISTS idx_allocations_user
		ON allocations(user_id, start_time DESC);

	CREATE INDEX IF NOT EXISTS idx_allocations_status
		ON allocations(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WORKSPACE STORE
// =============================================================================

// SaveWorkspace inserts or replaces a workspace record. Workspace
// administration proper lives outside the engine; this exists for
// seeding and tests.
func (s *Store) SaveWorkspace(ctx context.Context, ws allocation.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	facilities, _ := json.Marshal(ws.Facilities)
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO workspaces
			(id, name, type, floor, capacity, facilities_json, available, description, x_coord, y_coord, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(ws.ID), ws.Name, string(ws.Type), ws.Floor, ws.Capacity,
		string(facilities), ws.Available, ws.Description, ws.XCoord, ws.YCoord,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetWorkspace returns a workspace or nil when not found.
func (s *Store) GetWorkspace(ctx context.Context, id allocation.WorkspaceID) (*allocation.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, type, floor, capacity, facilities_json, available, description, x_coord, y_coord
		FROM workspaces WHERE id = ?`, string(id))

	ws, err := scanWorkspace(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// ListWorkspaces returns workspaces matching the filter, ordered by id.
func (s *Store) ListWorkspaces(ctx context.Context, filter allocation.WorkspaceFilter) ([]allocation.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, type, floor, capacity, facilities_json, available, description, x_coord, y_coord
		FROM workspaces WHERE 1=1`
	var args []any

	if filter.AvailableOnly {
		query += " AND available = TRUE"
	}
	if filter.Floor != nil {
		query += " AND floor = ?"
		args = append(args, *filter.Floor)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}
	if filter.MinCapacity > 0 {
		query += " AND capacity >= ?"
		args = append(args, filter.MinCapacity)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []allocation.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ws)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(r rowScanner) (*allocation.Workspace, error) {
	var ws allocation.Workspace
	var id, wsType, facilitiesJSON string
	var description sql.NullString
	var x, y sql.NullFloat64

	err := r.Scan(&id, &ws.Name, &wsType, &ws.Floor, &ws.Capacity,
		&facilitiesJSON, &ws.Available, &description, &x, &y)
	if err != nil {
		return nil, err
	}

	ws.ID = allocation.WorkspaceID(id)
	ws.Type = allocation.WorkspaceType(wsType)
	ws.Description = description.String
	if x.Valid {
		ws.XCoord = &x.Float64
	}
	if y.Valid {
		ws.YCoord = &y.Float64
	}
	if err := json.Unmarshal([]byte(facilitiesJSON), &ws.Facilities); err != nil {
		ws.Facilities = nil
	}
	return &ws, nil
}

// =============================================================================
// USER STORE
// =============================================================================

// SaveUser inserts or replaces a user record (seeding/tests).
func (s *Store) SaveUser(ctx context.Context, u allocation.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO users (id, name, level, department, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(u.ID), u.Name, u.Level, u.Department,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetUser returns a user or nil when not found.
func (s *Store) GetUser(ctx context.Context, id allocation.UserID) (*allocation.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u allocation.User
	var uid string
	var level, department sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, level, department FROM users WHERE id = ?`, string(id)).
		Scan(&uid, &u.Name, &level, &department)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.ID = allocation.UserID(uid)
	u.Level = level.String
	u.Department = department.String
	return &u, nil
}

// =============================================================================
// ALLOCATION STORE
// =============================================================================

const allocationColumns = `
	id, user_id, workspace_id, start_time, end_time, team_size,
	privacy_need, collaboration_need, required_facilities_json, notes,
	status, suitability_score, confidence_score, created_at`

// GetAllocation returns an allocation or nil when not found.
func (s *Store) GetAllocation(ctx context.Context, id allocation.AllocationID) (*allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE id = ?`, string(id))
	a, err := scanAllocation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAllocations returns allocations matching the filter, newest first.
func (s *Store) ListAllocations(ctx context.Context, filter allocation.AllocationFilter) ([]allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, string(filter.UserID))
	}
	if filter.WorkspaceID != "" {
		query += " AND workspace_id = ?"
		args = append(args, string(filter.WorkspaceID))
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.From != nil {
		query += " AND start_time >= ?"
		args = append(args, filter.From.UTC().Format(time.RFC3339))
	}
	if filter.To != nil {
		query += " AND end_time <= ?"
		args = append(args, filter.To.UTC().Format(time.RFC3339))
	}
	query += " ORDER BY start_time DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAllocations(rows)
}

// ListCommitted returns the Pending/Active allocations for a workspace.
func (s *Store) ListCommitted(ctx context.Context, workspaceID allocation.WorkspaceID) ([]allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+allocationColumns+`
		FROM allocations
		WHERE workspace_id = ? AND status IN ('Pending', 'Active')
		ORDER BY start_time`, string(workspaceID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAllocations(rows)
}

// InsertAllocationIfNoConflict checks for committed overlap and inserts
// inside a single transaction. On overlap it returns *ConflictError and
// writes nothing.
func (s *Store) InsertAllocationIfNoConflict(ctx context.Context, a allocation.Allocation) (*allocation.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// The half-open overlap rule in SQL: existing.start < candidate.end
	// AND candidate.start < existing.end.
	var blocker string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM allocations
		WHERE workspace_id = ?
		  AND status IN ('Pending', 'Active')
		  AND start_time < ?
		  AND ? < end_time
		ORDER BY end_time DESC
		LIMIT 1`,
		string(a.WorkspaceID),
		a.Window.End.UTC().Format(time.RFC3339),
		a.Window.Start.UTC().Format(time.RFC3339),
	).Scan(&blocker)
	if err == nil {
		return nil, &allocation.ConflictError{
			WorkspaceID: a.WorkspaceID,
			Window:      a.Window,
			BlockedBy:   allocation.AllocationID(blocker),
		}
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	facilities, _ := json.Marshal(a.RequiredFacilities)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO allocations
			(id, user_id, workspace_id, start_time, end_time, team_size,
			 privacy_need, collaboration_need, required_facilities_json, notes,
			 status, suitability_score, confidence_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.ID), string(a.UserID), string(a.WorkspaceID),
		a.Window.Start.UTC().Format(time.RFC3339),
		a.Window.End.UTC().Format(time.RFC3339),
		a.TeamSize, string(a.PrivacyNeed), string(a.CollaborationNeed),
		string(facilities), a.Notes, string(a.Status),
		a.Suitability, a.Confidence,
		a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	stored := a
	return &stored, nil
}

// UpdateAllocationStatus sets the status of an existing allocation.
func (s *Store) UpdateAllocationStatus(ctx context.Context, id allocation.AllocationID, status allocation.Status) (*allocation.Allocation, error) {
	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE allocations SET status = ? WHERE id = ?`, string(status), string(id))
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, allocation.ErrAllocationNotFound
	}
	return s.GetAllocation(ctx, id)
}

// =============================================================================
// SCANNING HELPERS
// =============================================================================

func collectAllocations(rows *sql.Rows) ([]allocation.Allocation, error) {
	var out []allocation.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAllocation(r rowScanner) (*allocation.Allocation, error) {
	var a allocation.Allocation
	var id, userID, workspaceID, startStr, endStr, privacy, collaboration, facilitiesJSON, status, createdStr string
	var notes sql.NullString
	var suitability, confidence sql.NullFloat64

	err := r.Scan(&id, &userID, &workspaceID, &startStr, &endStr, &a.TeamSize,
		&privacy, &collaboration, &facilitiesJSON, &notes,
		&status, &suitability, &confidence, &createdStr)
	if err != nil {
		return nil, err
	}

	a.ID = allocation.AllocationID(id)
	a.UserID = allocation.UserID(userID)
	a.WorkspaceID = allocation.WorkspaceID(workspaceID)
	a.PrivacyNeed = allocation.NeedLevel(privacy)
	a.CollaborationNeed = allocation.NeedLevel(collaboration)
	a.Notes = notes.String
	a.Status = allocation.Status(status)

	if a.Window.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return nil, fmt.Errorf("bad start_time for allocation %s: %w", id, err)
	}
	if a.Window.End, err = time.Parse(time.RFC3339, endStr); err != nil {
		return nil, fmt.Errorf("bad end_time for allocation %s: %w", id, err)
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return nil, fmt.Errorf("bad created_at for allocation %s: %w", id, err)
	}

	if suitability.Valid {
		a.Suitability = &suitability.Float64
	}
	if confidence.Valid {
		a.Confidence = &confidence.Float64
	}
	if err := json.Unmarshal([]byte(facilitiesJSON), &a.RequiredFacilities); err != nil {
		a.RequiredFacilities = nil
	}
	return &a, nil
}
