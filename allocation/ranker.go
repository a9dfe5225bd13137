/*
ranker.go - Ranked suggestion generation

PURPOSE:
  Answers "where should this team sit?": retrieves administratively
  available workspaces, drops those whose committed bookings overlap
  the requested window, scores the survivors concurrently, and returns
  them sorted best-first with reasoning attached.

CONCURRENCY:
  Scoring is side-effect-free and embarrassingly parallel, so it fans
  out on a worker pool bounded by FanOut (to avoid hammering the
  classifier collaborator). Parallel execution must not make ranking
  nondeterministic, so the sort has a total order:

    suitability desc, then confidence desc, then workspace id asc

  Cancelling the context mid-call is safe: partial results are
  discarded and the suggestion path never writes persisted state.

SEE ALSO:
  - scorer.go:       Per-candidate scoring
  - availability.go: Committed-window filtering uses the same store data
*/
package allocation

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultFanOut bounds concurrent classifier calls within one
// suggestion call.
const DefaultFanOut = 8

// Ranker generates ranked workspace suggestions for a request.
type Ranker struct {
	Store  Store
	Scorer *Scorer

	// FanOut limits concurrent scoring. Zero means DefaultFanOut.
	FanOut int

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// Suggest returns workspaces ranked by suitability for the request.
// limit <= 0 means unbounded. An empty result is not an error: it
// simply means nothing survived filtering.
func (r *Ranker) Suggest(ctx context.Context, req AllocationRequest, limit int) ([]SuggestedWorkspace, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := r.Store.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	candidates, err := r.eligibleCandidates(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []SuggestedWorkspace{}, nil
	}

	scored := r.scoreAll(ctx, *user, candidates, req)
	if ctx.Err() != nil {
		// Client went away mid-scoring; discard partial results.
		return nil, ctx.Err()
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Suitability != scored[j].Suitability {
			return scored[i].Suitability > scored[j].Suitability
		}
		if scored[i].Confidence != scored[j].Confidence {
			return scored[i].Confidence > scored[j].Confidence
		}
		return scored[i].Workspace.ID < scored[j].Workspace.ID
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// eligibleCandidates returns admin-available workspaces with no
// committed booking overlapping the requested window. This filtering
// is advisory: the confirmation manager re-checks at write time.
func (r *Ranker) eligibleCandidates(ctx context.Context, req AllocationRequest) ([]Workspace, error) {
	workspaces, err := r.Store.ListWorkspaces(ctx, WorkspaceFilter{AvailableOnly: true})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	var out []Workspace
	for _, ws := range workspaces {
		committed, err := r.Store.ListCommitted(ctx, ws.ID)
		if err != nil {
			return nil, err
		}
		conflict := false
		for _, a := range committed {
			if s := EffectiveStatus(a, now); s != StatusPending && s != StatusActive {
				continue
			}
			if a.Window.Overlaps(req.Window) {
				conflict = true
				break
			}
		}
		if !conflict {
			out = append(out, ws)
		}
	}
	return out, nil
}

// scoreAll fans scoring out over a bounded worker pool. Results land
// in a slice indexed by candidate position, so collection order does
// not depend on goroutine scheduling.
func (r *Ranker) scoreAll(ctx context.Context, user User, candidates []Workspace, req AllocationRequest) []SuggestedWorkspace {
	fanOut := r.FanOut
	if fanOut <= 0 {
		fanOut = DefaultFanOut
	}

	results := make([]SuggestedWorkspace, len(candidates))
	sem := make(chan struct{}, fanOut)
	var wg sync.WaitGroup

	for i, ws := range candidates {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int, ws Workspace) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			s := r.Scorer.Score(ctx, user, ws, req)
			results[i] = SuggestedWorkspace{
				Workspace:   ws,
				Suitability: s.Suitability,
				Confidence:  s.Confidence,
				Reasons:     s.Reasons,
			}
		}(i, ws)
	}
	wg.Wait()

	// Drop any slots left empty by an early cancellation break.
	out := results[:0]
	for _, s := range results {
		if s.Workspace.ID != "" {
			out = append(out, s)
		}
	}
	return out
}
