/*
sweeper.go - Background allocation lifecycle advancement

PURPOSE:
  Periodically persists time-driven status advancement
  (Pending -> Active -> Completed) for committed allocations whose
  stored status lags the wall clock.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - The advancement itself is idempotent (Manager.AdvanceStatuses),
    so overlapping or repeated sweeps are harmless
  - Readers never depend on the sweep: every read path derives the
    effective status lazily. The sweep only keeps stored rows and
    status-filtered queries honest.

USAGE:
  sweeper := NewLifecycleSweeper(manager)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - allocation/lifecycle.go: EffectiveStatus
  - allocation/manager.go:   AdvanceStatuses
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/workspace-engine/allocation"
)

// LifecycleSweeper advances allocation statuses in the background.
type LifecycleSweeper struct {
	Manager       *allocation.Manager
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewLifecycleSweeper creates a sweeper with a 1-minute interval.
func NewLifecycleSweeper(manager *allocation.Manager) *LifecycleSweeper {
	return &LifecycleSweeper{
		Manager:       manager,
		CheckInterval: 1 * time.Minute,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (ls *LifecycleSweeper) Start() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if !ls.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	ls.ticker = time.NewTicker(ls.CheckInterval)
	ls.wg.Add(1)

	go ls.run()

	log.Printf("[Sweeper] Started with check interval: %v", ls.CheckInterval)
}

// Stop stops the sweeper.
func (ls *LifecycleSweeper) Stop() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.ticker != nil {
		ls.ticker.Stop()
		close(ls.stop)
		ls.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (ls *LifecycleSweeper) run() {
	defer ls.wg.Done()

	// Run immediately on start
	ls.sweep()

	for {
		select {
		case <-ls.ticker.C:
			ls.sweep()
		case <-ls.stop:
			return
		}
	}
}

func (ls *LifecycleSweeper) sweep() {
	advanced, err := ls.Manager.AdvanceStatuses(context.Background())
	if err != nil {
		log.Printf("[Sweeper] Error advancing statuses: %v", err)
		return
	}
	if advanced > 0 {
		log.Printf("[Sweeper] Advanced %d allocation(s)", advanced)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (ls *LifecycleSweeper) RunNow() {
	ls.sweep()
}
