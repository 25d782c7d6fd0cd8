package health

import (
	"fmt"
	"sync"
	"time"
)

// DefaultGrace is the minimum baseline age before an image is confirmed.
const DefaultGrace = 20 * time.Second

// Canceller confirms the running image so the bootloader keeps it.
type Canceller interface {
	CancelSelfRollback() error
}

// RollbackGate decides when the running image has proven itself.
type RollbackGate struct {
	tracker   *Tracker
	canceller Canceller
	grace     time.Duration

	mu    sync.Mutex
	fired bool
}

// NewRollbackGate returns a gate over tracker. A negative grace is treated as zero.
func NewRollbackGate(tracker *Tracker, canceller Canceller, grace time.Duration) *RollbackGate {
	if grace < 0 {
		grace = 0
	}
	return &RollbackGate{tracker: tracker, canceller: canceller, grace: grace}
}

// Check confirms the image when every flag is set and the baseline is at
// least grace old at now. It returns true on the call that confirmed.
//
// Once a confirmation succeeds, later calls return (false, nil) without
// touching the canceller. A failed confirmation is returned and retried on
// the next call.
func (g *RollbackGate) Check(now time.Time) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fired {
		return false, nil
	}
	if !g.tracker.AllHealthy() {
		return false, nil
	}
	if g.tracker.Baseline().IsZero() || g.tracker.UptimeSinceBaseline(now) < g.grace {
		return false, nil
	}

	if err := g.canceller.CancelSelfRollback(); err != nil {
		return false, fmt.Errorf("confirming running image: %w", err)
	}
	g.fired = true
	return true, nil
}

// Confirmed reports whether the image has been confirmed.
func (g *RollbackGate) Confirmed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}
