// Package policy governs how a transport schedules concurrent chain
// dispatches. Distinct chains dispatched on the same session have no
// ordering among themselves unless the caller serializes with its own
// awaits — a transport that wants a stronger scheduling guarantee than
// that bare minimum needs somewhere to express it, which is what a
// Policy is for.
package policy

import (
	"context"
	"sync"
)

// Policy gates how many chain dispatches a transport runs concurrently.
// Acquire blocks (respecting ctx) until the caller may proceed, and
// returns a release func the caller must call exactly once when the
// dispatch completes.
type Policy interface {
	Acquire(ctx context.Context) (release func(), err error)
	Stats() Stats
}

// Stats is an atomic snapshot of a Policy's scheduling counters.
type Stats struct {
	Acquired int64
	Rejected int64
	InFlight int64
	MaxInUse int64
}

// statsRecorder is the mutex-guarded counter block shared by every Policy
// implementation in this package, following the same lock-then-copy
// snapshot shape used by metrics.Collector.
type statsRecorder struct {
	mu       sync.Mutex
	stats    Stats
	inFlight int64
}

func (r *statsRecorder) acquired() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Acquired++
	r.inFlight++
	r.stats.InFlight = r.inFlight
	if r.inFlight > r.stats.MaxInUse {
		r.stats.MaxInUse = r.inFlight
	}
}

func (r *statsRecorder) released() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	r.stats.InFlight = r.inFlight
}

func (r *statsRecorder) rejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Rejected++
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
