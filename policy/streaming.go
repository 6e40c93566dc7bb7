package policy

import (
	"context"
	"fmt"
	"sync"
)

// StreamingPolicy admits dispatches freely within a window of fixed size,
// then holds new callers at a barrier until every in-flight dispatch from
// the window has released. The effect is batched bursts: up to Window
// invocations run concurrently, the batch drains completely, and the next
// batch begins. Useful against targets that tolerate concurrency but need
// periodic quiescent points (cache rotation, snapshotting).
type StreamingPolicy struct {
	window int
	rec    statsRecorder

	mu       sync.Mutex
	inWindow int
	inFlight int
	barrier  bool
	drained  chan struct{}
}

// NewStreamingPolicy returns a Policy admitting Window concurrent
// dispatches per batch. window must be positive.
func NewStreamingPolicy(window int) (*StreamingPolicy, error) {
	if window <= 0 {
		return nil, fmt.Errorf("policy: streaming window must be > 0, got %d", window)
	}
	return &StreamingPolicy{window: window}, nil
}

func (p *StreamingPolicy) Acquire(ctx context.Context) (func(), error) {
	p.mu.Lock()
	for p.barrier {
		ch := p.drained
		p.mu.Unlock()
		select {
		case <-ctx.Done():
			p.rec.rejected()
			return nil, ctx.Err()
		case <-ch:
		}
		p.mu.Lock()
	}

	p.inWindow++
	p.inFlight++
	if p.inWindow >= p.window {
		// Window exhausted: engage the barrier. It lifts when the last
		// in-flight dispatch from this batch releases.
		p.barrier = true
		p.inWindow = 0
		p.drained = make(chan struct{})
	}
	p.mu.Unlock()

	p.rec.acquired()
	return func() {
		p.rec.released()
		p.mu.Lock()
		p.inFlight--
		if p.barrier && p.inFlight == 0 {
			p.barrier = false
			close(p.drained)
		}
		p.mu.Unlock()
	}, nil
}

func (p *StreamingPolicy) Stats() Stats {
	return p.rec.snapshot()
}
