package policy

import (
	"context"
	"fmt"
)

// BufferedPolicy admits up to Max concurrent dispatches, blocking further
// callers until a slot frees up. This is the middle ground between
// NoopPolicy (unbounded) and StrictPolicy (one at a time) — useful when a
// target can handle some concurrency but a runaway client should not be
// able to flood it with unbounded in-flight invocations.
type BufferedPolicy struct {
	sem chan struct{}
	rec statsRecorder
}

// NewBufferedPolicy returns a Policy admitting at most max concurrent
// dispatches. max must be positive.
func NewBufferedPolicy(max int) (*BufferedPolicy, error) {
	if max <= 0 {
		return nil, fmt.Errorf("policy: buffered max must be > 0, got %d", max)
	}
	return &BufferedPolicy{sem: make(chan struct{}, max)}, nil
}

func (p *BufferedPolicy) Acquire(ctx context.Context) (func(), error) {
	select {
	case p.sem <- struct{}{}:
		p.rec.acquired()
		return func() {
			p.rec.released()
			<-p.sem
		}, nil
	case <-ctx.Done():
		p.rec.rejected()
		return nil, ctx.Err()
	}
}

func (p *BufferedPolicy) Stats() Stats {
	return p.rec.snapshot()
}
