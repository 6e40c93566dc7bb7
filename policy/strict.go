package policy

import "context"

// StrictPolicy serializes every dispatch: only one invocation may be in
// flight at a time, and a second caller blocks until the first releases.
// Use this when a target's methods are not safe for concurrent replay.
type StrictPolicy struct {
	sem chan struct{}
	rec statsRecorder
}

// NewStrictPolicy returns a Policy admitting one in-flight dispatch.
func NewStrictPolicy() *StrictPolicy {
	return &StrictPolicy{sem: make(chan struct{}, 1)}
}

func (p *StrictPolicy) Acquire(ctx context.Context) (func(), error) {
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

func (p *StrictPolicy) Stats() Stats {
	return p.rec.snapshot()
}
