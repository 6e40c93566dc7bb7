// Package proxyclient is the client-side façade of the operation-chain
// proxy. Go has no dynamic property interception, so instead of a
// transparent object whose every property read is trapped, this
// package hands back a typed Handle: calling Get/Call returns a new
// Handle with one more recorded operation, and nothing is sent over the
// wire until Await is called.
package proxyclient

import (
	"context"
	"sync"

	"github.com/pithecene-io/ocan/chain"
)

// Dispatcher is the capability a Handle needs to materialize: send a
// closed chain to wherever it is replayed (direct in-process executor,
// HTTP, or a long-lived channel) and get back the deserialized result,
// plus a way to release session resources. transport.HTTPTransport,
// transport.ProcessTransport and the registry's in-process dispatcher all
// satisfy this.
type Dispatcher interface {
	Dispatch(ctx context.Context, c *chain.Chain, session string) (any, error)
	Dispose(ctx context.Context, session string) error
}

// State is one of the four states a Handle passes through.
type State int

const (
	// Recording accepts further Get/Apply.
	Recording State = iota
	// Dispatching means Await has been called and a response is pending.
	Dispatching
	// Settled means a response has been received; the chain is frozen.
	Settled
	// Disposed means Dispose has been called; the session is released.
	Disposed
)

func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Dispatching:
		return "dispatching"
	case Settled:
		return "settled"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Handle is the client-visible stand-in for a remote target. Each Get or
// Call returns a new Handle carrying an extended chain; the receiver is
// left untouched, so handles are freely clonable snapshots.
type Handle struct {
	mu         sync.Mutex
	chain      *chain.Chain
	state      State
	dispatcher Dispatcher
	session    string
}

// New returns a Handle recording against an empty chain, dispatched
// through dispatcher under session when eventually awaited.
func New(dispatcher Dispatcher, session string) *Handle {
	return &Handle{chain: chain.New(), state: Recording, dispatcher: dispatcher, session: session}
}

// Chain returns the handle's recorded chain. Exposed for the registry
// and tests; proxyclient callers normally only need Get/Call/Await.
func (h *Handle) Chain() *chain.Chain {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.chain
}

// State reports the handle's current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Get returns a new Handle with a Get(key) operation appended.
func (h *Handle) Get(key string) (*Handle, error) {
	return h.extend(chain.GetOp(key))
}

// Call returns a new Handle with an Apply operation appended. Any
// argument that is itself a *Handle is replaced by a NestedOperationMarker
// wrapping that handle's own chain — the only way a chain crosses into
// another chain's argument list.
func (h *Handle) Call(args ...any) (*Handle, error) {
	transformed := make([]any, len(args))
	for i, a := range args {
		if nested, ok := a.(*Handle); ok {
			transformed[i] = &chain.NestedMarker{Chain: nested.Chain()}
		} else {
			transformed[i] = a
		}
	}
	return h.extend(chain.ApplyOp(transformed...))
}

func (h *Handle) extend(op chain.Operation) (*Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != Recording {
		return nil, chain.ErrChainClosed
	}
	next, err := h.chain.Append(op)
	if err != nil {
		return nil, err
	}
	return &Handle{chain: next, state: Recording, dispatcher: h.dispatcher, session: h.session}, nil
}

// Await materializes the chain: it closes the chain, dispatches it, and
// returns the deserialized result. A handle is not cached — a second
// Await re-dispatches the same (now-closed) chain as a fresh round trip,
// never a replayed cached result.
func (h *Handle) Await(ctx context.Context) (any, error) {
	h.mu.Lock()
	if h.state == Disposed {
		h.mu.Unlock()
		return nil, chain.ErrChainClosed
	}
	c := h.chain
	c.Close()
	h.state = Dispatching
	dispatcher, session := h.dispatcher, h.session
	h.mu.Unlock()

	result, err := dispatcher.Dispatch(ctx, c, session)

	h.mu.Lock()
	h.state = Settled
	h.mu.Unlock()

	return result, err
}

// Dispose releases any server-side session state. It is idempotent: a
// second call is a no-op returning nil, matching this module's other
// lifecycle-managed resources.
func (h *Handle) Dispose() error {
	h.mu.Lock()
	if h.state == Disposed {
		h.mu.Unlock()
		return nil
	}
	h.state = Disposed
	dispatcher, session := h.dispatcher, h.session
	h.mu.Unlock()

	return dispatcher.Dispose(context.Background(), session)
}
