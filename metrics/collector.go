// Package metrics provides process-lifetime metrics collection for the
// proxy/executor/transport stack. The Collector accumulates counters
// across every chain dispatched through a given process; it is a leaf
// package with no internal dependencies.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of every counter.
// Returned by Collector.Snapshot(). Safe to read concurrently after
// creation.
type Snapshot struct {
	// Dispatch: chains handed to a Dispatcher (proxyclient.Handle.Await).
	DispatchStarted   int64
	DispatchSucceeded int64
	DispatchFailed    int64

	// Codec: Stringify/Parse failures observed while encoding a chain or
	// decoding a response.
	CodecEncodeErrors int64
	CodecDecodeErrors int64

	// Executor: replay failures surfaced by executor.Execute (NullDeref,
	// NotCallable, ApplicationError).
	ExecutorFailures int64

	// Transport: retry attempts and terminal transport-level failures
	// (connection refused, truncated response, deadline exceeded).
	TransportRetries int64
	TransportTimeout int64
	TransportFailure int64

	// Dimensions (informational, set at construction).
	Transport   string
	BindingName string
}

// Collector accumulates metrics for one process's lifetime.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver
// safe, so a *Collector obtained from an optional config field can be
// used unconditionally without a nil check at each call site.
type Collector struct {
	mu sync.Mutex

	dispatchStarted   int64
	dispatchSucceeded int64
	dispatchFailed    int64

	codecEncodeErrors int64
	codecDecodeErrors int64

	executorFailures int64

	transportRetries int64
	transportTimeout int64
	transportFailure int64

	transport   string
	bindingName string
}

// NewCollector creates a Collector labeled with the transport kind
// ("http" or "process") and the binding name it serves.
func NewCollector(transport, bindingName string) *Collector {
	return &Collector{transport: transport, bindingName: bindingName}
}

// --- Dispatch ---

// IncDispatchStarted records a chain handed to a Dispatcher.
func (c *Collector) IncDispatchStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.dispatchStarted++
	c.mu.Unlock()
}

// IncDispatchSucceeded records a dispatch that returned a value.
func (c *Collector) IncDispatchSucceeded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.dispatchSucceeded++
	c.mu.Unlock()
}

// IncDispatchFailed records a dispatch that returned an error, whether
// from the codec, the executor, or the transport itself.
func (c *Collector) IncDispatchFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.dispatchFailed++
	c.mu.Unlock()
}

// --- Codec ---

// IncCodecEncodeError records a Stringify failure.
func (c *Collector) IncCodecEncodeError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.codecEncodeErrors++
	c.mu.Unlock()
}

// IncCodecDecodeError records a Parse failure.
func (c *Collector) IncCodecDecodeError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.codecDecodeErrors++
	c.mu.Unlock()
}

// --- Executor ---

// IncExecutorFailure records a chain replay failure on the server side.
func (c *Collector) IncExecutorFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.executorFailures++
	c.mu.Unlock()
}

// --- Transport ---

// IncTransportRetry records one retry attempt after a transient failure.
func (c *Collector) IncTransportRetry() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.transportRetries++
	c.mu.Unlock()
}

// IncTransportTimeout records a dispatch that failed with a deadline.
func (c *Collector) IncTransportTimeout() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.transportTimeout++
	c.mu.Unlock()
}

// IncTransportFailure records a terminal transport-level failure.
func (c *Collector) IncTransportFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.transportFailure++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		DispatchStarted:   c.dispatchStarted,
		DispatchSucceeded: c.dispatchSucceeded,
		DispatchFailed:    c.dispatchFailed,

		CodecEncodeErrors: c.codecEncodeErrors,
		CodecDecodeErrors: c.codecDecodeErrors,

		ExecutorFailures: c.executorFailures,

		TransportRetries: c.transportRetries,
		TransportTimeout: c.transportTimeout,
		TransportFailure: c.transportFailure,

		Transport:   c.transport,
		BindingName: c.bindingName,
	}
}
