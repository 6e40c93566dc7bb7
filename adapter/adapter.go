// Package adapter defines the event-bus boundary the registry publishes
// instance-lifecycle notifications through. An operator embedding the
// registry in a long-running process naturally wants to observe when
// actor instances come and go, so the registry accepts an optional
// Adapter and publishes to it on register/resolve/unregister.
package adapter

import "context"

// EventType discriminates the lifecycle transitions a registry publishes.
type EventType string

const (
	// EventRegistered fires when Register binds a new instance.
	EventRegistered EventType = "registered"
	// EventResolved fires when Resolve successfully returns a live instance.
	EventResolved EventType = "resolved"
	// EventUnregistered fires when Unregister drops an entry.
	EventUnregistered EventType = "unregistered"
)

// LifecycleEvent is the payload published for a registry state transition.
type LifecycleEvent struct {
	ContractVersion string    `json:"contract_version"`
	EventType       EventType `json:"event_type"`
	BindingName     string    `json:"binding_name"`
	InstanceName    string    `json:"instance_name"`
	Timestamp       string    `json:"timestamp"` // ISO 8601
}

// Adapter publishes registry lifecycle events to a downstream system.
// Implementations must be safe for concurrent Publish calls: the registry
// may fire events from multiple goroutines.
type Adapter interface {
	// Publish sends a lifecycle event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *LifecycleEvent) error

	// Close releases adapter resources.
	Close() error
}
