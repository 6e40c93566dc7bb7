// Package registry tracks live actor instances by (bindingName,
// instanceName) for test-mode use, and hands out a proxyclient.Handle
// whose dispatcher runs the executor directly in-process against the
// resolved instance — no transport in between.
package registry

import (
	"context"
	"sync"
	"time"
	"weak"

	"github.com/pithecene-io/ocan/adapter"
	"github.com/pithecene-io/ocan/chain"
	"github.com/pithecene-io/ocan/executor"
	"github.com/pithecene-io/ocan/proxyclient"
)

type key struct {
	Binding  string
	Instance string
}

type entry struct {
	binding      string
	instance     string
	resolve      func() (any, bool)
	registeredAt time.Time
}

// Registry is a mutex-guarded map from (bindingName, instanceName) to a
// live instance. Callers may register and resolve from any goroutine, so
// mutations are guarded by a mutex rather than relying on cooperative
// scheduling.
type Registry struct {
	mu      sync.Mutex
	entries map[key]*entry
	order   []key
	adapter adapter.Adapter
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithAdapter publishes a LifecycleEvent through a every time Register,
// Resolve, or Unregister changes the registry's observable state — an
// operator embedding the registry in a long-running process naturally
// wants to observe instance churn.
func WithAdapter(a adapter.Adapter) Option {
	return func(r *Registry) { r.adapter = a }
}

// New returns an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{entries: make(map[key]*entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) publish(eventType adapter.EventType, bindingName, instanceName string) {
	if r.adapter == nil {
		return
	}
	_ = r.adapter.Publish(context.Background(), &adapter.LifecycleEvent{
		ContractVersion: "1.0",
		EventType:       eventType,
		BindingName:     bindingName,
		InstanceName:    instanceName,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	})
}

// Register binds a weak reference to ptr under (bindingName,
// instanceName). It is a package-level generic function rather than a
// method because Go methods cannot carry their own type parameters and
// weak.Pointer needs a concrete pointee type to weakly reference.
func Register[T any](r *Registry, bindingName, instanceName string, ptr *T) error {
	w := weak.Make(ptr)
	resolve := func() (any, bool) {
		v := w.Value()
		if v == nil {
			return nil, false
		}
		return v, true
	}

	k := key{Binding: bindingName, Instance: instanceName}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[k]; ok {
		if _, alive := existing.resolve(); alive {
			return &duplicateInstanceError{binding: bindingName, instance: instanceName}
		}
	} else {
		r.order = append(r.order, k)
	}
	r.entries[k] = &entry{binding: bindingName, instance: instanceName, resolve: resolve, registeredAt: time.Now()}
	r.publish(adapter.EventRegistered, bindingName, instanceName)
	return nil
}

// Resolve returns the live instance for (bindingName, instanceName), or
// ok=false if it was never registered or has since been collected.
func (r *Registry) Resolve(bindingName, instanceName string) (any, bool) {
	r.mu.Lock()
	e, ok := r.entries[key{Binding: bindingName, Instance: instanceName}]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	inst, alive := e.resolve()
	if alive {
		r.publish(adapter.EventResolved, bindingName, instanceName)
	}
	return inst, alive
}

// Unregister drops the (bindingName, instanceName) entry, if present.
func (r *Registry) Unregister(bindingName, instanceName string) {
	r.mu.Lock()
	_, existed := r.entries[key{Binding: bindingName, Instance: instanceName}]
	delete(r.entries, key{Binding: bindingName, Instance: instanceName})
	r.mu.Unlock()
	if existed {
		r.publish(adapter.EventUnregistered, bindingName, instanceName)
	}
}

// InstanceRef is one snapshot row returned by List.
type InstanceRef struct {
	BindingName  string
	InstanceName string
	Instance     any
}

// List returns a snapshot of live instances ordered by registration
// time, optionally filtered to one bindingName (pass "" for all).
func (r *Registry) List(bindingName string) []InstanceRef {
	r.mu.Lock()
	order := make([]key, len(r.order))
	copy(order, r.order)
	entries := make(map[key]*entry, len(r.entries))
	for k, e := range r.entries {
		entries[k] = e
	}
	r.mu.Unlock()

	var out []InstanceRef
	for _, k := range order {
		if bindingName != "" && k.Binding != bindingName {
			continue
		}
		e, ok := entries[k]
		if !ok {
			continue
		}
		inst, alive := e.resolve()
		if !alive {
			continue
		}
		out = append(out, InstanceRef{BindingName: k.Binding, InstanceName: k.Instance, Instance: inst})
	}
	return out
}

// ClientFor returns a proxy handle whose dispatcher replays chains
// directly against the registered instance via the executor, with no
// network transport involved — the test-mode shortcut.
func (r *Registry) ClientFor(bindingName, instanceName string) *proxyclient.Handle {
	d := &directDispatcher{registry: r, binding: bindingName, instance: instanceName}
	return proxyclient.New(d, instanceName)
}

type directDispatcher struct {
	registry          *Registry
	binding, instance string
}

func (d *directDispatcher) Dispatch(_ context.Context, c *chain.Chain, _ string) (any, error) {
	inst, ok := d.registry.Resolve(d.binding, d.instance)
	if !ok {
		return nil, ErrInstanceGone
	}
	return executor.New().Execute(c, inst)
}

// Dispose is a no-op for the in-process test dispatcher: instance
// lifetime is owned by whatever registered it, not by the handle.
func (d *directDispatcher) Dispose(context.Context, string) error {
	return nil
}
