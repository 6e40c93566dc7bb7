package main

import (
	"github.com/pithecene-io/ocan/codec"
	"github.com/pithecene-io/ocan/registry"
)

// registryView exposes the worker's registry as a chainable target so
// ocanctl's list/stats commands can browse live instances through
// the same client proxy mechanism used for any other actor.
type registryView struct {
	reg *registry.Registry
}

// instanceInfo is one row of registryView.List's result, a codec.Object
// so it survives the round trip through the wire exactly as recorded.
func instanceInfo(bindingName, instanceName string) *codec.Object {
	return codec.NewObject().
		Set("binding_name", bindingName).
		Set("instance_name", instanceName)
}

// List returns every live instance under bindingName, excluding the
// registry view's own synthetic entry.
func (v *registryView) List() *codec.Array {
	refs := v.reg.List(bindingName)
	out := codec.NewArray()
	for _, ref := range refs {
		if ref.InstanceName == registryInstanceName {
			continue
		}
		*out = append(*out, instanceInfo(ref.BindingName, ref.InstanceName))
	}
	return out
}

// Count returns the number of live, browsable instances.
func (v *registryView) Count() float64 {
	return float64(len(*v.List()))
}
