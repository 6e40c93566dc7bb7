package executor

import (
	"reflect"
	"strings"

	"github.com/pithecene-io/ocan/codec"
)

// boundMethod is the callable a Get can resolve to: a reflect.Value of
// Kind Func already bound to its receiver. Go methods obtained through
// reflect.Value.MethodByName carry their receiver automatically: a Go
// method value IS the container-bound call.
type boundMethod struct {
	fn reflect.Value
}

// exported maps a recorded property key (typically camelCase, e.g.
// "bump") to the exported Go identifier a target struct would use
// ("Bump"). Unexported fields and methods are never reachable from a
// chain.
func exported(key string) string {
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

// getProperty reads the named property from cursor, returning the value
// and whether it existed. A cursor that does not carry the property
// resolves to (nil, false); the caller treats that as the chain's
// undefined result.
func getProperty(cursor any, key string) (any, bool) {
	switch c := cursor.(type) {
	case *codec.Object:
		return c.Get(key)
	case map[string]any:
		v, ok := c[key]
		return v, ok
	}

	rv := reflect.ValueOf(cursor)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	name := exported(key)

	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface(), true
		}
	}

	// Methods are resolved against the original (possibly pointer)
	// receiver so pointer-receiver methods remain reachable.
	orig := reflect.ValueOf(cursor)
	if m := orig.MethodByName(name); m.IsValid() {
		return boundMethod{fn: m}, true
	}
	if rv.IsValid() {
		if m := rv.MethodByName(name); m.IsValid() {
			return boundMethod{fn: m}, true
		}
	}

	return nil, false
}
