package codec

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"math/big"
	"time"

	"github.com/pithecene-io/ocan/chain"
)

// Stringify encodes v into the structured-clone-shaped wire document: a
// JSON object with a "root" value reference and an "index" table holding
// every reference-typed value reached from it. Reference types sharing a
// Go pointer are coalesced into one index entry and linked back with
// "ref" tuples, so cycles and aliases round-trip through Parse intact.
func Stringify(v any) (string, error) {
	e := &encoder{ids: make(map[any]int)}
	root, err := e.value(v, "$")
	if err != nil {
		return "", err
	}
	doc := document{Root: root, Index: e.index}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", errMalformed("stringify", "$", err)
	}
	return string(out), nil
}

type encoder struct {
	ids   map[any]int
	index []json.RawMessage
}

// ref returns the tuple for an already-seen pointer, or reserves a new
// index slot, invokes build to populate it, and returns the new tuple.
// The slot is reserved before build runs so a cycle reachable from build
// resolves back to this same index.
func (e *encoder) ref(key any, path string, build func() (json.RawMessage, error)) (json.RawMessage, error) {
	if idx, ok := e.ids[key]; ok {
		return tuple("ref", idx), nil
	}
	idx := len(e.index)
	e.ids[key] = idx
	e.index = append(e.index, json.RawMessage("null"))
	entry, err := build()
	if err != nil {
		return nil, err
	}
	e.index[idx] = entry
	return tuple("ref", idx), nil
}

func (e *encoder) value(v any, path string) (json.RawMessage, error) {
	switch x := v.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case bool:
		return json.Marshal(x)
	case string:
		return json.Marshal(x)
	case Undefined:
		return tuple("undef", nil), nil

	case int:
		return json.Marshal(x)
	case int32:
		return json.Marshal(x)
	case int64:
		return json.Marshal(x)
	case uint64:
		return json.Marshal(x)
	case float32:
		return e.float(float64(x))
	case float64:
		return e.float(x)

	case *big.Int:
		return tuple("bigint", x.String()), nil

	case *Array:
		return e.ref(x, path, func() (json.RawMessage, error) {
			items := make([]json.RawMessage, len(*x))
			for i, item := range *x {
				enc, err := e.value(item, path)
				if err != nil {
					return nil, err
				}
				items[i] = enc
			}
			return json.Marshal(arrWire{Tag: "arr", Items: items})
		})

	case *Object:
		return e.ref(x, path, func() (json.RawMessage, error) {
			keys := x.Keys()
			entries := make([]objEntryWire, len(keys))
			for i, k := range keys {
				val, _ := x.Get(k)
				enc, err := e.value(val, path)
				if err != nil {
					return nil, err
				}
				entries[i] = objEntryWire{Key: k, Value: enc}
			}
			return json.Marshal(objWire{Tag: "obj", Entries: entries})
		})

	case *Map:
		return e.ref(x, path, func() (json.RawMessage, error) {
			entries := make([]mapEntryWire, len(x.Entries))
			for i, me := range x.Entries {
				k, err := e.value(me.Key, path)
				if err != nil {
					return nil, err
				}
				v, err := e.value(me.Value, path)
				if err != nil {
					return nil, err
				}
				entries[i] = mapEntryWire{Key: k, Value: v}
			}
			return json.Marshal(mapWire{Tag: "map", Entries: entries})
		})

	case *Set:
		return e.ref(x, path, func() (json.RawMessage, error) {
			items := make([]json.RawMessage, len(x.Items))
			for i, it := range x.Items {
				enc, err := e.value(it, path)
				if err != nil {
					return nil, err
				}
				items[i] = enc
			}
			return json.Marshal(setWire{Tag: "set", Items: items})
		})

	case *Date:
		return e.ref(x, path, func() (json.RawMessage, error) {
			return json.Marshal(dateWire{Tag: "date", Value: x.Time.UTC().Format(time.RFC3339Nano)})
		})

	case *Regex:
		return e.ref(x, path, func() (json.RawMessage, error) {
			return json.Marshal(regexWire{Tag: "regex", Source: x.Source, Flags: x.Flags})
		})

	case *ErrorValue:
		return e.ref(x, path, func() (json.RawMessage, error) {
			w := errWire{Tag: "err", Name: x.Name, Message: x.Message, Stack: x.Stack}
			if x.Cause != nil {
				c, err := e.value(x.Cause, path)
				if err != nil {
					return nil, err
				}
				w.Cause = c
			}
			if x.Props != nil {
				p, err := e.value(x.Props, path)
				if err != nil {
					return nil, err
				}
				w.Props = p
			}
			return json.Marshal(w)
		})

	case *ArrayBuffer:
		return e.ref(x, path, func() (json.RawMessage, error) {
			return json.Marshal(abWire{Tag: "ab", Bytes: base64.StdEncoding.EncodeToString(x.Bytes)})
		})

	case *TypedArray:
		return e.ref(x, path, func() (json.RawMessage, error) {
			buf, err := e.value(x.Buffer, path)
			if err != nil {
				return nil, err
			}
			return json.Marshal(taWire{Tag: "ta", Kind: string(x.Kind), Buffer: buf, ByteOffset: x.ByteOffset, Length: x.Length})
		})

	case *DataView:
		return e.ref(x, path, func() (json.RawMessage, error) {
			buf, err := e.value(x.Buffer, path)
			if err != nil {
				return nil, err
			}
			return json.Marshal(dvWire{Tag: "dv", Buffer: buf, ByteOffset: x.ByteOffset, Length: x.Length})
		})

	case *URLValue:
		return e.ref(x, path, func() (json.RawMessage, error) {
			return json.Marshal(urlWire{Tag: "url", Href: x.Href})
		})

	case *Headers:
		return e.ref(x, path, func() (json.RawMessage, error) {
			return json.Marshal(hdrsWire{Tag: "hdrs", Entries: x.Entries})
		})

	case *chain.NestedMarker:
		return e.ref(x, path, func() (json.RawMessage, error) {
			ops := x.Chain.Operations()
			wireOps := make([]chainOpWire, len(ops))
			for i, op := range ops {
				w := chainOpWire{Kind: op.Kind.String(), Key: op.Key}
				if len(op.Args) > 0 {
					args := make([]json.RawMessage, len(op.Args))
					for j, a := range op.Args {
						enc, err := e.value(a, path)
						if err != nil {
							return nil, err
						}
						args[j] = enc
					}
					w.Args = args
				}
				wireOps[i] = w
			}
			return json.Marshal(chainWire{Tag: "chain", Ops: wireOps})
		})

	default:
		return nil, errUnsupported("stringify", path, v)
	}
}

func (e *encoder) float(f float64) (json.RawMessage, error) {
	switch {
	case math.IsNaN(f):
		return tuple("nan", nil), nil
	case math.IsInf(f, 1):
		return tuple("pinf", nil), nil
	case math.IsInf(f, -1):
		return tuple("ninf", nil), nil
	case f == 0 && math.Signbit(f):
		return tuple("nzero", nil), nil
	default:
		return json.Marshal(f)
	}
}
