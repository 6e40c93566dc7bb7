// Package executor replays a recorded operation chain against a live Go
// target, the server side (and in-process test side) of the operation-
// chaining proxy: it walks Get/Apply steps, resolves nested chains
// embedded as call arguments, and binds each call to the object its
// property was read from.
package executor

import (
	"fmt"
	"reflect"

	"github.com/pithecene-io/ocan/chain"
	"github.com/pithecene-io/ocan/codec"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Executor replays chains against Go values reached through reflection.
// It holds no state between calls; the zero value is ready to use.
type Executor struct{}

// New returns a ready Executor.
func New() *Executor {
	return &Executor{}
}

// Execute validates c and replays it against root, returning the value
// the chain denotes or the first error encountered. A NestedMarker
// reachable from c's Apply arguments is evaluated against the same root
// before the operation that references it runs.
func (ex *Executor) Execute(c *chain.Chain, root any) (any, error) {
	if err := chain.Validate(c); err != nil {
		return nil, err
	}
	return ex.replay(c.Operations(), root)
}

// replay is the recursive core: both top-level chains and nested-marker
// chains run through it, always against the same root target.
func (ex *Executor) replay(ops []chain.Operation, root any) (any, error) {
	var cursor any = root
	cursorValid := true

	for i, op := range ops {
		switch op.Kind {
		case chain.Get:
			if !cursorValid || cursor == nil {
				return nil, &NullDeref{AtIndex: i}
			}
			v, ok := getProperty(cursor, op.Key)
			cursor = v
			cursorValid = ok

		case chain.Apply:
			args := make([]any, len(op.Args))
			for j, a := range op.Args {
				if nm, ok := a.(*chain.NestedMarker); ok {
					v, err := ex.replay(nm.Chain.Operations(), root)
					if err != nil {
						return nil, err
					}
					args[j] = v
				} else {
					args[j] = a
				}
			}

			bm, ok := cursor.(boundMethod)
			if !ok {
				return nil, &NotCallable{AtIndex: i, TypeOf: typeOfDescription(cursor)}
			}
			result, err := callBoundMethod(bm, args)
			if err != nil {
				return nil, err
			}
			cursor = result
			cursorValid = true
		}
	}

	if !cursorValid {
		return nil, nil
	}
	return cursor, nil
}

func typeOfDescription(v any) string {
	if v == nil {
		return "undefined"
	}
	return fmt.Sprintf("%T", v)
}

// callBoundMethod invokes bm with args, converting each to the target
// parameter type where a direct conversion exists. Return shapes
// supported: no return, a single value, a single error, or (value,
// error) — covering the idiomatic Go method signatures a registered
// actor instance would expose.
func callBoundMethod(bm boundMethod, args []any) (any, error) {
	fnType := bm.fn.Type()
	variadic := fnType.IsVariadic()

	in := make([]reflect.Value, 0, len(args))
	for i, a := range args {
		var paramType reflect.Type
		switch {
		case variadic && i >= fnType.NumIn()-1:
			paramType = fnType.In(fnType.NumIn() - 1).Elem()
		case i < fnType.NumIn():
			paramType = fnType.In(i)
		default:
			return nil, &ApplicationError{Value: codec.NewError("TypeError", fmt.Sprintf("too many arguments: no parameter at position %d", i))}
		}
		in = append(in, convertArg(a, paramType))
	}

	out := bm.fn.Call(in)

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type().Implements(errorType) {
			if out[0].IsNil() {
				return nil, nil
			}
			return nil, applicationErrorFromGo(out[0].Interface().(error))
		}
		return out[0].Interface(), nil
	default:
		last := out[len(out)-1]
		if last.Type().Implements(errorType) && !last.IsNil() {
			return nil, applicationErrorFromGo(last.Interface().(error))
		}
		return out[0].Interface(), nil
	}
}

func convertArg(a any, paramType reflect.Type) reflect.Value {
	if a == nil {
		return reflect.Zero(paramType)
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(paramType) {
		return v
	}
	if v.Type().ConvertibleTo(paramType) {
		return v.Convert(paramType)
	}
	return v
}
