package executor

import (
	"fmt"

	"github.com/pithecene-io/ocan/codec"
)

// NullDeref is returned when a Get is attempted against a nil/undefined
// cursor.
type NullDeref struct {
	AtIndex int
}

func (e *NullDeref) Error() string {
	return fmt.Sprintf("executor: null dereference at operation %d", e.AtIndex)
}

// NotCallable is returned when an Apply is attempted against a cursor
// that is not a function or bound method.
type NotCallable struct {
	AtIndex int
	TypeOf  string
}

func (e *NotCallable) Error() string {
	return fmt.Sprintf("executor: value of type %s at operation %d is not callable", e.TypeOf, e.AtIndex)
}

// ApplicationError wraps a failure returned by the target's own method.
// Value is the codec's err-tagged representation, ready to be serialized
// back to the caller by the transport layer untouched.
type ApplicationError struct {
	Value *codec.ErrorValue
}

func (e *ApplicationError) Error() string {
	return e.Value.Error()
}

func (e *ApplicationError) Unwrap() error {
	return e.Value
}

// applicationErrorFromGo wraps a plain Go error returned by a replayed
// method call into the codec's Error value shape, so it can cross the
// wire the same way a thrown error would. A method that already
// constructs its failure as a *codec.ErrorValue
// (to carry a specific Name or custom Props) is passed through as-is
// rather than flattened to a generic "Error".
func applicationErrorFromGo(err error) *ApplicationError {
	if ev, ok := err.(*codec.ErrorValue); ok {
		return &ApplicationError{Value: ev}
	}
	return &ApplicationError{Value: codec.NewError("Error", err.Error())}
}
