package registry

import (
	"errors"
	"fmt"
)

// ErrDuplicateInstance is returned by Register when a (bindingName,
// instanceName) pair already names a live instance.
var ErrDuplicateInstance = errors.New("registry: instance already registered")

// ErrInstanceGone is returned when a weakly-held instance has been
// garbage collected since registration, or was never registered.
var ErrInstanceGone = errors.New("registry: instance no longer live")

type duplicateInstanceError struct {
	binding, instance string
}

func (e *duplicateInstanceError) Error() string {
	return fmt.Sprintf("registry: instance already registered for (%s, %s)", e.binding, e.instance)
}

func (e *duplicateInstanceError) Unwrap() error {
	return ErrDuplicateInstance
}
