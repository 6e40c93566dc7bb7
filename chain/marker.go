package chain

// NestedMarker wraps a Chain that was passed as an argument to an Apply
// operation belonging to a different chain. It is the only way a chain
// crosses a chain boundary. NestedMarker values are only ever
// constructed by proxyclient when it observes that an Apply argument is
// itself a handle; nothing else in this module fabricates one.
type NestedMarker struct {
	Chain *Chain
}

// nestedBrand is an unexported marker interface. Only *NestedMarker
// implements it, which lets IsNestedMarker recognize markers by a type
// switch rather than by probing arbitrary properties of the candidate —
// probing could trigger side effects on user-supplied values.
type nestedBrand interface {
	isNestedMarker()
}

func (*NestedMarker) isNestedMarker() {}

// IsNestedMarker reports whether x was produced by wrapping a chain via the
// proxy layer. It never evaluates properties of x.
func IsNestedMarker(x any) bool {
	_, ok := x.(nestedBrand)
	return ok
}
