package codec

import (
	"errors"
	"fmt"
)

// Kind discriminates the closed set of ways Stringify/Parse can fail.
type Kind int

const (
	// UnsupportedType: Stringify was given a Go value outside the value
	// domain (values.go) and outside the primitive set it understands.
	UnsupportedType Kind = iota
	// MalformedDocument: Parse's input is not a well-formed encoded
	// document (bad JSON, missing root/index, wrong shapes).
	MalformedDocument
	// UnknownTag: an index entry or inline tuple carries a tag string
	// Parse does not recognize.
	UnknownTag
	// DanglingReference: a "ref" tuple points at an index slot that does not
	// exist.
	DanglingReference
)

func (k Kind) String() string {
	switch k {
	case UnsupportedType:
		return "unsupported_type"
	case MalformedDocument:
		return "malformed_document"
	case UnknownTag:
		return "unknown_tag"
	case DanglingReference:
		return "dangling_reference"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error wraps a codec failure with the operation that produced it and,
// where relevant, positional context (an index slot or a tag name).
type Error struct {
	Kind Kind
	Op   string // "stringify" or "parse"
	Path string // best-effort location: an index slot, a tag, a key
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("codec: %s: %s (%s): %v", e.Op, e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("codec: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is supports errors.Is(err, SomeKind) style checks against the sentinel
// errors below by comparing the wrapped Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	// ErrUnsupportedType is a zero-value sentinel usable with errors.Is;
	// compare by Kind, not by identity of Err/Op/Path.
	ErrUnsupportedType   = &Error{Kind: UnsupportedType}
	ErrMalformedDocument = &Error{Kind: MalformedDocument}
	ErrUnknownTag        = &Error{Kind: UnknownTag}
	ErrDanglingReference = &Error{Kind: DanglingReference}
)

func newErr(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func errUnsupported(op, path string, v any) *Error {
	return newErr(UnsupportedType, op, path, fmt.Errorf("value of type %T has no wire representation", v))
}

func errMalformed(op, path string, cause error) *Error {
	if cause == nil {
		cause = errors.New("malformed document")
	}
	return newErr(MalformedDocument, op, path, cause)
}

func errUnknownTag(op, path, tag string) *Error {
	return newErr(UnknownTag, op, path, fmt.Errorf("unrecognized tag %q", tag))
}

func errDangling(op, path string, ref int) *Error {
	return newErr(DanglingReference, op, path, fmt.Errorf("$ref %d has no index entry", ref))
}
