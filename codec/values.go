// Package codec implements the structured-clone-shaped JSON wire format:
// Stringify/Parse round-trip the full value domain (cycles, aliases, typed
// arrays, maps, sets, regex, dates, errors, and the web-API value types)
// used as the transport payload by the OCAN proxy.
package codec

import (
	"math/big"
	"time"
)

// Undefined is the codec's representation of the JavaScript `undefined`
// value, distinct from nil (which represents `null`). It carries no
// identity and is never placed in the index table.
type Undefined struct{}

// Undef is the single Undefined value. Compare with ==.
var Undef = Undefined{}

// Array is a JS-array-shaped reference value. Identity is the *Array
// pointer; two positions sharing the same *Array decode back to the same
// pointer.
type Array []any

// NewArray builds an *Array from its elements. Use codec.Undef for sparse
// slots.
func NewArray(items ...any) *Array {
	a := Array(items)
	return &a
}

// Object is an ordered, string-keyed reference value (the "obj" tag).
// Key order is insertion order and is preserved across encode/decode.
type Object struct {
	keys []string
	vals map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{vals: make(map[string]any)}
}

// Set assigns key to value, appending key to the order if new.
func (o *Object) Set(key string, value any) *Object {
	if _, exists := o.vals[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = value
	return o
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Keys returns the own-enumerable keys in insertion order.
func (o *Object) Keys() []string {
	return o.keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// MapEntry is one key/value pair of a Map, in insertion order.
type MapEntry struct {
	Key   any
	Value any
}

// Map is an ordered reference value whose keys may be any Value (the "map"
// tag); this is JS's Map, not a Go map (which cannot preserve insertion
// order or hold non-string keys generically).
type Map struct {
	Entries []MapEntry
}

// NewMap builds a Map from entries in insertion order.
func NewMap(entries ...MapEntry) *Map {
	return &Map{Entries: entries}
}

// Set assigns key to value. An existing key keeps its original position
// (JS Map.set semantics); a new key is appended.
func (m *Map) Set(key, value any) *Map {
	for i := range m.Entries {
		if sameValue(m.Entries[i].Key, key) {
			m.Entries[i].Value = value
			return m
		}
	}
	m.Entries = append(m.Entries, MapEntry{Key: key, Value: value})
	return m
}

// Get looks up a key by value equality.
func (m *Map) Get(key any) (any, bool) {
	for _, e := range m.Entries {
		if sameValue(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// Set is an ordered reference value (the "set" tag).
type Set struct {
	Items []any
}

// NewSet builds a Set from items, preserving first-occurrence order
// and deduplicating.
func NewSet(items ...any) *Set {
	s := &Set{}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add appends v if not already present.
func (s *Set) Add(v any) *Set {
	for _, existing := range s.Items {
		if sameValue(existing, v) {
			return s
		}
	}
	s.Items = append(s.Items, v)
	return s
}

// sameValue is a pragmatic equality check for Map/Set key dedup: direct ==
// for comparable dynamic types (our reference types are always pointers,
// hence comparable), false otherwise. This does not implement JS's full
// SameValueZero (NaN-equals-NaN, -0-equals-+0); nothing in this module
// depends on NaN-keyed dedup.
func sameValue(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// Date is a reference-typed timestamp (the "date" tag).
type Date struct {
	Time time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) *Date {
	return &Date{Time: t}
}

// Regex is a regular expression literal (the "regex" tag). Source/Flags are
// carried as-is; this codec does not compile them (JS regex syntax is not
// Go's regexp syntax).
type Regex struct {
	Source string
	Flags  string
}

// ErrorValue is a structured-clone error object (the "err" tag).
type ErrorValue struct {
	Name    string
	Message string
	Stack   *string
	Cause   any
	Props   *Object
}

// NewError builds an ErrorValue.
func NewError(name, message string) *ErrorValue {
	return &ErrorValue{Name: name, Message: message}
}

func (e *ErrorValue) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

// ArrayBuffer is a raw byte buffer (the "ab" tag). Multiple TypedArray/
// DataView views may alias the same *ArrayBuffer; identity is preserved.
type ArrayBuffer struct {
	Bytes []byte
}

// NewArrayBuffer wraps b (not copied).
func NewArrayBuffer(b []byte) *ArrayBuffer {
	return &ArrayBuffer{Bytes: b}
}

// TypedArrayKind enumerates the supported typed-array element kinds.
type TypedArrayKind string

// Supported typed array kinds.
const (
	Int8ArrayKind    TypedArrayKind = "i8"
	Uint8ArrayKind   TypedArrayKind = "u8"
	Uint8ClampedKind TypedArrayKind = "u8c"
	Int16ArrayKind   TypedArrayKind = "i16"
	Uint16ArrayKind  TypedArrayKind = "u16"
	Int32ArrayKind   TypedArrayKind = "i32"
	Uint32ArrayKind  TypedArrayKind = "u32"
	Float32ArrayKind TypedArrayKind = "f32"
	Float64ArrayKind TypedArrayKind = "f64"
	BigInt64Kind     TypedArrayKind = "bi64"
	BigUint64Kind    TypedArrayKind = "bu64"
)

// elementSize returns the byte width of one element of kind.
func (k TypedArrayKind) elementSize() int {
	switch k {
	case Int8ArrayKind, Uint8ArrayKind, Uint8ClampedKind:
		return 1
	case Int16ArrayKind, Uint16ArrayKind:
		return 2
	case Int32ArrayKind, Uint32ArrayKind, Float32ArrayKind:
		return 4
	case Float64ArrayKind, BigInt64Kind, BigUint64Kind:
		return 8
	default:
		return 0
	}
}

// TypedArray is a typed view over an ArrayBuffer (the "ta" tag).
type TypedArray struct {
	Kind       TypedArrayKind
	Buffer     *ArrayBuffer
	ByteOffset int
	Length     int // element count
}

// NewTypedArray builds a view over buf starting at byteOffset with the
// given element count.
func NewTypedArray(kind TypedArrayKind, buf *ArrayBuffer, byteOffset, length int) *TypedArray {
	return &TypedArray{Kind: kind, Buffer: buf, ByteOffset: byteOffset, Length: length}
}

// Bytes returns the view's backing bytes (no copy).
func (t *TypedArray) Bytes() []byte {
	size := t.Length * t.Kind.elementSize()
	return t.Buffer.Bytes[t.ByteOffset : t.ByteOffset+size]
}

// DataView is an untyped byte-level view over an ArrayBuffer (the "dv" tag).
type DataView struct {
	Buffer     *ArrayBuffer
	ByteOffset int
	Length     int // byte length
}

// NewDataView builds a view over buf.
func NewDataView(buf *ArrayBuffer, byteOffset, length int) *DataView {
	return &DataView{Buffer: buf, ByteOffset: byteOffset, Length: length}
}

// Bytes returns the view's backing bytes (no copy).
func (d *DataView) Bytes() []byte {
	return d.Buffer.Bytes[d.ByteOffset : d.ByteOffset+d.Length]
}

// URLValue is the "url" tag: a canonical href string.
type URLValue struct {
	Href string
}

// NewURL wraps href.
func NewURL(href string) *URLValue {
	return &URLValue{Href: href}
}

// Headers is the "hdrs" tag: an ordered list of name/value pairs.
type Headers struct {
	Entries [][2]string
}

// NewHeaders builds a Headers from name/value pairs in iteration order.
func NewHeaders(pairs ...[2]string) *Headers {
	return &Headers{Entries: pairs}
}

// BigInt wraps *big.Int as the codec's bigint primitive-like value. It is
// not placed in the index (primitive duplicates are not coalesced).
type BigInt = big.Int

// NewBigInt builds a BigInt from a decimal string.
func NewBigInt(decimal string) (*BigInt, bool) {
	return new(big.Int).SetString(decimal, 10)
}
