package codec

import (
	"math"
	"testing"
	"time"

	"github.com/pithecene-io/ocan/chain"
)

func roundTrip(t *testing.T, v any) any {
	t.Helper()
	text, err := Stringify(v)
	if err != nil {
		t.Fatalf("Stringify: %v", err)
	}
	out, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return out
}

func TestRoundTripPrimitives(t *testing.T) {
	cases := []any{nil, true, false, "hello", 3.5, Undef}
	for _, c := range cases {
		got := roundTrip(t, c)
		if got != c {
			t.Errorf("roundTrip(%#v) = %#v", c, got)
		}
	}
}

func TestRoundTripSpecialNumbers(t *testing.T) {
	nan := roundTrip(t, math.NaN())
	if f, ok := nan.(float64); !ok || !math.IsNaN(f) {
		t.Fatalf("NaN round-trip = %#v", nan)
	}
	pinf := roundTrip(t, math.Inf(1))
	if f, ok := pinf.(float64); !ok || !math.IsInf(f, 1) {
		t.Fatalf("+Inf round-trip = %#v", pinf)
	}
	nzero := roundTrip(t, math.Copysign(0, -1))
	f, ok := nzero.(float64)
	if !ok || f != 0 || !math.Signbit(f) {
		t.Fatalf("-0 round-trip = %#v", nzero)
	}
}

func TestRoundTripBigInt(t *testing.T) {
	bi, _ := NewBigInt("123456789012345678901234567890")
	got := roundTrip(t, bi)
	gbi, ok := got.(*BigInt)
	if !ok || gbi.String() != bi.String() {
		t.Fatalf("bigint round-trip = %#v", got)
	}
}

func TestRoundTripArrayPreservesOrder(t *testing.T) {
	arr := NewArray("a", "b", "c")
	got := roundTrip(t, arr)
	out, ok := got.(*Array)
	if !ok || len(*out) != 3 {
		t.Fatalf("array round-trip = %#v", got)
	}
	for i, want := range []string{"a", "b", "c"} {
		if (*out)[i] != want {
			t.Errorf("index %d = %v, want %v", i, (*out)[i], want)
		}
	}
}

func TestRoundTripObjectPreservesKeyOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("z", 1.0)
	obj.Set("a", 2.0)
	got := roundTrip(t, obj)
	out, ok := got.(*Object)
	if !ok {
		t.Fatalf("got %#v, want *Object", got)
	}
	if keys := out.Keys(); len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Fatalf("keys = %v, want [z a]", keys)
	}
}

// TestRoundTripAliasedReference covers two positions sharing the same
// array: after round-tripping, both slots must point
// at the identical *Array, not merely equal ones.
func TestRoundTripAliasedReference(t *testing.T) {
	shared := NewArray(1.0, 2.0)
	container := NewArray(shared, shared)

	got := roundTrip(t, container)
	out := got.(*Array)
	first := (*out)[0].(*Array)
	second := (*out)[1].(*Array)
	if first != second {
		t.Fatalf("aliased array lost identity: %p != %p", first, second)
	}
}

// TestRoundTripCycle covers an object referencing itself through a
// property.
func TestRoundTripCycle(t *testing.T) {
	obj := NewObject()
	obj.Set("self", obj)

	got := roundTrip(t, obj)
	out := got.(*Object)
	self, ok := out.Get("self")
	if !ok {
		t.Fatalf("missing self key")
	}
	if self.(*Object) != out {
		t.Fatalf("cycle did not preserve identity")
	}
}

func TestRoundTripTypedArrayAliasing(t *testing.T) {
	buf := NewArrayBuffer([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	a := NewTypedArray(Uint8ArrayKind, buf, 0, 4)
	b := NewTypedArray(Uint8ArrayKind, buf, 4, 4)
	container := NewArray(a, b)

	got := roundTrip(t, container)
	out := got.(*Array)
	ga := (*out)[0].(*TypedArray)
	gb := (*out)[1].(*TypedArray)
	if ga.Buffer != gb.Buffer {
		t.Fatalf("typed arrays lost shared buffer identity")
	}
	if string(ga.Bytes()) != "\x01\x02\x03\x04" {
		t.Errorf("a.Bytes() = %v", ga.Bytes())
	}
	if string(gb.Bytes()) != "\x05\x06\x07\x08" {
		t.Errorf("b.Bytes() = %v", gb.Bytes())
	}
}

func TestRoundTripMap(t *testing.T) {
	m := NewMap()
	m.Set("k1", 1.0)
	m.Set("k2", 2.0)

	got := roundTrip(t, m)
	out := got.(*Map)
	if v, ok := out.Get("k1"); !ok || v != 1.0 {
		t.Fatalf("Get(k1) = %v, %v", v, ok)
	}
	if len(out.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(out.Entries))
	}
}

func TestRoundTripSet(t *testing.T) {
	s := NewSet(1.0, 2.0, 3.0)
	got := roundTrip(t, s)
	out := got.(*Set)
	if len(out.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(out.Items))
	}
}

func TestRoundTripDate(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got := roundTrip(t, NewDate(ts))
	out := got.(*Date)
	if !out.Time.Equal(ts) {
		t.Fatalf("Time = %v, want %v", out.Time, ts)
	}
}

func TestRoundTripErrorWithCause(t *testing.T) {
	cause := NewError("TypeError", "inner failure")
	outer := NewError("Error", "outer failure")
	outer.Cause = cause

	got := roundTrip(t, outer)
	out := got.(*ErrorValue)
	if out.Message != "outer failure" {
		t.Fatalf("Message = %q", out.Message)
	}
	innerCause, ok := out.Cause.(*ErrorValue)
	if !ok || innerCause.Message != "inner failure" {
		t.Fatalf("Cause = %#v", out.Cause)
	}
}

func TestRoundTripNestedChainMarker(t *testing.T) {
	inner := chain.New()
	inner, _ = inner.Append(chain.GetOp("counter"))
	marker := &chain.NestedMarker{Chain: inner}

	outer := NewArray(marker)
	got := roundTrip(t, outer)
	out := got.(*Array)
	m, ok := (*out)[0].(*chain.NestedMarker)
	if !ok {
		t.Fatalf("element 0 = %#v, want *chain.NestedMarker", (*out)[0])
	}
	ops := m.Chain.Operations()
	if len(ops) != 1 || ops[0].Kind != chain.Get || ops[0].Key != "counter" {
		t.Fatalf("decoded chain ops = %#v", ops)
	}
}

func TestParseRejectsUnknownTag(t *testing.T) {
	_, err := Parse(`{"root":["ref",0],"index":[{"tag":"bogus"}]}`)
	if err == nil {
		t.Fatal("expected error for unknown tag")
	}
	ce, ok := err.(*Error)
	if !ok || ce.Kind != UnknownTag {
		t.Fatalf("err = %#v, want UnknownTag", err)
	}
}

func TestParseRejectsDanglingReference(t *testing.T) {
	_, err := Parse(`{"root":["ref",7],"index":[]}`)
	if err == nil {
		t.Fatal("expected error for dangling reference")
	}
	ce, ok := err.(*Error)
	if !ok || ce.Kind != DanglingReference {
		t.Fatalf("err = %#v, want DanglingReference", err)
	}
}

func TestStringifyRejectsUnsupportedType(t *testing.T) {
	type unknown struct{ X int }
	_, err := Stringify(unknown{X: 1})
	if err == nil {
		t.Fatal("expected error for unsupported type")
	}
	ce, ok := err.(*Error)
	if !ok || ce.Kind != UnsupportedType {
		t.Fatalf("err = %#v, want UnsupportedType", err)
	}
}

func TestStringifyIsDeterministicForEquivalentInput(t *testing.T) {
	build := func() *Object {
		o := NewObject()
		o.Set("a", 1.0)
		o.Set("b", NewArray(1.0, 2.0))
		return o
	}
	a, err := Stringify(build())
	if err != nil {
		t.Fatalf("Stringify: %v", err)
	}
	b, err := Stringify(build())
	if err != nil {
		t.Fatalf("Stringify: %v", err)
	}
	if a != b {
		t.Fatalf("Stringify not deterministic:\n%s\n%s", a, b)
	}
}
