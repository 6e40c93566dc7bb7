package chain

import "testing"

func TestAppendExtendsWithoutMutatingParent(t *testing.T) {
	root := New()
	a, err := root.Append(GetOp("counter"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	b, err := a.Append(ApplyOp(int64(5)))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if len(root.Operations()) != 0 {
		t.Fatalf("root mutated: %v", root.Operations())
	}
	if len(a.Operations()) != 1 {
		t.Fatalf("a has %d ops, want 1", len(a.Operations()))
	}
	if len(b.Operations()) != 2 {
		t.Fatalf("b has %d ops, want 2", len(b.Operations()))
	}
}

func TestAppendAfterCloseFails(t *testing.T) {
	c := New()
	c.Close()
	if _, err := c.Append(GetOp("x")); err != ErrChainClosed {
		t.Fatalf("Append after close = %v, want ErrChainClosed", err)
	}
}

func TestValidateEmptyChain(t *testing.T) {
	if err := Validate(New()); err != ErrInvalidChain {
		t.Fatalf("Validate(empty) = %v, want ErrInvalidChain", err)
	}
}

func TestValidateDetectsCycle(t *testing.T) {
	outer := New()
	inner, _ := outer.Append(GetOp("first"))

	// Build a cycle: cyc's Apply nests a marker that is then pointed back
	// at cyc itself.
	marker := &NestedMarker{Chain: inner}
	cyc, err := inner.Append(ApplyOp(marker))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	marker.Chain = cyc

	if err := Validate(cyc); err != ErrCyclicNesting {
		t.Fatalf("Validate(cycle) = %v, want ErrCyclicNesting", err)
	}
}

func TestIsNestedMarker(t *testing.T) {
	if IsNestedMarker("plain string") {
		t.Fatal("plain string recognized as marker")
	}
	if !IsNestedMarker(&NestedMarker{Chain: New()}) {
		t.Fatal("marker not recognized")
	}
}
