package executor

import (
	"fmt"
	"testing"

	"github.com/pithecene-io/ocan/chain"
)

type counterActor struct {
	Counter int
}

func (c *counterActor) Bump(n int) int {
	c.Counter += n
	return c.Counter
}

func TestExecuteIncrementViaChain(t *testing.T) {
	target := &counterActor{}
	c := chain.New()
	c, _ = c.Append(chain.GetOp("bump"))
	c, _ = c.Append(chain.ApplyOp(5))

	got, err := New().Execute(c, target)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got.(int) != 5 {
		t.Fatalf("got %v, want 5", got)
	}
	if target.Counter != 5 {
		t.Fatalf("target.Counter = %d, want 5", target.Counter)
	}
}

type combiner struct{}

func (combiner) Combine(a, b int) int { return a + b }
func (combiner) First() int           { return 1 }
func (combiner) Second() int          { return 2 }

func TestExecuteNestedChainArguments(t *testing.T) {
	target := combiner{}

	firstChain := chain.New()
	firstChain, _ = firstChain.Append(chain.GetOp("first"))
	firstChain, _ = firstChain.Append(chain.ApplyOp())

	secondChain := chain.New()
	secondChain, _ = secondChain.Append(chain.GetOp("second"))
	secondChain, _ = secondChain.Append(chain.ApplyOp())

	outer := chain.New()
	outer, _ = outer.Append(chain.GetOp("combine"))
	outer, _ = outer.Append(chain.ApplyOp(
		&chain.NestedMarker{Chain: firstChain},
		&chain.NestedMarker{Chain: secondChain},
	))

	got, err := New().Execute(outer, target)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got.(int) != 3 {
		t.Fatalf("got %v, want 3", got)
	}
}

type boomer struct{}

func (boomer) Boom() error {
	return fmt.Errorf("nope")
}

func TestExecuteApplicationErrorPropagation(t *testing.T) {
	c := chain.New()
	c, _ = c.Append(chain.GetOp("boom"))
	c, _ = c.Append(chain.ApplyOp())

	_, err := New().Execute(c, boomer{})
	appErr, ok := err.(*ApplicationError)
	if !ok {
		t.Fatalf("err = %#v, want *ApplicationError", err)
	}
	if appErr.Value.Message != "nope" {
		t.Fatalf("message = %q, want %q", appErr.Value.Message, "nope")
	}
}

func TestExecuteNullDerefOnMissingProperty(t *testing.T) {
	c := chain.New()
	c, _ = c.Append(chain.GetOp("missing"))
	c, _ = c.Append(chain.GetOp("deeper"))

	_, err := New().Execute(c, &counterActor{})
	if _, ok := err.(*NullDeref); !ok {
		t.Fatalf("err = %#v, want *NullDeref", err)
	}
}

func TestExecuteNotCallableOnNonFunctionCursor(t *testing.T) {
	c := chain.New()
	c, _ = c.Append(chain.GetOp("counter"))
	c, _ = c.Append(chain.ApplyOp())

	_, err := New().Execute(c, &counterActor{Counter: 5})
	if _, ok := err.(*NotCallable); !ok {
		t.Fatalf("err = %#v, want *NotCallable", err)
	}
}

func TestExecuteRejectsEmptyChain(t *testing.T) {
	_, err := New().Execute(chain.New(), &counterActor{})
	if err != chain.ErrInvalidChain {
		t.Fatalf("err = %v, want ErrInvalidChain", err)
	}
}
