package main

import "github.com/pithecene-io/ocan/codec"

// Counter is the worker's seeded demo actor, exposed so a chain like
// `handle.bump(5)` has something real to replay against.
type Counter struct {
	counter float64
}

// Bump adds n to the counter and returns the new total.
func (c *Counter) Bump(n float64) float64 {
	c.counter += n
	return c.counter
}

// Snapshot reports the counter's state; `ocanctl inspect instance` chains
// snapshot() against this instance.
func (c *Counter) Snapshot() *codec.Object {
	return codec.NewObject().Set("counter", c.counter)
}
