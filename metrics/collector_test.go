package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("http", "demo")

	c.IncDispatchStarted()
	c.IncDispatchSucceeded()
	c.IncDispatchFailed()
	c.IncDispatchFailed()
	c.IncCodecEncodeError()
	c.IncCodecDecodeError()
	c.IncCodecDecodeError()
	c.IncExecutorFailure()
	c.IncExecutorFailure()
	c.IncExecutorFailure()
	c.IncTransportRetry()
	c.IncTransportRetry()
	c.IncTransportTimeout()
	c.IncTransportFailure()

	s := c.Snapshot()

	if s.DispatchStarted != 1 {
		t.Errorf("DispatchStarted = %d, want 1", s.DispatchStarted)
	}
	if s.DispatchSucceeded != 1 {
		t.Errorf("DispatchSucceeded = %d, want 1", s.DispatchSucceeded)
	}
	if s.DispatchFailed != 2 {
		t.Errorf("DispatchFailed = %d, want 2", s.DispatchFailed)
	}
	if s.CodecEncodeErrors != 1 {
		t.Errorf("CodecEncodeErrors = %d, want 1", s.CodecEncodeErrors)
	}
	if s.CodecDecodeErrors != 2 {
		t.Errorf("CodecDecodeErrors = %d, want 2", s.CodecDecodeErrors)
	}
	if s.ExecutorFailures != 3 {
		t.Errorf("ExecutorFailures = %d, want 3", s.ExecutorFailures)
	}
	if s.TransportRetries != 2 {
		t.Errorf("TransportRetries = %d, want 2", s.TransportRetries)
	}
	if s.TransportTimeout != 1 {
		t.Errorf("TransportTimeout = %d, want 1", s.TransportTimeout)
	}
	if s.TransportFailure != 1 {
		t.Errorf("TransportFailure = %d, want 1", s.TransportFailure)
	}
}

func TestCollector_Dimensions(t *testing.T) {
	c := NewCollector("process", "demo")
	s := c.Snapshot()

	if s.Transport != "process" {
		t.Errorf("Transport = %q, want %q", s.Transport, "process")
	}
	if s.BindingName != "demo" {
		t.Errorf("BindingName = %q, want %q", s.BindingName, "demo")
	}
}

func TestCollector_SnapshotImmutability(t *testing.T) {
	c := NewCollector("http", "demo")
	c.IncDispatchStarted()

	s1 := c.Snapshot()

	c.IncDispatchSucceeded()
	c.IncDispatchSucceeded()

	if s1.DispatchSucceeded != 0 {
		t.Errorf("s1.DispatchSucceeded = %d, want 0 (snapshot should be frozen)", s1.DispatchSucceeded)
	}

	s2 := c.Snapshot()
	if s2.DispatchSucceeded != 2 {
		t.Errorf("s2.DispatchSucceeded = %d, want 2", s2.DispatchSucceeded)
	}
}

func TestCollector_NilReceiverSafety(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.IncDispatchStarted()
	c.IncDispatchSucceeded()
	c.IncDispatchFailed()
	c.IncCodecEncodeError()
	c.IncCodecDecodeError()
	c.IncExecutorFailure()
	c.IncTransportRetry()
	c.IncTransportTimeout()
	c.IncTransportFailure()

	s := c.Snapshot()
	if s.DispatchStarted != 0 {
		t.Errorf("nil collector snapshot DispatchStarted = %d, want 0", s.DispatchStarted)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("http", "demo")
	const goroutines = 10
	const iterations = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				c.IncDispatchStarted()
				c.IncDispatchSucceeded()
				c.IncTransportRetry()
			}
		}()
	}

	wg.Wait()

	s := c.Snapshot()
	want := int64(goroutines * iterations)

	if s.DispatchStarted != want {
		t.Errorf("DispatchStarted = %d, want %d", s.DispatchStarted, want)
	}
	if s.DispatchSucceeded != want {
		t.Errorf("DispatchSucceeded = %d, want %d", s.DispatchSucceeded, want)
	}
	if s.TransportRetries != want {
		t.Errorf("TransportRetries = %d, want %d", s.TransportRetries, want)
	}
}

func TestCollector_ZeroValueSnapshot(t *testing.T) {
	c := NewCollector("http", "demo")
	s := c.Snapshot()

	if s.DispatchStarted != 0 || s.DispatchSucceeded != 0 || s.DispatchFailed != 0 {
		t.Error("fresh collector should have zero dispatch counters")
	}
	if s.CodecEncodeErrors != 0 || s.CodecDecodeErrors != 0 {
		t.Error("fresh collector should have zero codec counters")
	}
	if s.ExecutorFailures != 0 {
		t.Error("fresh collector should have zero executor counters")
	}
	if s.TransportRetries != 0 || s.TransportTimeout != 0 || s.TransportFailure != 0 {
		t.Error("fresh collector should have zero transport counters")
	}
}
