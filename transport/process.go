package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pithecene-io/ocan/chain"
	"github.com/pithecene-io/ocan/ipc"
	"github.com/pithecene-io/ocan/policy"
)

// ProcessConfig configures a ProcessTransport.
type ProcessConfig struct {
	// Path is the worker binary to spawn (e.g. cmd/ocan-worker's output).
	Path string
	// Args are passed to the worker unchanged.
	Args []string
	// Policy gates concurrent in-flight dispatches over the one
	// subprocess channel. Defaults to policy.NewNoopPolicy().
	Policy policy.Policy
}

// ProcessTransport is the long-lived bidirectional channel shape: a
// single subprocess is spawned once, and every invocation is multiplexed
// over its stdin/stdout using ipc's length-prefixed msgpack frames,
// correlated by a monotonically increasing request id.
type ProcessTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	dec    *ipc.FrameDecoder
	policy policy.Policy

	writeMu sync.Mutex
	nextID  atomic.Uint64

	mu       sync.Mutex
	pending  map[string]chan *ipc.ResponseFrame
	closeErr error
}

// NewProcessTransport spawns the worker named by cfg.Path and begins
// reading its response stream in the background.
func NewProcessTransport(cfg ProcessConfig) (*ProcessTransport, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("transport: ProcessTransport requires a Path")
	}
	pol := cfg.Policy
	if pol == nil {
		pol = policy.NewNoopPolicy()
	}

	cmd := exec.Command(cfg.Path, cfg.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &Failure{Op: "open worker stdin", Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &Failure{Op: "open worker stdout", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &Failure{Op: "start worker", Err: err}
	}

	t := &ProcessTransport{
		cmd:     cmd,
		stdin:   stdin,
		dec:     ipc.NewFrameDecoder(stdout),
		policy:  pol,
		pending: make(map[string]chan *ipc.ResponseFrame),
	}
	go t.readLoop()
	return t, nil
}

func (t *ProcessTransport) readLoop() {
	for {
		payload, err := t.dec.ReadFrame()
		if err != nil {
			t.drain(err)
			return
		}
		resp, err := ipc.DecodeResponse(payload)
		if err != nil {
			continue
		}
		t.mu.Lock()
		ch, ok := t.pending[resp.ID]
		if ok {
			delete(t.pending, resp.ID)
		}
		t.mu.Unlock()
		if ok {
			ch <- resp
			close(ch)
		}
	}
}

func (t *ProcessTransport) drain(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeErr = err
	for id, ch := range t.pending {
		close(ch)
		delete(t.pending, id)
	}
}

// Dispatch implements proxyclient.Dispatcher over the subprocess channel.
func (t *ProcessTransport) Dispatch(ctx context.Context, c *chain.Chain, session string) (any, error) {
	release, err := t.policy.Acquire(ctx)
	if err != nil {
		return nil, &Failure{Op: "policy acquire", Err: err}
	}
	defer release()

	doc, err := EncodeChain(c)
	if err != nil {
		return nil, err
	}
	resp, err := t.roundTrip(ctx, session, doc)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("transport: worker error: %s", resp.Error)
	}
	if len(resp.Document) == 0 {
		return nil, nil
	}
	return DecodeValue(json.RawMessage(resp.Document))
}

// Dispose implements proxyclient.Dispatcher: it sends a request frame
// with an empty Document, the convention cmd/ocan-worker uses to release
// session state for session rather than replay a chain.
func (t *ProcessTransport) Dispose(ctx context.Context, session string) error {
	resp, err := t.roundTrip(ctx, session, nil)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("transport: worker dispose error: %s", resp.Error)
	}
	return nil
}

func (t *ProcessTransport) roundTrip(ctx context.Context, session string, doc []byte) (*ipc.ResponseFrame, error) {
	id := strconv.FormatUint(t.nextID.Add(1), 10)
	req := &ipc.RequestFrame{ID: id, Target: session, Document: doc}

	ch := make(chan *ipc.ResponseFrame, 1)
	t.mu.Lock()
	if t.closeErr != nil {
		t.mu.Unlock()
		return nil, &Failure{Op: "process dispatch", Err: t.closeErr}
	}
	t.pending[id] = ch
	t.mu.Unlock()

	frame, err := ipc.EncodeRequest(req)
	if err != nil {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		return nil, &Failure{Op: "encode request frame", Err: err}
	}

	t.writeMu.Lock()
	_, werr := t.stdin.Write(frame)
	t.writeMu.Unlock()
	if werr != nil {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		return nil, &Failure{Op: "write request frame", Err: werr}
	}

	select {
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		return nil, &Timeout{Op: "process dispatch"}
	case resp, ok := <-ch:
		if !ok {
			return nil, &Failure{Op: "process dispatch", Err: io.ErrClosedPipe}
		}
		return resp, nil
	}
}

// Close closes the worker's stdin (signaling it to exit) and waits for
// the subprocess to finish.
func (t *ProcessTransport) Close() error {
	_ = t.stdin.Close()
	return t.cmd.Wait()
}
