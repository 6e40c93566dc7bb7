package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pithecene-io/ocan/chain"
	"github.com/pithecene-io/ocan/codec"
	"github.com/pithecene-io/ocan/executor"
	"github.com/pithecene-io/ocan/iox"
	"github.com/pithecene-io/ocan/metrics"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 10 * time.Second

// DefaultRetries is the default number of retry attempts on transient
// failures.
const DefaultRetries = 3

// HTTPConfig configures an HTTPTransport.
type HTTPConfig struct {
	// URL is the endpoint invocations are POSTed to (required).
	URL string
	// Headers are custom HTTP headers added to each request.
	Headers map[string]string
	// Timeout is the per-request timeout (default DefaultTimeout).
	Timeout time.Duration
	// Retries is the number of retry attempts on 5xx/network failure
	// (default DefaultRetries).
	Retries int
	// Metrics, if set, is incremented for every dispatch, retry, and
	// terminal failure this transport observes. Nil-receiver safe, so
	// leaving it unset is a no-op rather than a crash.
	Metrics *metrics.Collector
}

// HTTPTransport is the client-side HTTP shape: one request/response pair
// per invocation, POSTing the JSON envelope and parsing the JSON
// response, with exponential-backoff retries on transient failures.
type HTTPTransport struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTPTransport creates an HTTPTransport from cfg.
func NewHTTPTransport(cfg HTTPConfig) (*HTTPTransport, error) {
	if cfg.URL == "" {
		return nil, errors.New("transport: HTTPTransport requires a URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("transport: retries must be >= 0, got %d", cfg.Retries)
	}
	return &HTTPTransport{config: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// Dispatch implements proxyclient.Dispatcher: it encodes c, POSTs the
// invoke envelope, and decodes the response's ok/err value. Transport
// failures stay local to the client (returned as *Failure/*Timeout); a
// server-side execution failure decodes to the err channel and is
// returned as a plain error value (a *codec.ErrorValue), never as a
// *Failure.
func (t *HTTPTransport) Dispatch(ctx context.Context, c *chain.Chain, session string) (any, error) {
	t.config.Metrics.IncDispatchStarted()
	encoded, err := EncodeChain(c)
	if err != nil {
		t.config.Metrics.IncCodecEncodeError()
		t.config.Metrics.IncDispatchFailed()
		return nil, err
	}
	result, err := t.roundTrip(ctx, Request{Chain: encoded, Session: session, Kind: KindInvoke})
	if err != nil {
		t.config.Metrics.IncDispatchFailed()
		return nil, err
	}
	t.config.Metrics.IncDispatchSucceeded()
	return result, nil
}

// Dispose implements proxyclient.Dispatcher.
func (t *HTTPTransport) Dispose(ctx context.Context, session string) error {
	_, err := t.roundTrip(ctx, Request{Session: session, Kind: KindDispose})
	return err
}

func (t *HTTPTransport) roundTrip(ctx context.Context, req Request) (any, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Failure{Op: "marshal request", Err: err}
	}

	var lastErr error
	attempts := 1 + t.config.Retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return nil, &Failure{Op: "context", Err: err}
		}

		if i > 0 {
			t.config.Metrics.IncTransportRetry()
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				t.config.Metrics.IncTransportTimeout()
				return nil, &Timeout{Op: "backoff"}
			case <-time.After(backoff):
			}
		}

		resp, respErr := t.doRequest(ctx, body)
		if respErr == nil {
			return decodeResponse(resp)
		}
		lastErr = respErr

		var statusErr *statusError
		if errors.As(respErr, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500 {
			t.config.Metrics.IncTransportFailure()
			return nil, &Failure{Op: "request", Err: lastErr}
		}
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.config.Metrics.IncTransportTimeout()
		return nil, &Timeout{Op: "dispatch"}
	}
	t.config.Metrics.IncTransportFailure()
	return nil, &Failure{Op: fmt.Sprintf("dispatch failed after %d attempts", attempts), Err: lastErr}
}

type statusError struct{ Code int }

func (e *statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.Code) }

func (t *HTTPTransport) doRequest(ctx context.Context, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{Code: resp.StatusCode}
	}

	var envelope Response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &envelope, nil
}

func decodeResponse(resp *Response) (any, error) {
	if len(resp.Err) > 0 {
		v, err := DecodeValue(resp.Err)
		if err != nil {
			return nil, &Failure{Op: "decode error value", Err: err}
		}
		if ev, ok := v.(*codec.ErrorValue); ok {
			return nil, ev
		}
		return nil, fmt.Errorf("transport: server error: %v", v)
	}
	return DecodeValue(resp.Ok)
}

// Resolver maps a registered actor instance by (bindingName,
// instanceName) — the same contract registry.Registry satisfies,
// referenced here only as the boundary a real request router would call
// into.
type Resolver interface {
	Resolve(bindingName, instanceName string) (any, bool)
}

// Handler is the server-side half of the HTTP-style transport: it
// decodes a Request, replays its chain against the instance named by
// (BindingName, Request.Session) through the executor, and writes back
// the ok/err Response envelope. HTTP status is always 200 once the
// envelope is written; 4xx/5xx is reserved for failures of the transport
// itself.
type Handler struct {
	BindingName string
	Resolver    Resolver
	Disposer    func(bindingName, instanceName string)
	// Metrics, if set, is incremented for every decode/executor failure
	// this handler observes. Nil-receiver safe.
	Metrics *metrics.Collector
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch req.Kind {
	case KindDispose:
		if h.Disposer != nil {
			h.Disposer(h.BindingName, req.Session)
		}
		writeJSON(w, Response{})
	case KindInvoke:
		h.invoke(w, req)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (h *Handler) invoke(w http.ResponseWriter, req Request) {
	c, err := DecodeChain(req.Chain)
	if err != nil {
		h.Metrics.IncCodecDecodeError()
		writeErr(w, codec.NewError("MalformedDocument", err.Error()))
		return
	}

	target, ok := h.Resolver.Resolve(h.BindingName, req.Session)
	if !ok {
		writeErr(w, codec.NewError("InstanceGone", fmt.Sprintf("no live instance for session %q", req.Session)))
		return
	}

	result, err := executor.New().Execute(c, target)
	if err != nil {
		h.Metrics.IncExecutorFailure()
		writeErr(w, toErrorValue(err))
		return
	}

	encoded, err := EncodeValue(result)
	if err != nil {
		h.Metrics.IncCodecEncodeError()
		writeErr(w, codec.NewError("UnsupportedType", err.Error()))
		return
	}
	writeJSON(w, Response{Ok: encoded})
}

func toErrorValue(err error) *codec.ErrorValue {
	var appErr *executor.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Value
	}
	return codec.NewError("Error", err.Error())
}

func writeErr(w http.ResponseWriter, ev *codec.ErrorValue) {
	encoded, err := EncodeValue(ev)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, Response{Err: encoded})
}

func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
