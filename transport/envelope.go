// Package transport couples the client proxy to a request/response
// channel that can carry a codec-encoded chain and return a codec-encoded
// result or error. Two shapes are implemented: HTTPTransport
// (one request/response pair per invocation) and ProcessTransport (a
// long-lived subprocess channel multiplexed by request id).
package transport

import (
	"encoding/json"
	"fmt"

	"github.com/pithecene-io/ocan/chain"
	"github.com/pithecene-io/ocan/codec"
)

// Kind discriminates a request envelope's intent.
type Kind string

const (
	// KindInvoke replays Request.Chain against the target named by
	// Request.Session and returns its result.
	KindInvoke Kind = "invoke"
	// KindDispose releases any server-side state held for Request.Session.
	KindDispose Kind = "dispose"
)

// Request is the wire envelope for one invocation: the chain, an
// opaque session identifier, and the request kind. Chain holds the raw
// codec document text produced by EncodeChain, embedded inline so the
// whole envelope round-trips as one JSON document.
type Request struct {
	Chain   json.RawMessage `json:"chain,omitempty"`
	Session string          `json:"session"`
	Kind    Kind            `json:"kind"`
}

// Response is the wire envelope for one settled invocation: exactly one
// of Ok or Err is populated.
type Response struct {
	Ok  json.RawMessage `json:"ok,omitempty"`
	Err json.RawMessage `json:"err,omitempty"`
}

// EncodeChain serializes c the same way a NestedOperationMarker would be
// serialized as a codec "chain"-tagged value — reusing the codec's
// existing chain support rather than inventing a second wire shape for
// "a chain, but this time at the top level of an envelope".
func EncodeChain(c *chain.Chain) (json.RawMessage, error) {
	text, err := codec.Stringify(&chain.NestedMarker{Chain: c})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(text), nil
}

// DecodeChain is the inverse of EncodeChain.
func DecodeChain(raw json.RawMessage) (*chain.Chain, error) {
	v, err := codec.Parse(string(raw))
	if err != nil {
		return nil, err
	}
	marker, ok := v.(*chain.NestedMarker)
	if !ok {
		return nil, fmt.Errorf("transport: decoded chain envelope has type %T, want *chain.NestedMarker", v)
	}
	return marker.Chain, nil
}

// EncodeValue serializes an arbitrary codec.Value for the "ok"/"err"
// response fields.
func EncodeValue(v any) (json.RawMessage, error) {
	text, err := codec.Stringify(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(text), nil
}

// DecodeValue is the inverse of EncodeValue.
func DecodeValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return codec.Parse(string(raw))
}
