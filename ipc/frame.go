// Package ipc implements the length-prefixed msgpack framing used by
// transport.ProcessTransport to talk to a subprocess executor over its
// stdin/stdout pipes.
package ipc

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (16 MiB), including length prefix.
	MaxFrameSize = 16 * 1024 * 1024
	// MaxPayloadSize is the maximum payload size (MaxFrameSize - 4 bytes).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// RequestFrameType is the type discriminant for a dispatched chain request.
const RequestFrameType = "request"

// ResponseFrameType is the type discriminant for a chain's settled result.
const ResponseFrameType = "response"

// RequestFrame carries one dispatched chain across the wire: Target names
// the registered root instance, Document is the codec-encoded chain (see
// codec.Stringify) to replay against it.
type RequestFrame struct {
	Type     string `msgpack:"type"`
	ID       string `msgpack:"id"`
	Target   string `msgpack:"target"`
	Document []byte `msgpack:"document"`
}

// ResponseFrame carries the settled outcome of a RequestFrame back to the
// caller. Exactly one of Document or Error is meaningful: Error is set
// when the executor produced an ApplicationError, NullDeref, or
// NotCallable failure rather than a value.
type ResponseFrame struct {
	Type     string `msgpack:"type"`
	ID       string `msgpack:"id"`
	Document []byte `msgpack:"document,omitempty"`
	Error    string `msgpack:"error,omitempty"`
}

// FrameErrorKind classifies frame decoding errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete frame.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates a frame exceeding MaxFrameSize.
	FrameErrorTooLarge
	// FrameErrorDecode indicates a msgpack decoding error.
	FrameErrorDecode
)

// FrameError represents a frame decoding error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether this error should terminate the connection
// rather than just failing the one in-flight request.
func (e *FrameError) IsFatal() bool {
	return e.Kind == FrameErrorPartial || e.Kind == FrameErrorTooLarge
}

// IsFatalFrameError returns true if the error is a fatal frame error.
func IsFatalFrameError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.IsFatal()
	}
	return false
}

// FrameDecoder decodes length-prefixed msgpack frames from a stream.
type FrameDecoder struct {
	reader io.Reader
}

// NewFrameDecoder creates a new frame decoder. Wraps the reader with
// bufio.Reader to reduce syscall overhead on unbuffered sources (e.g.,
// OS pipes from a child process).
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &FrameDecoder{reader: br}
}

// ReadFrame reads a single frame from the stream and returns the raw
// msgpack-encoded payload.
//
// Errors:
//   - io.EOF: stream ended cleanly (no more frames)
//   - *FrameError with Kind=FrameErrorPartial: incomplete frame (fatal)
//   - *FrameError with Kind=FrameErrorTooLarge: frame exceeds limit (fatal)
func (d *FrameDecoder) ReadFrame() ([]byte, error) {
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "failed to read length prefix", Err: err}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(d.reader, payload); err != nil {
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "failed to read payload", Err: err}
	}
	return payload, nil
}

// probeFrameType extracts the "type" field from a msgpack map without
// fully unmarshaling the payload.
func probeFrameType(payload []byte) (string, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	n, err := dec.DecodeMapLen()
	if err != nil {
		return "", err
	}
	for range n {
		key, err := dec.DecodeString()
		if err != nil {
			return "", err
		}
		if key == "type" {
			return dec.DecodeString()
		}
		if err := dec.Skip(); err != nil {
			return "", err
		}
	}
	return "", errors.New("missing type field")
}

// DecodeFrame decodes a payload into either a *RequestFrame or a
// *ResponseFrame, discriminated by the "type" field.
func DecodeFrame(payload []byte) (any, error) {
	frameType, err := probeFrameType(payload)
	if err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode frame type", Err: err}
	}

	switch frameType {
	case RequestFrameType:
		return DecodeRequest(payload)
	case ResponseFrameType:
		return DecodeResponse(payload)
	default:
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: fmt.Sprintf("unknown frame type %q", frameType)}
	}
}

// DecodeRequest decodes a payload as a RequestFrame.
func DecodeRequest(payload []byte) (*RequestFrame, error) {
	var req RequestFrame
	if err := msgpack.Unmarshal(payload, &req); err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode request frame", Err: err}
	}
	return &req, nil
}

// DecodeResponse decodes a payload as a ResponseFrame.
func DecodeResponse(payload []byte) (*ResponseFrame, error) {
	var resp ResponseFrame
	if err := msgpack.Unmarshal(payload, &resp); err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode response frame", Err: err}
	}
	return &resp, nil
}

// EncodeFrame encodes a payload with a 4-byte big-endian length prefix.
// This is the public encoder counterpart to FrameDecoder.ReadFrame.
func EncodeFrame(payload []byte) []byte {
	buf := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(payload)))
	copy(buf[LengthPrefixSize:], payload)
	return buf
}

// EncodeRequest encodes req as a length-prefixed msgpack frame.
func EncodeRequest(req *RequestFrame) ([]byte, error) {
	req.Type = RequestFrameType
	payload, err := msgpack.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request frame: %w", err)
	}
	return EncodeFrame(payload), nil
}

// EncodeResponse encodes resp as a length-prefixed msgpack frame.
func EncodeResponse(resp *ResponseFrame) ([]byte, error) {
	resp.Type = ResponseFrameType
	payload, err := msgpack.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response frame: %w", err)
	}
	return EncodeFrame(payload), nil
}
