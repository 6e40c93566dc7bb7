package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/pithecene-io/ocan/codec"
)

func jsonMarshalIndent(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	return string(b), err
}

// readValue parses plain JSON text into codec values, preserving object
// key order by walking the token stream rather than unmarshaling into Go
// maps (whose iteration order is unspecified).
func readValue(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeToken(dec)
	if err != nil {
		return nil, err
	}
	// Trailing garbage after the first value is a malformed input.
	if dec.More() {
		return nil, fmt.Errorf("unexpected trailing content after JSON value")
	}
	return v, nil
}

func decodeToken(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return valueFromToken(dec, tok)
}

func valueFromToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := codec.NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeToken(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			arr := codec.NewArray()
			for dec.More() {
				val, err := decodeToken(dec)
				if err != nil {
					return nil, err
				}
				*arr = append(*arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case string, bool, nil:
		return tok, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// plainValue converts a decoded codec value into the plain shapes the
// renderer knows how to print: objects become maps, arrays become slices,
// and the value types that have no JSON literal (dates, bigints, regexes,
// buffers) become readable strings.
func plainValue(v any) any {
	switch x := v.(type) {
	case *codec.Object:
		out := make(map[string]any, x.Len())
		for _, k := range x.Keys() {
			val, _ := x.Get(k)
			out[k] = plainValue(val)
		}
		return out
	case *codec.Array:
		out := make([]any, len(*x))
		for i, item := range *x {
			out[i] = plainValue(item)
		}
		return out
	case *codec.Map:
		out := make([]any, len(x.Entries))
		for i, e := range x.Entries {
			out[i] = []any{plainValue(e.Key), plainValue(e.Value)}
		}
		return out
	case *codec.Set:
		out := make([]any, len(x.Items))
		for i, item := range x.Items {
			out[i] = plainValue(item)
		}
		return out
	case *codec.Date:
		return x.Time.UTC().Format(time.RFC3339Nano)
	case *codec.Regex:
		return fmt.Sprintf("/%s/%s", x.Source, x.Flags)
	case *codec.ErrorValue:
		return map[string]any{"name": x.Name, "message": x.Message}
	case *codec.URLValue:
		return x.Href
	case *codec.Headers:
		return x.Entries
	case *codec.ArrayBuffer:
		return fmt.Sprintf("ArrayBuffer(%d bytes)", len(x.Bytes))
	case *codec.TypedArray:
		return fmt.Sprintf("TypedArray(%s, %d elements)", x.Kind, x.Length)
	case *codec.DataView:
		return fmt.Sprintf("DataView(%d bytes)", x.Length)
	case *big.Int:
		return x.String() + "n"
	case codec.Undefined:
		return nil
	default:
		return v
	}
}
