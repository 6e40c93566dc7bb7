package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/pithecene-io/ocan/chain"
)

// Parse decodes an encoded document produced by Stringify back into the
// Go value domain. Decoding happens in two passes: pass one allocates a
// shell (an empty pointer of the right type) for every index entry, pass
// two fills each shell's fields in index order. Shells exist before any
// field is filled, so a "ref" encountered while filling entry N that
// points at entry M (including M == N, or M > N) resolves to a valid,
// already-allocated pointer — this is what makes cyclic structures safe
// to decode without a fixup pass.
func Parse(text string) (any, error) {
	var doc document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, errMalformed("parse", "$", err)
	}

	shells := make([]any, len(doc.Index))
	for i, raw := range doc.Index {
		shell, err := allocateShell(raw)
		if err != nil {
			return nil, newErr(err.Kind, "parse", fmt.Sprintf("index[%d]", i), err.Err)
		}
		shells[i] = shell
	}

	for i, raw := range doc.Index {
		if err := fill(shells[i], raw, shells); err != nil {
			return nil, newErr(err.Kind, "parse", fmt.Sprintf("index[%d]", i), err.Err)
		}
	}

	v, err := decodeValue(doc.Root, shells)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func allocateShell(raw json.RawMessage) (any, *Error) {
	var peek tagPeek
	if err := json.Unmarshal(raw, &peek); err != nil {
		return nil, errMalformed("parse", "", err)
	}
	switch peek.Tag {
	case "arr":
		return new(Array), nil
	case "obj":
		return NewObject(), nil
	case "map":
		return &Map{}, nil
	case "set":
		return &Set{}, nil
	case "date":
		return &Date{}, nil
	case "regex":
		return &Regex{}, nil
	case "err":
		return &ErrorValue{}, nil
	case "ab":
		return &ArrayBuffer{}, nil
	case "ta":
		return &TypedArray{}, nil
	case "dv":
		return &DataView{}, nil
	case "url":
		return &URLValue{}, nil
	case "hdrs":
		return &Headers{}, nil
	case "chain":
		return &chain.NestedMarker{}, nil
	default:
		return nil, errUnknownTag("parse", "", peek.Tag)
	}
}

func fill(shell any, raw json.RawMessage, shells []any) *Error {
	switch s := shell.(type) {
	case *Array:
		var w arrWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		items := make(Array, len(w.Items))
		for i, it := range w.Items {
			v, err := decodeValue(it, shells)
			if err != nil {
				return err
			}
			items[i] = v
		}
		*s = items

	case *Object:
		var w objWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		for _, e := range w.Entries {
			v, err := decodeValue(e.Value, shells)
			if err != nil {
				return err
			}
			s.Set(e.Key, v)
		}

	case *Map:
		var w mapWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		for _, e := range w.Entries {
			k, err := decodeValue(e.Key, shells)
			if err != nil {
				return err
			}
			v, err := decodeValue(e.Value, shells)
			if err != nil {
				return err
			}
			s.Entries = append(s.Entries, MapEntry{Key: k, Value: v})
		}

	case *Set:
		var w setWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		for _, it := range w.Items {
			v, err := decodeValue(it, shells)
			if err != nil {
				return err
			}
			s.Items = append(s.Items, v)
		}

	case *Date:
		var w dateWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		t, err := time.Parse(time.RFC3339Nano, w.Value)
		if err != nil {
			return errMalformed("parse", "", err)
		}
		s.Time = t

	case *Regex:
		var w regexWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		s.Source, s.Flags = w.Source, w.Flags

	case *ErrorValue:
		var w errWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		s.Name, s.Message, s.Stack = w.Name, w.Message, w.Stack
		if len(w.Cause) > 0 {
			v, err := decodeValue(w.Cause, shells)
			if err != nil {
				return err
			}
			s.Cause = v
		}
		if len(w.Props) > 0 {
			v, err := decodeValue(w.Props, shells)
			if err != nil {
				return err
			}
			obj, ok := v.(*Object)
			if !ok {
				return errMalformed("parse", "", fmt.Errorf("err.props did not resolve to an object"))
			}
			s.Props = obj
		}

	case *ArrayBuffer:
		var w abWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		b, err := base64.StdEncoding.DecodeString(w.Bytes)
		if err != nil {
			return errMalformed("parse", "", err)
		}
		s.Bytes = b

	case *TypedArray:
		var w taWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		v, err := decodeValue(w.Buffer, shells)
		if err != nil {
			return err
		}
		buf, ok := v.(*ArrayBuffer)
		if !ok {
			return errMalformed("parse", "", fmt.Errorf("ta.buffer did not resolve to an ArrayBuffer"))
		}
		s.Kind, s.Buffer, s.ByteOffset, s.Length = TypedArrayKind(w.Kind), buf, w.ByteOffset, w.Length

	case *DataView:
		var w dvWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		v, err := decodeValue(w.Buffer, shells)
		if err != nil {
			return err
		}
		buf, ok := v.(*ArrayBuffer)
		if !ok {
			return errMalformed("parse", "", fmt.Errorf("dv.buffer did not resolve to an ArrayBuffer"))
		}
		s.Buffer, s.ByteOffset, s.Length = buf, w.ByteOffset, w.Length

	case *URLValue:
		var w urlWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		s.Href = w.Href

	case *Headers:
		var w hdrsWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		s.Entries = w.Entries

	case *chain.NestedMarker:
		var w chainWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return errMalformed("parse", "", err)
		}
		ops := make([]chain.Operation, len(w.Ops))
		for i, ow := range w.Ops {
			var kind chain.Kind
			switch ow.Kind {
			case "get":
				kind = chain.Get
			case "apply":
				kind = chain.Apply
			default:
				return errMalformed("parse", "", fmt.Errorf("unrecognized operation kind %q", ow.Kind))
			}
			args := make([]any, len(ow.Args))
			for j, a := range ow.Args {
				v, err := decodeValue(a, shells)
				if err != nil {
					return err
				}
				args[j] = v
			}
			ops[i] = chain.Operation{Kind: kind, Key: ow.Key, Args: args}
		}
		s.Chain = chain.FromOperations(ops)

	default:
		return errMalformed("parse", "", fmt.Errorf("unhandled shell type %T", shell))
	}
	return nil
}

// decodeValue interprets a single wire value reference: a JSON null,
// bool, number, or string taken literally, or a [tag, payload] tuple
// naming an inline primitive variant ("undef", "nan", "pinf", "ninf",
// "nzero", "bigint") or a back-reference ("ref") into shells.
func decodeValue(raw json.RawMessage, shells []any) (any, *Error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, errMalformed("parse", "", err)
	}
	switch g := generic.(type) {
	case nil:
		return nil, nil
	case bool:
		return g, nil
	case float64:
		return g, nil
	case string:
		return g, nil
	case []any:
		if len(g) != 2 {
			return nil, errMalformed("parse", "", fmt.Errorf("tuple has %d elements, want 2", len(g)))
		}
		tag, ok := g[0].(string)
		if !ok {
			return nil, errMalformed("parse", "", fmt.Errorf("tuple tag is not a string"))
		}
		switch tag {
		case "undef":
			return Undef, nil
		case "nan":
			return math.NaN(), nil
		case "pinf":
			return math.Inf(1), nil
		case "ninf":
			return math.Inf(-1), nil
		case "nzero":
			return math.Copysign(0, -1), nil
		case "bigint":
			s, _ := g[1].(string)
			bi, ok := NewBigInt(s)
			if !ok {
				return nil, errMalformed("parse", "", fmt.Errorf("invalid bigint literal %q", s))
			}
			return bi, nil
		case "ref":
			idxF, ok := g[1].(float64)
			if !ok {
				return nil, errMalformed("parse", "", fmt.Errorf("ref payload is not a number"))
			}
			idx := int(idxF)
			if idx < 0 || idx >= len(shells) {
				return nil, errDangling("parse", "", idx)
			}
			return shells[idx], nil
		default:
			return nil, errUnknownTag("parse", "", tag)
		}
	default:
		return nil, errMalformed("parse", "", fmt.Errorf("unexpected value shape %T", generic))
	}
}
