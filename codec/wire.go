package codec

import "encoding/json"

// document is the top-level shape of an encoded document: a root value
// reference plus the index table every reference type is stored in.
type document struct {
	Root  json.RawMessage   `json:"root"`
	Index []json.RawMessage `json:"index"`
}

// tagPeek extracts just the tag of an index entry, used during pass one
// of decode to pick which shell type to allocate.
type tagPeek struct {
	Tag string `json:"tag"`
}

type arrWire struct {
	Tag   string            `json:"tag"`
	Items []json.RawMessage `json:"items"`
}

type objEntryWire struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type objWire struct {
	Tag     string         `json:"tag"`
	Entries []objEntryWire `json:"entries"`
}

type mapEntryWire struct {
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
}

type mapWire struct {
	Tag     string         `json:"tag"`
	Entries []mapEntryWire `json:"entries"`
}

type setWire struct {
	Tag   string            `json:"tag"`
	Items []json.RawMessage `json:"items"`
}

type dateWire struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

type regexWire struct {
	Tag    string `json:"tag"`
	Source string `json:"source"`
	Flags  string `json:"flags"`
}

type errWire struct {
	Tag     string          `json:"tag"`
	Name    string          `json:"name"`
	Message string          `json:"message"`
	Stack   *string         `json:"stack,omitempty"`
	Cause   json.RawMessage `json:"cause,omitempty"`
	Props   json.RawMessage `json:"props,omitempty"`
}

type abWire struct {
	Tag   string `json:"tag"`
	Bytes string `json:"bytes"`
}

type taWire struct {
	Tag        string          `json:"tag"`
	Kind       string          `json:"kind"`
	Buffer     json.RawMessage `json:"buffer"`
	ByteOffset int             `json:"byteOffset"`
	Length     int             `json:"length"`
}

type dvWire struct {
	Tag        string          `json:"tag"`
	Buffer     json.RawMessage `json:"buffer"`
	ByteOffset int             `json:"byteOffset"`
	Length     int             `json:"length"`
}

type urlWire struct {
	Tag  string `json:"tag"`
	Href string `json:"href"`
}

type hdrsWire struct {
	Tag     string      `json:"tag"`
	Entries [][2]string `json:"entries"`
}

type chainOpWire struct {
	Kind string            `json:"kind"`
	Key  string            `json:"key,omitempty"`
	Args []json.RawMessage `json:"args,omitempty"`
}

type chainWire struct {
	Tag string        `json:"tag"`
	Ops []chainOpWire `json:"ops"`
}

func tuple(tag string, payload any) json.RawMessage {
	b, err := json.Marshal([2]any{tag, payload})
	if err != nil {
		panic("codec: tuple marshal: " + err.Error())
	}
	return b
}
