package cloud

import (
	"bytes"
	"encoding/json"
)

// Codec serializes request bodies and deserializes responses. A codec is
// handed to the connection at construction; there is no global JSON state.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default Codec
type JSONCodec struct {
	// DisallowUnknownFields rejects response fields missing from the target type
	DisallowUnknownFields bool
	// EscapeHTML escapes <, > and & inside JSON strings
	EscapeHTML bool
}

// DefaultCodec returns the codec used when none is configured
func DefaultCodec() JSONCodec {
	return JSONCodec{}
}

// Marshal encodes v without a trailing newline
func (c JSONCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(c.EscapeHTML)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal decodes a single JSON document into v
func (c JSONCodec) Unmarshal(data []byte, v any) error {
	if !c.DisallowUnknownFields {
		return json.Unmarshal(data, v)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
