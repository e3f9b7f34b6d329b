package codec

import (
	"encoding/json"
	"fmt"
)

// Codec turns values into bytes and back.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (JSONCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

// Default is the codec used for message tuples when none is configured.
var Default Codec = JSONCodec{}

// EncodeTuple encodes a message tuple as a single array document.
func EncodeTuple(c Codec, vals []any) ([]byte, error) {
	if vals == nil {
		vals = []any{}
	}
	data, err := c.Marshal(vals)
	if err != nil {
		return nil, fmt.Errorf("encode tuple: %w", err)
	}
	return data, nil
}

// DecodeTuple is the inverse of EncodeTuple. A document that is not an array
// decodes to a one-element tuple.
func DecodeTuple(c Codec, data []byte) ([]any, error) {
	var raw any
	if err := c.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode tuple: %w", err)
	}
	if vals, ok := raw.([]any); ok {
		return vals, nil
	}
	return []any{raw}, nil
}
