package codec

import (
	"bytes"
	"encoding/json"
)

// JSON stores the payload as compact JSON.
type JSON struct{}

var _ Codec = JSON{}

func (JSON) ID() byte { return IDJSON }

func (JSON) Encode(payload json.RawMessage) ([]byte, error) {
	if len(payload) == 0 {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (JSON) Decode(b []byte) (json.RawMessage, error) {
	// providers may hand out their own buffers
	return append(json.RawMessage(nil), b...), nil
}
