package codec

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack stores the payload as MessagePack using vmihailenco/msgpack/v5.
// The zero value is ready to use. Object key order is not preserved.
type Msgpack struct{}

var _ Codec = Msgpack{}

func (Msgpack) ID() byte { return IDMsgpack }

func (Msgpack) Encode(payload json.RawMessage) ([]byte, error) {
	v, err := toValue(payload)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(v)
}

func (Msgpack) Decode(b []byte) (json.RawMessage, error) {
	var v any
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return fromValue(v)
}
