package codec

import (
	"bytes"
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Protobuf stores the payload as a google.protobuf.Value message.
// Numbers are doubles on the wire: integers above 2^53 lose precision.
type Protobuf struct{}

var _ Codec = Protobuf{}

func (Protobuf) ID() byte { return IDProtobuf }

func (Protobuf) Encode(payload json.RawMessage) ([]byte, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	v := &structpb.Value{}
	if err := protojson.Unmarshal(payload, v); err != nil {
		return nil, err
	}
	return proto.Marshal(v)
}

func (Protobuf) Decode(b []byte) (json.RawMessage, error) {
	v := &structpb.Value{}
	if err := proto.Unmarshal(b, v); err != nil {
		return nil, err
	}
	out, err := protojson.Marshal(v)
	if err != nil {
		return nil, err
	}
	// protojson output spacing is deliberately unstable
	var buf bytes.Buffer
	if err := json.Compact(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
