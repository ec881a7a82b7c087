package codec

import (
	"encoding/json"
	"fmt"
)

// Codec converts a JSON payload to and from its stored form.
// Decode must return JSON that is semantically equal to what was encoded,
// not necessarily the same text. Only JSON keeps the payload byte for byte;
// the binary codecs return object keys sorted, and Protobuf also rounds
// integers above 2^53 to the nearest double. Callers comparing cached
// payloads should compare decoded values.
type Codec interface {
	// ID tags stored frames so entries written by another codec are detected.
	ID() byte
	Encode(payload json.RawMessage) ([]byte, error)
	Decode(b []byte) (json.RawMessage, error)
}

const (
	IDJSON     byte = 1
	IDMsgpack  byte = 2
	IDCBOR     byte = 3
	IDProtobuf byte = 4
)

// ByName returns the codec registered under name: "json", "msgpack", "cbor",
// "cbor-deterministic" or "protobuf". Pick "json" when cached payloads must
// read back as the exact text the server sent; the others sort object keys
// on the way back, and "protobuf" is lossy for integers above 2^53.
func ByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON{}, nil
	case "msgpack":
		return Msgpack{}, nil
	case "cbor":
		return NewCBOR(false)
	case "cbor-deterministic":
		return NewCBOR(true)
	case "protobuf", "proto":
		return Protobuf{}, nil
	}
	return nil, fmt.Errorf("codec: unknown codec %q", name)
}
