package codec

import (
	"encoding/json"
	"fmt"
)

// Limit wraps another codec to enforce a maximum allowed stored size
// at Decode time. Encode and ID are forwarded to Inner unchanged.
// If MaxDecode <= 0, size limiting is disabled.
//
// Typical use: protect against oversized entries coming from a shared
// provider such as Redis or memcache.
type Limit struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner Codec
	// MaxDecode is the maximum permitted length (in bytes) of the stored
	// body for Decode.
	MaxDecode int
}

var _ Codec = Limit{}

func (c Limit) ID() byte { return c.Inner.ID() }

func (c Limit) Encode(payload json.RawMessage) ([]byte, error) { return c.Inner.Encode(payload) }

func (c Limit) Decode(b []byte) (json.RawMessage, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		return nil, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
