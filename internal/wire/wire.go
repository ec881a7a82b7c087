package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt       = errors.New("fetchcache: corrupt entry")
	ErrCodecMismatch = errors.New("fetchcache: codec mismatch")
	magic4           = [...]byte{'F', 'T', 'C', 'H'}
)

// Frame is one stored response.
type Frame struct {
	Codec    byte      // codec that produced Body
	StoredAt time.Time // zero => unknown
	Body     []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode: magic(4) | ver(1) | codec(1) | storedAt unix nanos(u64 be) | vlen(u32 be) | body(vlen)
func Encode(f Frame) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(f.Body))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(f.Codec)

	var u8 [8]byte
	var u4 [4]byte

	var nanos uint64
	if !f.StoredAt.IsZero() {
		nanos = uint64(f.StoredAt.UnixNano())
	}
	binary.BigEndian.PutUint64(u8[:], nanos)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(f.Body)))
	buf.Write(u4[:])

	buf.Write(f.Body)
	return buf.Bytes()
}

// Decode parses a frame. Framing is strict: a short buffer, unknown
// version or trailing bytes are all ErrCorrupt. Body aliases b.
func Decode(b []byte) (Frame, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return Frame{}, ErrCorrupt
	}

	f := Frame{Codec: b[5]}
	off := 6

	// storedAt
	if nanos := binary.BigEndian.Uint64(b[off : off+8]); nanos != 0 {
		f.StoredAt = time.Unix(0, int64(nanos))
	}
	off += 8

	// vlen
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return Frame{}, ErrCorrupt
	}

	f.Body = b[off : off+vlen]
	return f, nil
}

// DecodeAs is Decode plus a check that the frame was written by codec id.
func DecodeAs(b []byte, codec byte) (Frame, error) {
	f, err := Decode(b)
	if err != nil {
		return Frame{}, err
	}
	if f.Codec != codec {
		return Frame{}, ErrCodecMismatch
	}
	return f, nil
}
