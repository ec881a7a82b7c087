// Package jsonpatch rewrites the approved flag of transactions inside cached
// JSON payloads. Untouched elements and fields are copied byte-for-byte and
// keep their order; the output is otherwise compact.
package jsonpatch

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var ErrMalformedPayload = errors.New("jsonpatch: malformed payload")

// Transactions patches a JSON array of transactions: every object whose "id"
// is the string id gets "approved" set (appended when absent).
func Transactions(raw []byte, id string, approved bool) ([]byte, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: want array, got %s", ErrMalformedPayload, kind(doc))
	}
	return patchArray(doc, id, approved), nil
}

// Paginated patches the "data" array of a paginated response object. Every
// other top-level field is copied as is.
func Paginated(raw []byte, id string, approved bool) ([]byte, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: want object, got %s", ErrMalformedPayload, kind(doc))
	}
	data := doc.Get("data")
	if !data.IsArray() {
		return nil, fmt.Errorf("%w: data is %s, want array", ErrMalformedPayload, kind(data))
	}
	return setField(doc, "data", patchArray(data, id, approved)), nil
}

func parse(raw []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}
	return gjson.ParseBytes(raw), nil
}

func patchArray(arr gjson.Result, id string, approved bool) []byte {
	flag := []byte("false")
	if approved {
		flag = []byte("true")
	}

	var buf bytes.Buffer
	buf.Grow(len(arr.Raw) + 8)
	buf.WriteByte('[')
	n := 0
	arr.ForEach(func(_, item gjson.Result) bool {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		if matches(item, id) {
			buf.Write(setField(item, "approved", flag))
		} else {
			buf.WriteString(item.Raw)
		}
		return true
	})
	buf.WriteByte(']')
	return buf.Bytes()
}

// matches uses strict equality: a numeric id never matches a string id.
func matches(item gjson.Result, id string) bool {
	if !item.IsObject() {
		return false
	}
	v := item.Get("id")
	return v.Type == gjson.String && v.Str == id
}

// setField copies obj replacing the value of name, or appending it when absent.
func setField(obj gjson.Result, name string, value []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(obj.Raw) + len(value))
	buf.WriteByte('{')
	n, seen := 0, false
	obj.ForEach(func(k, v gjson.Result) bool {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		buf.WriteString(k.Raw)
		buf.WriteByte(':')
		if k.Str == name {
			buf.Write(value)
			seen = true
		} else {
			buf.WriteString(v.Raw)
		}
		return true
	})
	if !seen {
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"` + name + `":`)
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func kind(r gjson.Result) string {
	switch {
	case !r.Exists():
		return "missing"
	case r.IsArray():
		return "array"
	case r.IsObject():
		return "object"
	}
	return r.Type.String()
}
