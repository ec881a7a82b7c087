package fetchcache

import (
	"encoding/json"
	"sync/atomic"
)

// inflight counts running fetches. Loading is true while the count is positive.
type inflight struct {
	n atomic.Int64
}

func (t *inflight) wrap(f func() (json.RawMessage, error)) (json.RawMessage, error) {
	t.n.Add(1)
	defer t.n.Add(-1)
	return f()
}

func (t *inflight) loading() bool { return t.n.Load() > 0 }
