package asynchook

import (
	"sync"
	"testing"

	"github.com/unkn0wn-root/fetchcache"
)

type recHooks struct {
	fetchcache.NopHooks
	mu     sync.Mutex
	events []string
	block  chan struct{}
}

func (r *recHooks) rec(s string) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.events = append(r.events, s)
	r.mu.Unlock()
}

func (r *recHooks) Hit(_ fetchcache.Endpoint, k string)  { r.rec("hit:" + k) }
func (r *recHooks) Miss(_ fetchcache.Endpoint, k string) { r.rec("miss:" + k) }

func TestDeliversAndDrainsOnClose(t *testing.T) {
	inner := &recHooks{}
	h := New(inner, 2, 16)
	h.Hit(fetchcache.EndpointEmployees, "a")
	h.Miss(fetchcache.EndpointEmployees, "b")
	h.Close()

	inner.mu.Lock()
	defer inner.mu.Unlock()
	if len(inner.events) != 2 {
		t.Fatalf("want 2 events after Close, got %v", inner.events)
	}
}

func TestDropsWhenQueueFull(t *testing.T) {
	inner := &recHooks{block: make(chan struct{})}
	h := New(inner, 1, 1)

	// worker takes one event and blocks; queue holds one more; rest drop
	for i := 0; i < 10; i++ {
		h.Hit(fetchcache.EndpointEmployees, "k")
	}
	close(inner.block)
	h.Close()

	inner.mu.Lock()
	defer inner.mu.Unlock()
	if n := len(inner.events); n < 1 || n > 2 {
		t.Fatalf("expected 1..2 delivered events, got %d", n)
	}
}

func TestAfterCloseDoesNotPanic(t *testing.T) {
	h := New(fetchcache.NopHooks{}, 1, 1)
	h.Close()
	h.Close()
	h.SelfHeal("k", "corrupt")
}
