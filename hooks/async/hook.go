// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/fetchcache"
//	asynchook "github.com/unkn0wn-root/fetchcache/hooks/async"
//	"github.com/unkn0wn-root/fetchcache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    HitEvery:      100, // sample logs: ~every 100th hit
//	    SelfHealEvery: 10,
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	client, _ := fetchcache.New(fetchcache.Options{
//	    Transport: transport,
//	    Provider:  provider,
//	    Hooks:     hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/fetchcache"
)

type Hooks struct {
	inner fetchcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ fetchcache.Hooks = (*Hooks)(nil)

func New(inner fetchcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers.
// Events raised after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	defer func() { _ = recover() }() // send on closed queue
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) Hit(ep fetchcache.Endpoint, k string)  { h.try(func() { h.inner.Hit(ep, k) }) }
func (h *Hooks) Miss(ep fetchcache.Endpoint, k string) { h.try(func() { h.inner.Miss(ep, k) }) }
func (h *Hooks) SelfHeal(k, r string)                  { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) ProviderSetRejected(k string)          { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) PatchFailed(k string, err error)       { h.try(func() { h.inner.PatchFailed(k, err) }) }
func (h *Hooks) IndexError(op string, err error)       { h.try(func() { h.inner.IndexError(op, err) }) }
