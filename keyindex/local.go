package keyindex

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type localEntry struct {
	Seq       uint64
	UpdatedAt time.Time
}

// Local keeps keys in-process (default).
// Optional cleanup loop to prune keys whose entries have expired from the provider.
type Local struct {
	mu   sync.RWMutex
	keys map[string]localEntry
	seq  uint64

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	retention time.Duration
	now       func() time.Time
}

var _ Index = (*Local)(nil)

// NewLocal starts a cleanup loop when both cleanupInterval and retention are
// positive. retention should match the cache TTL.
func NewLocal(cleanupInterval, retention time.Duration) *Local {
	s := &Local{
		keys:      make(map[string]localEntry),
		retention: retention,
		now:       time.Now,
	}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Cleanup(retention)
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

// Add refreshes the timestamp of a known key without moving it.
func (s *Local) Add(_ context.Context, k string) error {
	now := s.now()
	s.mu.Lock()
	e, ok := s.keys[k]
	if !ok {
		s.seq++
		e.Seq = s.seq
	}
	e.UpdatedAt = now
	s.keys[k] = e
	s.mu.Unlock()
	return nil
}

func (s *Local) Remove(_ context.Context, ks ...string) error {
	s.mu.Lock()
	for _, k := range ks {
		delete(s.keys, k)
	}
	s.mu.Unlock()
	return nil
}

// Keys acquires the read lock once, then orders matches by insertion.
func (s *Local) Keys(_ context.Context, prefix string) ([]string, error) {
	type hit struct {
		key string
		seq uint64
	}
	var hits []hit
	s.mu.RLock()
	for k, e := range s.keys {
		if strings.HasPrefix(k, prefix) {
			hits = append(hits, hit{k, e.Seq})
		}
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.key
	}
	return out, nil
}

func (s *Local) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

func (s *Local) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := s.now().Add(-retention)

	s.mu.Lock()
	for k, e := range s.keys {
		if !e.UpdatedAt.IsZero() && e.UpdatedAt.Before(cutoff) {
			delete(s.keys, k)
		}
	}
	s.mu.Unlock()
}

func (s *Local) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			if s.ticker != nil {
				s.ticker.Stop() // stop ticker before waiting
			}
			s.wg.Wait()
		}
	})
	return nil
}
