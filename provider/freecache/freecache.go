package freecache

import (
	"context"
	"errors"
	"time"

	fc "github.com/coocood/freecache"

	pr "github.com/unkn0wn-root/fetchcache/provider"
)

type Provider struct {
	c *fc.Cache
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	SizeBytes int // total arena; 0 => 64 MiB (freecache minimum is 512 KiB)
}

func New(cfg Config) *Provider {
	size := cfg.SizeBytes
	if size <= 0 {
		size = 64 << 20
	}
	return &Provider{c: fc.NewCache(size)}
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get([]byte(key))
	if errors.Is(err, fc.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set rounds ttl up to whole seconds. Entries larger than 1/1024 of the
// arena are refused with ok=false.
func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	secs := 0
	if ttl > 0 {
		secs = int((ttl + time.Second - 1) / time.Second)
	}
	err := p.c.Set([]byte(key), value, secs)
	if errors.Is(err, fc.ErrLargeEntry) || errors.Is(err, fc.ErrLargeKey) {
		return false, nil
	}
	return err == nil, err
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del([]byte(key))
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Clear()
	return nil
}
