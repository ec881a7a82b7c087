package memcache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"time"

	mc "github.com/bradfitz/gomemcache/memcache"

	pr "github.com/unkn0wn-root/fetchcache/provider"
)

// memcached treats expirations beyond 30 days as absolute unix times.
const maxRelativeExpiry = 30 * 24 * time.Hour

var ErrNoServers = errors.New("memcache provider: no servers")

// Provider stores entries in memcached. Keys are MD5-hashed because cache
// keys carry JSON and may exceed memcached's 250 byte, no-whitespace limit.
type Provider struct {
	c *mc.Client
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Servers []string
	Timeout time.Duration // 0 => client default
}

func New(cfg Config) (*Provider, error) {
	if len(cfg.Servers) == 0 {
		return nil, ErrNoServers
	}
	c := mc.New(cfg.Servers...)
	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	it, err := p.c.Get(encodeKey(key))
	if errors.Is(err, mc.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return it.Value, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	err := p.c.Set(&mc.Item{Key: encodeKey(key), Value: value, Expiration: expiration(ttl, time.Now())})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	err := p.c.Delete(encodeKey(key))
	if errors.Is(err, mc.ErrCacheMiss) {
		return nil
	}
	return err
}

// Close is a no-op; the client holds no resources beyond idle connections.
func (p *Provider) Close(_ context.Context) error { return nil }

func expiration(ttl time.Duration, now time.Time) int32 {
	switch {
	case ttl <= 0:
		return 0
	case ttl > maxRelativeExpiry:
		return int32(now.Add(ttl).Unix())
	case ttl < time.Second:
		return 1
	}
	return int32(ttl / time.Second)
}

// encodeKey hashes k with MD5 and returns the hex string.
func encodeKey(k string) string {
	h := md5.New()
	_, _ = h.Write([]byte(k))
	return hex.EncodeToString(h.Sum(nil))
}
