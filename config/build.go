package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/fetchcache"
	"github.com/unkn0wn-root/fetchcache/codec"
	"github.com/unkn0wn-root/fetchcache/keyindex"
	"github.com/unkn0wn-root/fetchcache/provider"
	"github.com/unkn0wn-root/fetchcache/provider/bigcache"
	"github.com/unkn0wn-root/fetchcache/provider/freecache"
	"github.com/unkn0wn-root/fetchcache/provider/memcache"
	"github.com/unkn0wn-root/fetchcache/provider/memory"
	"github.com/unkn0wn-root/fetchcache/provider/redis"
	"github.com/unkn0wn-root/fetchcache/provider/ristretto"
)

// Stack is what Build wires from a Config. Provider is nil for "none".
// Index is nil for index: local, leaving the client its in-process index.
// Validate refuses that pairing for memcache, whose entries outlive the
// process.
type Stack struct {
	Provider provider.Provider
	Index    keyindex.Index
	Codec    codec.Codec
}

func (c Config) Build() (Stack, error) {
	if err := c.Validate(); err != nil {
		return Stack{}, err
	}
	cd, err := codec.ByName(strings.ToLower(c.Codec))
	if err != nil {
		return Stack{}, fmt.Errorf("config: %w", err)
	}
	if c.MaxDecodeBytes > 0 {
		cd = codec.Limit{Inner: cd, MaxDecode: c.MaxDecodeBytes}
	}
	st := Stack{Codec: cd}

	switch strings.ToLower(c.Provider) {
	case "none":
	case "memory":
		st.Provider = memory.New()
	case "ristretto":
		st.Provider, err = ristretto.New(ristretto.Config{
			NumCounters: c.Ristretto.NumCounters,
			MaxCost:     c.Ristretto.MaxCost,
			BufferItems: c.Ristretto.BufferItems,
		})
	case "bigcache":
		st.Provider, err = bigcache.New(bigcache.Config{
			LifeWindow:         c.BigCache.LifeWindow,
			HardMaxCacheSizeMB: c.BigCache.HardMaxCacheSizeMB,
		})
	case "freecache":
		st.Provider = freecache.New(freecache.Config{SizeBytes: c.FreeCache.SizeBytes})
	case "memcache":
		st.Provider, err = memcache.New(memcache.Config{
			Servers: c.Memcache.Servers,
			Timeout: c.Memcache.Timeout,
		})
	case "redis":
		st, err = c.buildRedis(st)
	default:
		err = fmt.Errorf("unknown provider %q", c.Provider)
	}
	if err != nil {
		return Stack{}, fmt.Errorf("config: build %s provider: %w", c.Provider, err)
	}
	if st.Provider != nil && st.Index == nil && c.indexKind() == "redis" {
		idx, err := keyindex.NewRedis(keyindex.RedisConfig{
			Client:      c.redisClient(),
			Namespace:   c.Namespace,
			CloseClient: true,
		})
		if err != nil {
			_ = st.Provider.Close(context.Background())
			return Stack{}, fmt.Errorf("config: build redis index: %w", err)
		}
		st.Index = idx
	}
	return st, nil
}

func (c Config) redisClient() *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
}

// buildRedis shares one client between provider and index; the provider
// owns it and closes it last.
func (c Config) buildRedis(st Stack) (Stack, error) {
	rdb := c.redisClient()
	p, err := redis.New(redis.Config{Client: rdb, CloseClient: true, PingTimeout: c.Redis.PingTimeout})
	if err != nil {
		_ = rdb.Close()
		return Stack{}, err
	}
	idx, err := keyindex.NewRedis(keyindex.RedisConfig{Client: rdb, Namespace: c.Namespace})
	if err != nil {
		_ = p.Close(context.Background())
		return Stack{}, err
	}
	st.Provider, st.Index = p, idx
	return st, nil
}

// Options assembles client options from the config and a built stack.
func (c Config) Options(st Stack, t fetchcache.Transport, l fetchcache.Logger) fetchcache.Options {
	return fetchcache.Options{
		Transport:        t,
		Provider:         st.Provider,
		Index:            st.Index,
		Codec:            st.Codec,
		Namespace:        c.Namespace,
		Logger:           l,
		DefaultTTL:       c.TTL,
		CoalesceInflight: c.CoalesceInflight,
	}
}

// Close releases a stack that was never handed to a client.
func (st Stack) Close(ctx context.Context) error {
	if st.Provider == nil {
		return nil
	}
	var errs []error
	if st.Index != nil {
		errs = append(errs, st.Index.Close(ctx))
	}
	errs = append(errs, st.Provider.Close(ctx))
	return errors.Join(errs...)
}
