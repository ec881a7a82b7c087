package fetchcache

import (
	"context"
	"encoding/json"
	"time"

	c "github.com/unkn0wn-root/fetchcache/codec"
	ki "github.com/unkn0wn-root/fetchcache/keyindex"
	pr "github.com/unkn0wn-root/fetchcache/provider"
)

type SetCostFunc func(storageKey string, raw []byte) int64

// Client is the request cache. All methods are safe for concurrent use.
type Client interface {
	Enabled() bool
	// Loading reports whether any fetch is in flight.
	Loading() bool
	Close(context.Context) error

	// Fetch returns the cached payload for (endpoint, params) or calls the
	// transport and caches its result.
	Fetch(ctx context.Context, endpoint Endpoint, params any) (json.RawMessage, error)
	// FetchNoCache always calls the transport. The cache is neither read nor written.
	FetchNoCache(ctx context.Context, endpoint Endpoint, params any) (json.RawMessage, error)

	ClearCache(ctx context.Context) error
	ClearCacheByEndpoint(ctx context.Context, endpoints ...Endpoint) error
	UpdateCacheOnTransactionApproval(ctx context.Context, transactionID string, approved bool) error

	// Keys lists cache keys with the given literal prefix in insertion order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Entry(ctx context.Context, key string) (EntryInfo, bool, error)
}

// EntryInfo describes one cached response.
type EntryInfo struct {
	Key      string
	Payload  json.RawMessage
	StoredAt time.Time
	Size     int // stored bytes, frame included
}

// Options configure a Client. Only Transport is required.
type Options struct {
	Transport Transport

	// Provider holds the entries. If nil, caching is disabled and every
	// fetch goes straight to the transport.
	Provider pr.Provider
	Index    ki.Index // nil => keyindex.Local
	Codec    c.Codec  // nil => codec.JSON

	Namespace       string        // storage key prefix; "" => "fetchcache"
	Logger          Logger        // if nil, NopLogger is used
	Hooks           Hooks         // if nil, NopHooks is used
	DefaultTTL      time.Duration // 0 => entries live until cleared
	CleanupInterval time.Duration // local index pruning; 0 => 1h
	ComputeSetCost  SetCostFunc   // default 1
	Disabled        bool

	// CoalesceInflight makes concurrent misses for one key share a single
	// transport call. Off by default: each miss fetches and the last write wins.
	CoalesceInflight bool
}

func New(opts Options) (Client, error) {
	cl, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	return cl, nil
}
