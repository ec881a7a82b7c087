package fetchcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	c "github.com/unkn0wn-root/fetchcache/codec"
	"github.com/unkn0wn-root/fetchcache/internal/jsonpatch"
	"github.com/unkn0wn-root/fetchcache/internal/wire"
	ki "github.com/unkn0wn-root/fetchcache/keyindex"
	pr "github.com/unkn0wn-root/fetchcache/provider"
)

var nullPayload = json.RawMessage("null")

var _ Client = (*client)(nil)

type client struct {
	ns             string
	provider       pr.Provider
	index          ki.Index
	codec          c.Codec
	transport      Transport
	log            Logger
	hooks          Hooks
	enabled        bool
	ttl            time.Duration
	computeSetCost SetCostFunc
	coalesce       bool
	now            func() time.Time

	track   inflight
	group   singleflight.Group
	patchMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

type entry struct {
	payload  json.RawMessage
	storedAt time.Time
	size     int
}

func newClient(opts Options) (*client, error) {
	if opts.Transport == nil {
		return nil, ErrNilTransport
	}

	cl := &client{
		transport: opts.Transport,
		provider:  opts.Provider,
		ttl:       opts.DefaultTTL,
		coalesce:  opts.CoalesceInflight,
		now:       time.Now,
	}

	// defaults
	cl.ns = coalesce(opts.Namespace, defaultNamespace)
	cl.log = coalesce[Logger](opts.Logger, NopLogger{})
	cl.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	cl.codec = coalesce[c.Codec](opts.Codec, c.JSON{})

	if opts.ComputeSetCost != nil {
		cl.computeSetCost = opts.ComputeSetCost
	} else {
		cl.computeSetCost = func(string, []byte) int64 { return 1 }
	}

	cl.enabled = !opts.Disabled && opts.Provider != nil
	if !cl.enabled {
		cl.log.Info("cache disabled; fetches pass through to transport", Fields{"ns": cl.ns})
		return cl, nil
	}

	if opts.Index != nil {
		cl.index = opts.Index
	} else {
		// entries older than the TTL are gone from the provider, so the index may forget them too
		cl.index = ki.NewLocal(coalesce(opts.CleanupInterval, defaultSweep), cl.ttl)
	}
	return cl, nil
}

func (cl *client) Enabled() bool { return cl.enabled }

func (cl *client) Loading() bool { return cl.track.loading() }

func (cl *client) Close(ctx context.Context) error {
	cl.closeOnce.Do(func() {
		if !cl.enabled {
			return
		}
		// index first (best effort)
		if cl.index != nil {
			_ = cl.index.Close(ctx)
		}
		cl.closeErr = cl.provider.Close(ctx)
	})
	return cl.closeErr
}

func (cl *client) Fetch(ctx context.Context, endpoint Endpoint, params any) (json.RawMessage, error) {
	return cl.track.wrap(func() (json.RawMessage, error) {
		if !cl.enabled {
			return cl.do(ctx, endpoint, params)
		}
		key, err := CacheKey(endpoint, params)
		if err != nil {
			return nil, err
		}

		e, ok, err := cl.load(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			cl.hooks.Hit(endpoint, key)
			// another process sharing the provider may have written it
			if err := cl.index.Add(ctx, key); err != nil {
				cl.hooks.IndexError("add", err)
			}
			return e.payload, nil
		}
		cl.hooks.Miss(endpoint, key)

		if !cl.coalesce {
			return cl.fill(ctx, endpoint, params, key)
		}
		v, err, shared := cl.group.Do(key, func() (any, error) {
			return cl.fill(ctx, endpoint, params, key)
		})
		if err != nil {
			return nil, err
		}
		if shared {
			cl.log.Debug("miss coalesced with in-flight request", Fields{"key": key})
		}
		return v.(json.RawMessage), nil
	})
}

func (cl *client) FetchNoCache(ctx context.Context, endpoint Endpoint, params any) (json.RawMessage, error) {
	return cl.track.wrap(func() (json.RawMessage, error) {
		return cl.do(ctx, endpoint, params)
	})
}

func (cl *client) ClearCache(ctx context.Context) error {
	if !cl.enabled {
		return nil
	}
	keys, err := cl.keys(ctx, "")
	if err != nil {
		return err
	}
	return cl.drop(ctx, keys)
}

func (cl *client) ClearCacheByEndpoint(ctx context.Context, endpoints ...Endpoint) error {
	if !cl.enabled || len(endpoints) == 0 {
		return nil
	}
	keys, err := cl.keys(ctx, "")
	if err != nil {
		return err
	}
	var doomed []string
	for _, k := range keys {
		for _, ep := range endpoints {
			if strings.HasPrefix(k, string(ep)) {
				doomed = append(doomed, k)
				break
			}
		}
	}
	return cl.drop(ctx, doomed)
}

// UpdateCacheOnTransactionApproval rewrites the approved flag of transaction id
// in every cached transactionsByEmployee and paginatedTransactions response.
// Entries that cannot be patched are left as they were and reported as
// *PatchError values joined in the returned error; the sweep carries on.
func (cl *client) UpdateCacheOnTransactionApproval(ctx context.Context, transactionID string, approved bool) error {
	if !cl.enabled {
		return nil
	}
	cl.patchMu.Lock()
	defer cl.patchMu.Unlock()

	errs := cl.sweep(ctx, transactionsByEmployeePrefix, func(p []byte) ([]byte, error) {
		return jsonpatch.Transactions(p, transactionID, approved)
	})
	errs = append(errs, cl.sweep(ctx, paginatedTransactionsPrefix, func(p []byte) ([]byte, error) {
		return jsonpatch.Paginated(p, transactionID, approved)
	})...)
	return errors.Join(errs...)
}

func (cl *client) Keys(ctx context.Context, prefix string) ([]string, error) {
	if !cl.enabled {
		return nil, nil
	}
	return cl.keys(ctx, prefix)
}

func (cl *client) Entry(ctx context.Context, key string) (EntryInfo, bool, error) {
	if !cl.enabled {
		return EntryInfo{}, false, nil
	}
	e, ok, err := cl.load(ctx, key)
	if err != nil || !ok {
		return EntryInfo{}, false, err
	}
	return EntryInfo{Key: key, Payload: e.payload, StoredAt: e.storedAt, Size: e.size}, true, nil
}

func (cl *client) do(ctx context.Context, endpoint Endpoint, params any) (json.RawMessage, error) {
	res, err := cl.transport.Do(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nullPayload, nil
	}
	return res, nil
}

func (cl *client) fill(ctx context.Context, endpoint Endpoint, params any, key string) (json.RawMessage, error) {
	res, err := cl.do(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	if err := cl.store(ctx, key, res, cl.now()); err != nil {
		cl.log.Warn("store fetched response failed", Fields{"key": key, "err": err})
		return nil, fmt.Errorf("fetchcache: store %q: %w", key, err)
	}
	return res, nil
}

func (cl *client) load(ctx context.Context, key string) (entry, bool, error) {
	sk := cl.storageKey(key)
	raw, ok, err := cl.provider.Get(ctx, sk)
	if err != nil || !ok {
		return entry{}, false, err
	}
	f, err := wire.DecodeAs(raw, cl.codec.ID())
	if err != nil {
		reason := "corrupt"
		if errors.Is(err, wire.ErrCodecMismatch) {
			reason = "codec_mismatch"
		}
		cl.selfHeal(ctx, key, sk, reason)
		return entry{}, false, nil
	}
	payload, err := cl.codec.Decode(f.Body)
	if err != nil {
		cl.selfHeal(ctx, key, sk, "decode")
		return entry{}, false, nil
	}
	return entry{payload: payload, storedAt: f.StoredAt, size: len(raw)}, true, nil
}

func (cl *client) store(ctx context.Context, key string, payload json.RawMessage, storedAt time.Time) error {
	body, err := cl.codec.Encode(payload)
	if err != nil {
		return err
	}
	sk := cl.storageKey(key)
	frame := wire.Encode(wire.Frame{Codec: cl.codec.ID(), StoredAt: storedAt, Body: body})
	ok, err := cl.provider.Set(ctx, sk, frame, cl.computeSetCost(sk, frame), cl.ttl)
	if err != nil {
		return err
	}
	if !ok {
		cl.log.Debug("Set rejected by provider (pressure)", Fields{"key": key})
		cl.hooks.ProviderSetRejected(sk)
		return nil
	}
	if err := cl.index.Add(ctx, key); err != nil {
		// an unindexed entry would escape clears and patches
		cl.hooks.IndexError("add", err)
		_ = cl.provider.Del(ctx, sk)
		return fmt.Errorf("index add: %w", err)
	}
	return nil
}

func (cl *client) sweep(ctx context.Context, prefix string, patch func([]byte) ([]byte, error)) []error {
	keys, err := cl.keys(ctx, prefix)
	if err != nil {
		return []error{err}
	}

	var errs []error
	patched := 0
	for _, key := range keys {
		e, ok, err := cl.load(ctx, key)
		if err != nil {
			errs = append(errs, &PatchError{Key: key, Err: err})
			continue
		}
		if !ok {
			// evicted or dropped; forget it
			if err := cl.index.Remove(ctx, key); err != nil {
				cl.hooks.IndexError("remove", err)
			}
			continue
		}
		out, err := patch(e.payload)
		if err != nil {
			cl.hooks.PatchFailed(key, err)
			cl.log.Warn("cached entry left unpatched", Fields{"key": key, "err": err})
			errs = append(errs, &PatchError{Key: key, Err: err})
			continue
		}
		if err := cl.store(ctx, key, out, e.storedAt); err != nil {
			errs = append(errs, &PatchError{Key: key, Err: err})
			continue
		}
		patched++
	}
	cl.log.Debug("patched cached entries", Fields{"prefix": prefix, "patched": patched, "failed": len(errs)})
	return errs
}

func (cl *client) drop(ctx context.Context, keys []string) error {
	var errs []error
	for _, k := range keys {
		delErr := cl.provider.Del(ctx, cl.storageKey(k))
		idxErr := cl.index.Remove(ctx, k)
		if idxErr != nil {
			cl.hooks.IndexError("remove", idxErr)
		}
		if delErr != nil || idxErr != nil {
			errs = append(errs, &InvalidateError{Key: k, DelErr: delErr, IndexErr: idxErr})
		}
	}
	cl.log.Debug("cleared cached entries", Fields{"count": len(keys), "failed": len(errs)})
	return errors.Join(errs...)
}

func (cl *client) keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := cl.index.Keys(ctx, prefix)
	if err != nil {
		cl.hooks.IndexError("keys", err)
		return nil, fmt.Errorf("fetchcache: list keys %q: %w", prefix, err)
	}
	return keys, nil
}

func (cl *client) selfHeal(ctx context.Context, key, storageKey, reason string) {
	_ = cl.provider.Del(ctx, storageKey)
	if err := cl.index.Remove(ctx, key); err != nil {
		cl.hooks.IndexError("remove", err)
	}
	cl.hooks.SelfHeal(storageKey, reason)
	cl.log.Debug("dropped unreadable entry", Fields{"key": key, "reason": reason})
}

func (cl *client) storageKey(key string) string {
	// isolate by namespace
	return cl.ns + ":" + key
}
