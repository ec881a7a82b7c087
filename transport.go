package fetchcache

import (
	"context"
	"encoding/json"
)

// Transport performs the network request for an endpoint. Errors are returned
// to the caller unchanged; the cache never retries.
type Transport interface {
	Do(ctx context.Context, endpoint Endpoint, params any) (json.RawMessage, error)
}

type TransportFunc func(ctx context.Context, endpoint Endpoint, params any) (json.RawMessage, error)

func (f TransportFunc) Do(ctx context.Context, endpoint Endpoint, params any) (json.RawMessage, error) {
	return f(ctx, endpoint, params)
}
