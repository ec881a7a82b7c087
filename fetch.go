package fetchcache

import (
	"context"
	"encoding/json"
	"fmt"
)

// FetchWithCache is Client.Fetch with the payload decoded into T.
// A JSON null payload yields the zero T.
func FetchWithCache[T any](ctx context.Context, c Client, endpoint Endpoint, params any) (T, error) {
	raw, err := c.Fetch(ctx, endpoint, params)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](endpoint, raw)
}

// FetchWithoutCache is Client.FetchNoCache with the payload decoded into T.
func FetchWithoutCache[T any](ctx context.Context, c Client, endpoint Endpoint, params any) (T, error) {
	raw, err := c.FetchNoCache(ctx, endpoint, params)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](endpoint, raw)
}

func decode[T any](endpoint Endpoint, raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("fetchcache: decode %s response: %w", endpoint, err)
	}
	return v, nil
}
