// Package fetchcache memoizes API requests by endpoint and parameters.
// A miss calls the Transport and stores the JSON result; a hit returns the
// stored JSON without touching the network. Cached listings can be patched in
// place when a transaction's approval changes, so views built from them stay
// consistent without a refetch.
//
// Components:
//   - Provider: byte store with TTL (memory, Ristretto, BigCache, freecache, Redis, memcache).
//   - Codec: storage encoding of the JSON payload (JSON, msgpack, CBOR, protobuf).
//   - Index: ordered key set used for prefix sweeps. Local (in-process) by default,
//     optional Redis implementation when several processes share one provider.
//
// Keys:
//
//	<endpoint>                - request without params
//	<endpoint>@<json(params)> - request with params
//
// Storage keys are "<namespace>:<key>". Clearing by endpoint removes every key
// whose text starts with the endpoint name.
//
// Usage:
//
//	c, _ := fetchcache.New(fetchcache.Options{
//	    Provider:  memory.New(),
//	    Transport: httptransport.Must(httptransport.Config{BaseURL: "http://localhost:8080"}),
//	})
//	txs, err := fetchcache.FetchWithCache[[]fetchcache.Transaction](ctx, c,
//	    fetchcache.EndpointTransactionsByEmployee, fetchcache.RequestByEmployeeParams{EmployeeID: "e1"})
//	_ = c.UpdateCacheOnTransactionApproval(ctx, txs[0].ID, true)
package fetchcache
