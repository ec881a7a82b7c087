package fetchcache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

const keySep = "@"

// Prefixes whose payloads are rewritten when an approval changes.
const (
	transactionsByEmployeePrefix = string(EndpointTransactionsByEmployee) + keySep
	paginatedTransactionsPrefix  = string(EndpointPaginatedTransactions) + keySep
)

// CacheKey derives the key for a request: the endpoint alone when params is
// nil, otherwise endpoint + "@" + the JSON encoding of params. Struct fields
// keep declaration order and map keys are sorted, so equal params always give
// the same key. HTML characters are not escaped.
func CacheKey(endpoint Endpoint, params any) (string, error) {
	if NoParams(params) {
		return string(endpoint), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(params); err != nil {
		return "", fmt.Errorf("fetchcache: encode %s params: %w", endpoint, err)
	}
	return string(endpoint) + keySep + string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// NoParams reports whether params is absent: nil, or a nil pointer, map or
// slice in an interface. Such params give the bare endpoint key and an empty
// request body.
func NoParams(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
