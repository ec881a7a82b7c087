package fetchcache

import "fmt"

// Endpoint names a remote operation. It doubles as the cache key prefix.
type Endpoint string

const (
	EndpointEmployees              Endpoint = "employees"
	EndpointPaginatedTransactions  Endpoint = "paginatedTransactions"
	EndpointTransactionsByEmployee Endpoint = "transactionsByEmployee"
	EndpointSetTransactionApproval Endpoint = "setTransactionApproval"
)

var registered = []Endpoint{
	EndpointEmployees,
	EndpointPaginatedTransactions,
	EndpointTransactionsByEmployee,
	EndpointSetTransactionApproval,
}

// Endpoints returns the registered endpoints.
func Endpoints() []Endpoint {
	out := make([]Endpoint, len(registered))
	copy(out, registered)
	return out
}

func (e Endpoint) Registered() bool {
	for _, r := range registered {
		if e == r {
			return true
		}
	}
	return false
}

func ParseEndpoint(s string) (Endpoint, error) {
	e := Endpoint(s)
	if !e.Registered() {
		return "", fmt.Errorf("fetchcache: unknown endpoint %q", s)
	}
	return e, nil
}

// NewParams returns a pointer to a zero params value for e, ready to be
// unmarshaled into, or nil when e takes no params. Decoding into the typed
// value keeps field order, and so the cache key, identical to library calls.
func (e Endpoint) NewParams() any {
	switch e {
	case EndpointPaginatedTransactions:
		return &PaginatedRequestParams{}
	case EndpointTransactionsByEmployee:
		return &RequestByEmployeeParams{}
	case EndpointSetTransactionApproval:
		return &SetTransactionApprovalParams{}
	}
	return nil
}
