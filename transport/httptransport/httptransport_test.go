package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/fetchcache"
)

func TestPostsParamsAsJSON(t *testing.T) {
	var gotPath, gotBody, gotCT, gotAgent, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		b, _ := io.ReadAll(r.Body)
		gotPath, gotBody = r.URL.Path, string(b)
		gotCT, gotAgent = r.Header.Get("Content-Type"), r.Header.Get("User-Agent")
		gotToken = r.Header.Get("X-Token")
		_, _ = w.Write([]byte(`[{"id":"t1","approved":false}]`))
	}))
	defer srv.Close()

	tr, err := New(Config{BaseURL: srv.URL + "/api/", Header: http.Header{"X-Token": {"s3cr3t"}}})
	require.NoError(t, err)

	raw, err := tr.Do(context.Background(), fetchcache.EndpointTransactionsByEmployee,
		fetchcache.RequestByEmployeeParams{EmployeeID: "e1"})
	require.NoError(t, err)

	assert.Equal(t, "/api/transactionsByEmployee", gotPath)
	assert.JSONEq(t, `{"employeeId":"e1"}`, gotBody)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "fetchcache", gotAgent)
	assert.Equal(t, "s3cr3t", gotToken)
	assert.JSONEq(t, `[{"id":"t1","approved":false}]`, string(raw))
}

func TestNilParamsSendEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.Empty(t, b)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var page *fetchcache.PaginatedRequestParams
	tests := []struct {
		name   string
		params any
	}{
		{"untyped nil", nil},
		{"nil pointer", page},
		{"nil map", map[string]any(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Must(Config{BaseURL: srv.URL}).Do(context.Background(), fetchcache.EndpointPaginatedTransactions, tt.params)
			require.NoError(t, err)
			assert.Equal(t, "[]", string(raw))

			// the key for these params has no suffix either
			key, err := fetchcache.CacheKey(fetchcache.EndpointPaginatedTransactions, tt.params)
			require.NoError(t, err)
			assert.Equal(t, "paginatedTransactions", key)
		})
	}
}

func TestEmptyBodyIsNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	raw, err := Must(Config{BaseURL: srv.URL}).Do(context.Background(), fetchcache.EndpointSetTransactionApproval,
		fetchcache.SetTransactionApprovalParams{TransactionID: "t1", Value: true})
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage("null"), raw)
}

func TestNon2xxIsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))
	defer srv.Close()

	_, err := Must(Config{BaseURL: srv.URL}).Do(context.Background(), fetchcache.EndpointEmployees, nil)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, "down", string(httpErr.Body))
}

func TestInvalidJSONAndOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/employees" {
			_, _ = w.Write([]byte("<html>"))
			return
		}
		_, _ = w.Write([]byte(`"0123456789"`))
	}))
	defer srv.Close()

	_, err := Must(Config{BaseURL: srv.URL}).Do(context.Background(), fetchcache.EndpointEmployees, nil)
	assert.ErrorContains(t, err, "not JSON")

	_, err = Must(Config{BaseURL: srv.URL, MaxBody: 4}).Do(context.Background(), fetchcache.EndpointPaginatedTransactions, nil)
	assert.ErrorContains(t, err, "exceeds 4 bytes")
}

func TestContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Must(Config{BaseURL: srv.URL}).Do(ctx, fetchcache.EndpointEmployees, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrEmptyBaseURL)

	_, err = New(Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	assert.Panics(t, func() { Must(Config{}) })
}
