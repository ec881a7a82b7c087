// Package httptransport is the HTTP Transport: params are POSTed as JSON to
// <BaseURL>/<endpoint> and the response body is returned as the payload.
package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unkn0wn-root/fetchcache"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBody  = 16 << 20
	defaultAgent    = "fetchcache"
	contentTypeJSON = "application/json"
)

var ErrEmptyBaseURL = errors.New("httptransport: empty base URL")

// HTTPError captures unexpected status codes and response bodies.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

type Config struct {
	BaseURL   string
	Client    *http.Client // nil => client with a 10s timeout
	Header    http.Header  // sent with every request
	UserAgent string       // "" => "fetchcache"
	MaxBody   int64        // response size cap; 0 => 16MiB
}

type Transport struct {
	base    *url.URL
	client  *http.Client
	header  http.Header
	agent   string
	maxBody int64
}

var _ fetchcache.Transport = (*Transport)(nil)

func New(cfg Config) (*Transport, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrEmptyBaseURL
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("httptransport: parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("httptransport: unsupported scheme %q", u.Scheme)
	}

	t := &Transport{
		base:    u,
		client:  cfg.Client,
		header:  cfg.Header.Clone(),
		agent:   cfg.UserAgent,
		maxBody: cfg.MaxBody,
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: defaultTimeout}
	}
	if t.agent == "" {
		t.agent = defaultAgent
	}
	if t.maxBody <= 0 {
		t.maxBody = defaultMaxBody
	}
	return t, nil
}

// Must is New that panics on error. For package-level setup only.
func Must(cfg Config) *Transport {
	t, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return t
}

// Do posts params to the endpoint. nil params send an empty body.
// An empty response body is the JSON null payload.
func (t *Transport) Do(ctx context.Context, endpoint fetchcache.Endpoint, params any) (json.RawMessage, error) {
	var body io.Reader = http.NoBody
	if !fetchcache.NoParams(params) {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("httptransport: encode %s params: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url(endpoint), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range t.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("User-Agent", t.agent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("httptransport: read %s response: %w", endpoint, err)
	}
	if int64(len(data)) > t.maxBody {
		return nil, fmt.Errorf("httptransport: %s response exceeds %d bytes", endpoint, t.maxBody)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: data}
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("httptransport: %s response is not JSON", endpoint)
	}
	return json.RawMessage(data), nil
}

func (t *Transport) url(endpoint fetchcache.Endpoint) string {
	return t.base.JoinPath(string(endpoint)).String()
}
