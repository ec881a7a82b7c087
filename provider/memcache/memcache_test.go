package memcache

import (
	"testing"
	"time"
)

func TestExpiration(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cases := []struct {
		ttl  time.Duration
		want int32
	}{
		{0, 0},
		{-time.Second, 0},
		{500 * time.Millisecond, 1},
		{90 * time.Second, 90},
		{maxRelativeExpiry, int32(maxRelativeExpiry / time.Second)},
		{maxRelativeExpiry + time.Hour, int32(now.Add(maxRelativeExpiry + time.Hour).Unix())},
	}
	for _, tc := range cases {
		if got := expiration(tc.ttl, now); got != tc.want {
			t.Fatalf("expiration(%v) = %d, want %d", tc.ttl, got, tc.want)
		}
	}
}

func TestEncodeKeyIsMemcacheSafe(t *testing.T) {
	k := encodeKey(`paginatedTransactions@{"page":null, "q":"a b"}`)
	if len(k) != 32 {
		t.Fatalf("want 32 hex chars, got %d (%s)", len(k), k)
	}
	for _, r := range k {
		if r <= ' ' || r == 0x7f {
			t.Fatalf("unsafe rune %q in key %s", r, k)
		}
	}
	if encodeKey("a") == encodeKey("b") {
		t.Fatalf("distinct keys must hash differently")
	}
}

func TestNewRequiresServers(t *testing.T) {
	if _, err := New(Config{}); err != ErrNoServers {
		t.Fatalf("want ErrNoServers, got %v", err)
	}
}
