package freecache

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestRoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	p := New(Config{SizeBytes: 1 << 20})
	defer p.Close(ctx)

	if ok, err := p.Set(ctx, "employees", []byte(`[{"id":"e1"}]`), 1, time.Minute); !ok || err != nil {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	b, ok, err := p.Get(ctx, "employees")
	if err != nil || !ok || !bytes.Equal(b, []byte(`[{"id":"e1"}]`)) {
		t.Fatalf("Get: %q ok=%v err=%v", b, ok, err)
	}
	if err := p.Del(ctx, "employees"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, err := p.Get(ctx, "employees"); ok || err != nil {
		t.Fatalf("expected miss after Del, ok=%v err=%v", ok, err)
	}
}

func TestOversizedEntryRejected(t *testing.T) {
	ctx := context.Background()
	p := New(Config{SizeBytes: 1 << 20})
	defer p.Close(ctx)

	big := []byte(strings.Repeat("x", 64<<10))
	ok, err := p.Set(ctx, "big", big, 1, 0)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ok {
		t.Fatalf("expected oversized entry to be refused")
	}
}
