//go:build go1.21

package slog

import (
	"bytes"
	"errors"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/fetchcache"
)

func TestWritesAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelDebug})
	l := Logger{L: stdslog.New(h)}

	l.Info("cache disabled; fetches pass through to transport", fetchcache.Fields{"ns": "fetchcache"})
	out := buf.String()
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "ns=fetchcache") {
		t.Fatalf("unexpected output: %q", out)
	}

	buf.Reset()
	l.Debug("no fields", nil)
	if !strings.Contains(buf.String(), "level=DEBUG") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestErrorFieldsRenderAsMessage(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewJSONHandler(&buf, nil)
	l := Logger{L: stdslog.New(h)}

	l.Warn("cached entry left unpatched", fetchcache.Fields{
		"key": "paginatedTransactions@{}",
		"err": errors.New("jsonpatch: not an array"),
	})
	out := buf.String()
	if !strings.Contains(out, `"err":"jsonpatch: not an array"`) {
		t.Fatalf("err field not rendered as message: %q", out)
	}
	if strings.Index(out, `"err"`) > strings.Index(out, `"key"`) {
		t.Fatalf("fields should be in key order: %q", out)
	}

	buf.Reset()
	l.Debug("below level", fetchcache.Fields{"k": "v"})
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level: %q", buf.String())
	}
}
