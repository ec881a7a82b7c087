package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/fetchcache"
)

func TestForwardsLevelAndFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := LogrusLogger{E: logrus.NewEntry(base)}

	l.Debug("dropped unreadable entry", fetchcache.Fields{"reason": "corrupt"})
	l.Warn("cached entry left unpatched", fetchcache.Fields{"key": "paginatedTransactions@{}"})

	if n := len(hook.AllEntries()); n != 2 {
		t.Fatalf("want 2 entries, got %d", n)
	}
	first := hook.AllEntries()[0]
	if first.Level != logrus.DebugLevel || first.Data["reason"] != "corrupt" {
		t.Fatalf("unexpected first entry: %v %v", first.Level, first.Data)
	}
	last := hook.LastEntry()
	if last.Level != logrus.WarnLevel || last.Message != "cached entry left unpatched" {
		t.Fatalf("unexpected last entry: %v %q", last.Level, last.Message)
	}
}

func TestErrorFieldsRenderAsMessage(t *testing.T) {
	base, hook := test.NewNullLogger()
	l := LogrusLogger{E: logrus.NewEntry(base)}

	f := fetchcache.Fields{"err": errors.New("boom"), "key": "employees"}
	l.Error("cache set failed", f)

	e := hook.LastEntry()
	if e == nil || e.Level != logrus.ErrorLevel {
		t.Fatalf("unexpected entry: %v", e)
	}
	if got := e.Data["err"]; got != "boom" {
		t.Fatalf("err field = %#v, want the message", got)
	}
	if _, ok := f["err"].(error); !ok {
		t.Fatalf("caller's fields were modified")
	}

	l.Info("no fields", nil)
	if n := len(hook.LastEntry().Data); n != 0 {
		t.Fatalf("want no fields, got %d", n)
	}
}
