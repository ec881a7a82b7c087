package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
)

// newLogger returns an apex logger writing to w at the named level.
func newLogger(w io.Writer, level string) (*log.Logger, error) {
	if level == "" {
		level = "error"
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return &log.Logger{Handler: &lineHandler{w: w, now: time.Now}, Level: lvl}, nil
}

// lineHandler writes one line per entry: time, level initial, message, fields.
type lineHandler struct {
	w   io.Writer
	now func() time.Time
}

func (h *lineHandler) HandleLog(e *log.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", h.now().Format("2006-01-02 15:04:05"), strings.ToUpper(e.Level.String()), e.Message)

	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	b.WriteByte('\n')
	_, err := io.WriteString(h.w, b.String())
	return err
}
