package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/fetchcache"
)

var _ fetchcache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) Debug(msg string, f fetchcache.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f fetchcache.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f fetchcache.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f fetchcache.Fields) { l.with(f).Error(msg) }

// with copies f so the caller's map is never retained by the entry. Errors
// are stored as their message; logrus would otherwise keep the value and let
// each formatter render it its own way.
func (l LogrusLogger) with(f fetchcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	data := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			data[k] = err.Error()
			continue
		}
		data[k] = v
	}
	return l.E.WithFields(data)
}
