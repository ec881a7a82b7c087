package apex

import (
	"github.com/apex/log"

	"github.com/unkn0wn-root/fetchcache"
)

var _ fetchcache.Logger = Logger{}

// Logger adapts an apex/log Interface. A nil L logs through the package
// level apex logger.
type Logger struct{ L log.Interface }

func (a Logger) Debug(msg string, f fetchcache.Fields) { a.entry(f).Debug(msg) }
func (a Logger) Info(msg string, f fetchcache.Fields)  { a.entry(f).Info(msg) }
func (a Logger) Warn(msg string, f fetchcache.Fields)  { a.entry(f).Warn(msg) }
func (a Logger) Error(msg string, f fetchcache.Fields) { a.entry(f).Error(msg) }

func (a Logger) entry(f fetchcache.Fields) *log.Entry {
	l := a.L
	if l == nil {
		l = log.Log
	}
	return l.WithFields(log.Fields(f))
}
