// Package prometheus exports cache events as Prometheus counters.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/fetchcache"
)

const subsystem = "cache"

// Hooks counts cache events. Keys are never used as label values since
// they embed request params and would explode cardinality.
type Hooks struct {
	hits        *prometheus.CounterVec
	misses      *prometheus.CounterVec
	selfHeals   *prometheus.CounterVec
	setRejected prometheus.Counter
	patchFailed prometheus.Counter
	indexErrors *prometheus.CounterVec
}

var _ fetchcache.Hooks = (*Hooks)(nil)

// New registers the counters with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	h := &Hooks{
		hits: newCounterVec(namespace, "hits_total",
			"Fetches served from the cache.",
			[]string{"endpoint"}),
		misses: newCounterVec(namespace, "misses_total",
			"Fetches that went to the transport.",
			[]string{"endpoint"}),
		selfHeals: newCounterVec(namespace, "self_heals_total",
			"Unreadable entries deleted on read.",
			[]string{"reason"}),
		setRejected: newCounter(namespace, "set_rejected_total",
			"Writes the provider refused under pressure."),
		patchFailed: newCounter(namespace, "patch_failures_total",
			"Cached listings left unpatched on approval change."),
		indexErrors: newCounterVec(namespace, "index_errors_total",
			"Key index failures.",
			[]string{"op"}),
	}
	for _, c := range []prometheus.Collector{h.hits, h.misses, h.selfHeals, h.setRejected, h.patchFailed, h.indexErrors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func newCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func newCounter(namespace, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

func (h *Hooks) Hit(endpoint fetchcache.Endpoint, _ string) {
	h.hits.WithLabelValues(string(endpoint)).Inc()
}

func (h *Hooks) Miss(endpoint fetchcache.Endpoint, _ string) {
	h.misses.WithLabelValues(string(endpoint)).Inc()
}

func (h *Hooks) SelfHeal(_, reason string) {
	h.selfHeals.WithLabelValues(reason).Inc()
}

func (h *Hooks) ProviderSetRejected(string) { h.setRejected.Inc() }
func (h *Hooks) PatchFailed(string, error)  { h.patchFailed.Inc() }

func (h *Hooks) IndexError(op string, _ error) {
	h.indexErrors.WithLabelValues(op).Inc()
}
