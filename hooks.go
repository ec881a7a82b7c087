package fetchcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	Hit(endpoint Endpoint, key string)
	Miss(endpoint Endpoint, key string)

	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "codec_mismatch", "decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// A cached listing could not be patched on approval change.
	PatchFailed(key string, err error)

	// Index errors. op ∈ {"add", "remove", "keys"}
	IndexError(op string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Hit(Endpoint, string)       {}
func (NopHooks) Miss(Endpoint, string)      {}
func (NopHooks) SelfHeal(string, string)    {}
func (NopHooks) ProviderSetRejected(string) {}
func (NopHooks) PatchFailed(string, error)  {}
func (NopHooks) IndexError(string, error)   {}
