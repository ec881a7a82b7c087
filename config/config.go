// Package config loads the fetchcache YAML configuration and builds the
// provider, index and codec it names.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

const (
	fileName = "fetchcache.yaml"

	EnvConfig    = "FETCHCACHE_CONFIG"
	EnvBaseURL   = "FETCHCACHE_BASE_URL"
	EnvLog       = "FETCHCACHE_LOG"
	EnvProvider  = "FETCHCACHE_PROVIDER"
	EnvCodec     = "FETCHCACHE_CODEC"
	EnvRedisAddr = "FETCHCACHE_REDIS_ADDR"
	EnvTTL       = "FETCHCACHE_TTL"
	EnvIndex     = "FETCHCACHE_INDEX"
)

type Config struct {
	Namespace        string        `yaml:"namespace"`
	BaseURL          string        `yaml:"base_url"`
	Provider         string        `yaml:"provider"` // memory|ristretto|bigcache|freecache|redis|memcache|none
	Codec            string        `yaml:"codec"`    // json|msgpack|cbor|cbor-deterministic|protobuf
	Index            string        `yaml:"index"`    // local|redis; redis providers always use redis
	TTL              time.Duration `yaml:"ttl"`
	CoalesceInflight bool          `yaml:"coalesce_inflight"`
	MaxDecodeBytes   int           `yaml:"max_decode_bytes"`
	LogLevel         string        `yaml:"log_level"`

	Redis     Redis     `yaml:"redis"`
	Memcache  Memcache  `yaml:"memcache"`
	Ristretto Ristretto `yaml:"ristretto"`
	BigCache  BigCache  `yaml:"bigcache"`
	FreeCache FreeCache `yaml:"freecache"`

	// Source is the file the config was read from; "" for defaults.
	Source string `yaml:"-"`
}

type Redis struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	PingTimeout time.Duration `yaml:"ping_timeout"`
}

type Memcache struct {
	Servers []string      `yaml:"servers"`
	Timeout time.Duration `yaml:"timeout"`
}

type Ristretto struct {
	NumCounters int64 `yaml:"num_counters"`
	MaxCost     int64 `yaml:"max_cost"`
	BufferItems int64 `yaml:"buffer_items"`
}

type BigCache struct {
	LifeWindow         time.Duration `yaml:"life_window"`
	HardMaxCacheSizeMB int           `yaml:"hard_max_cache_size_mb"`
}

type FreeCache struct {
	SizeBytes int `yaml:"size_bytes"`
}

func Default() Config {
	return Config{
		Namespace: "fetchcache",
		BaseURL:   "http://localhost:8080",
		Provider:  "memory",
		Codec:     "json",
		Index:     "local",
		LogLevel:  "error",
		Redis:     Redis{Addr: "localhost:6379", PingTimeout: 2 * time.Second},
		Memcache:  Memcache{Servers: []string{"localhost:11211"}},
		Ristretto: Ristretto{NumCounters: 1e5, MaxCost: 1 << 26, BufferItems: 64},
	}
}

// Load reads the config file at path. With an empty path it tries
// FETCHCACHE_CONFIG and then fetchcache.yaml under XDG_CONFIG_HOME, APPDATA
// and HOME. A missing file in a standard location is not an error; a missing
// explicit path is. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p := os.Getenv(EnvConfig); p != "" {
			path, explicit = p, true
		} else {
			path = findConfig()
		}
	}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
			cfg.Source = path
			log.Debugf("using config file: %s", path)
		case explicit || !errors.Is(err, fs.ErrNotExist):
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func findConfig() string {
	candidates := []string{
		os.Getenv("XDG_CONFIG_HOME"),
		os.Getenv("APPDATA"),
		os.Getenv("HOME"),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		file := filepath.Join(c, fileName)
		if fi, err := os.Stat(file); err == nil && !fi.IsDir() {
			return file
		}
	}
	return ""
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvLog); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvProvider); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvCodec); v != "" {
		c.Codec = v
	}
	if v := os.Getenv(EnvIndex); v != "" {
		c.Index = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(EnvTTL); v != "" {
		d, err := parseTTL(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTTL, err)
		}
		c.TTL = d
	}
	return nil
}

// parseTTL accepts a Go duration or a plain number of seconds.
func parseTTL(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

var providers = map[string]bool{
	"memory": true, "ristretto": true, "bigcache": true, "freecache": true,
	"redis": true, "memcache": true, "none": true,
}

// ErrLocalIndex is returned for a provider that outlives the process paired
// with the in-process index: a later run could not clear or patch its keys.
var ErrLocalIndex = errors.New("config: memcache provider needs index: redis")

func (c Config) Validate() error {
	p := strings.ToLower(c.Provider)
	if !providers[p] {
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.TTL < 0 {
		return fmt.Errorf("config: negative ttl %s", c.TTL)
	}
	idx := c.indexKind()
	if idx != "local" && idx != "redis" {
		return fmt.Errorf("config: unknown index %q", c.Index)
	}
	if p == "memcache" && idx != "redis" {
		return ErrLocalIndex
	}
	if (p == "redis" || idx == "redis") && c.Redis.Addr == "" {
		return errors.New("config: redis provider and index need redis.addr")
	}
	if p == "memcache" && len(c.Memcache.Servers) == 0 {
		return errors.New("config: memcache provider needs memcache.servers")
	}
	return nil
}

// indexKind resolves the index for the configured provider; "" means local
// and a redis provider always keeps its index next to the entries.
func (c Config) indexKind() string {
	if strings.EqualFold(c.Provider, "redis") {
		return "redis"
	}
	if c.Index == "" {
		return "local"
	}
	return strings.ToLower(c.Index)
}
