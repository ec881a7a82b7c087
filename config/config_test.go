package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/fetchcache"
	"github.com/unkn0wn-root/fetchcache/codec"
	"github.com/unkn0wn-root/fetchcache/keyindex"
	"github.com/unkn0wn-root/fetchcache/provider/freecache"
	"github.com/unkn0wn-root/fetchcache/provider/memory"
	"github.com/unkn0wn-root/fetchcache/provider/ristretto"
)

// isolate clears every variable Load consults so the host environment
// cannot leak into a test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	for _, k := range []string{EnvConfig, EnvBaseURL, EnvLog, EnvProvider, EnvCodec, EnvRedisAddr, EnvTTL, EnvIndex, "APPDATA"} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
}

func testdata(t *testing.T, name string) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)
	return p
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		wantErr   bool
		checkFunc func(*testing.T, Config)
	}{
		{
			name: "full file",
			file: "full.yaml",
			checkFunc: func(t *testing.T, cfg Config) {
				assert.Equal(t, "app:prod", cfg.Namespace)
				assert.Equal(t, "https://api.example.com/v1", cfg.BaseURL)
				assert.Equal(t, "ristretto", cfg.Provider)
				assert.Equal(t, "msgpack", cfg.Codec)
				assert.Equal(t, 10*time.Minute, cfg.TTL)
				assert.True(t, cfg.CoalesceInflight)
				assert.Equal(t, 1<<20, cfg.MaxDecodeBytes)
				assert.Equal(t, int64(1000), cfg.Ristretto.NumCounters)
				assert.Equal(t, 2, cfg.Redis.DB)
				assert.Equal(t, []string{"mc1:11211", "mc2:11211"}, cfg.Memcache.Servers)
				assert.NotEmpty(t, cfg.Source)
			},
		},
		{
			name: "partial file keeps defaults",
			file: "partial.yaml",
			checkFunc: func(t *testing.T, cfg Config) {
				assert.Equal(t, "freecache", cfg.Provider)
				assert.Equal(t, 1<<20, cfg.FreeCache.SizeBytes)
				assert.Equal(t, "fetchcache", cfg.Namespace)
				assert.Equal(t, "json", cfg.Codec)
				assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
			},
		},
		{name: "unknown provider", file: "bad-provider.yaml", wantErr: true},
		{name: "invalid yaml", file: "invalid.yaml", wantErr: true},
		{name: "missing explicit file", file: "nope.yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			cfg, err := Load(testdata(t, tt.file))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.checkFunc(t, cfg)
		})
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFindsStandardLocation(t *testing.T) {
	isolate(t)
	home := os.Getenv("HOME")
	require.NoError(t, os.WriteFile(filepath.Join(home, fileName), []byte("provider: none\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Provider)
	assert.Equal(t, filepath.Join(home, fileName), cfg.Source)
}

func TestLoadFromEnvPath(t *testing.T) {
	isolate(t)
	t.Setenv(EnvConfig, testdata(t, "partial.yaml"))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "freecache", cfg.Provider)

	t.Setenv(EnvConfig, testdata(t, "nope.yaml"))
	_, err = Load("")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvProvider, "redis")
	t.Setenv(EnvRedisAddr, "cache:6380")
	t.Setenv(EnvCodec, "cbor")
	t.Setenv(EnvBaseURL, "http://api:9000")
	t.Setenv(EnvLog, "debug")
	t.Setenv(EnvTTL, "90")

	cfg, err := Load(testdata(t, "full.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Provider)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, "cbor", cfg.Codec)
	assert.Equal(t, "http://api:9000", cfg.BaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.TTL)

	t.Setenv(EnvTTL, "5m")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.TTL)

	t.Setenv(EnvTTL, "soon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	cfg.TTL = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Provider = "redis"
	cfg.Redis.Addr = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Provider = "memcache"
	cfg.Index = "redis"
	cfg.Memcache.Servers = nil
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Index = "etcd"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Index = "redis"
	cfg.Redis.Addr = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateMemcacheNeedsSharedIndex(t *testing.T) {
	cfg := Default()
	cfg.Provider = "memcache"
	assert.ErrorIs(t, cfg.Validate(), ErrLocalIndex)

	cfg.Index = ""
	assert.ErrorIs(t, cfg.Validate(), ErrLocalIndex)

	_, err := cfg.Build()
	assert.ErrorIs(t, err, ErrLocalIndex)

	cfg.Index = "redis"
	assert.NoError(t, cfg.Validate())
}

func TestLoadIndexFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvProvider, "memcache")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrLocalIndex)

	t.Setenv(EnvIndex, "redis")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Index)
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	cfg := Default()
	st, err := cfg.Build()
	require.NoError(t, err)
	assert.IsType(t, &memory.Memory{}, st.Provider)
	assert.Nil(t, st.Index, "index: local leaves the client its own index")
	assert.Equal(t, codec.IDJSON, st.Codec.ID())
	assert.NoError(t, st.Close(ctx))

	cfg.Provider = "ristretto"
	cfg.Codec = "protobuf"
	cfg.MaxDecodeBytes = 512
	st, err = cfg.Build()
	require.NoError(t, err)
	assert.IsType(t, &ristretto.Provider{}, st.Provider)
	assert.IsType(t, codec.Limit{}, st.Codec)
	assert.Equal(t, codec.IDProtobuf, st.Codec.ID())
	assert.NoError(t, st.Close(ctx))

	cfg = Default()
	cfg.Provider = "freecache"
	st, err = cfg.Build()
	require.NoError(t, err)
	assert.IsType(t, &freecache.Provider{}, st.Provider)
	assert.NoError(t, st.Close(ctx))

	cfg.Provider = "none"
	st, err = cfg.Build()
	require.NoError(t, err)
	assert.Nil(t, st.Provider)
	assert.NoError(t, st.Close(ctx))

	cfg.Codec = "xml"
	_, err = cfg.Build()
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.TTL = time.Minute
	cfg.CoalesceInflight = true
	st := Stack{Provider: memory.New(), Codec: codec.JSON{}}

	opts := cfg.Options(st, nil, nil)
	assert.Equal(t, "fetchcache", opts.Namespace)
	assert.Equal(t, time.Minute, opts.DefaultTTL)
	assert.True(t, opts.CoalesceInflight)
	assert.Same(t, st.Provider, opts.Provider)
}

func TestBuildRedisIndexForLocalProvider(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := Default()
	cfg.Index = "redis"
	cfg.Redis.Addr = mr.Addr()
	st, err := cfg.Build()
	require.NoError(t, err)
	assert.IsType(t, &memory.Memory{}, st.Provider)
	require.IsType(t, &keyindex.Redis{}, st.Index)

	require.NoError(t, st.Index.Add(ctx, "employees"))
	assert.True(t, mr.Exists("{idx:fetchcache}"))
	assert.NoError(t, st.Close(ctx))
}

// Each CLI run builds its own stack; a second run over the same redis must
// clear and patch what the first one cached.
func TestBuildRedisStackSharedAcrossRuns(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	var calls atomic.Int64
	tr := fetchcache.TransportFunc(func(context.Context, fetchcache.Endpoint, any) (json.RawMessage, error) {
		calls.Add(1)
		return json.RawMessage(`[{"id":"1","approved":false}]`), nil
	})

	cfg := Default()
	cfg.Provider = "redis"
	cfg.Redis.Addr = mr.Addr()

	run := func() fetchcache.Client {
		t.Helper()
		st, err := cfg.Build()
		require.NoError(t, err)
		c, err := fetchcache.New(cfg.Options(st, tr, nil))
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close(ctx) })
		return c
	}
	params := fetchcache.RequestByEmployeeParams{EmployeeID: "e1"}

	first := run()
	_, err := first.Fetch(ctx, fetchcache.EndpointTransactionsByEmployee, params)
	require.NoError(t, err)

	second := run()
	require.NoError(t, second.UpdateCacheOnTransactionApproval(ctx, "1", true))
	got, err := second.Fetch(ctx, fetchcache.EndpointTransactionsByEmployee, params)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","approved":true}]`, string(got))
	assert.Equal(t, int64(1), calls.Load())

	require.NoError(t, second.ClearCache(ctx))

	third := run()
	keys, err := third.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
	_, err = third.Fetch(ctx, fetchcache.EndpointTransactionsByEmployee, params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load(), "cleared entry must miss in a later run")
}
