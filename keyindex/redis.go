package keyindex

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// addScript inserts a member scored by a monotonically increasing sequence,
// leaving existing members where they are.
var addScript = redis.NewScript(`
if redis.call('ZSCORE', KEYS[1], ARGV[1]) then
  return 0
end
local n = redis.call('INCR', KEYS[2])
redis.call('ZADD', KEYS[1], n, ARGV[1])
return 1
`)

// Redis shares the key index across processes and survives restarts.
// Keys live in one sorted set scored by insertion sequence.
type Redis struct {
	rdb         redis.UniversalClient
	set         string
	seq         string
	closeClient bool
}

var _ Index = (*Redis)(nil)

type RedisConfig struct {
	Client    redis.UniversalClient
	Namespace string // should match Options.Namespace
	// set true only if this index exclusively owns the client
	CloseClient bool
}

func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, errors.New("redis index: nil client")
	}
	// hash tag keeps set and counter in one cluster slot for the script
	base := "{idx:" + cfg.Namespace + "}"
	return &Redis{
		rdb:         cfg.Client,
		set:         base,
		seq:         base + ":seq",
		closeClient: cfg.CloseClient,
	}, nil
}

func (s *Redis) Add(ctx context.Context, key string) error {
	return addScript.Run(ctx, s.rdb, []string{s.set, s.seq}, key).Err()
}

func (s *Redis) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	members := make([]interface{}, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	return s.rdb.ZRem(ctx, s.set, members...).Err()
}

// Keys reads the whole set in score order and filters by prefix.
func (s *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	all, err := s.rdb.ZRange(ctx, s.set, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		return all, nil
	}
	out := all[:0]
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// Cleanup is not applicable for Redis; entries are dropped when sweeps find them missing.
func (s *Redis) Cleanup(time.Duration) {}

// Close releases the underlying redis client only when this index owns it.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			return err
		}
	}
	return nil
}
