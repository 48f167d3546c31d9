package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps the shared cache with the handful of atomic primitives the
// engine relies on. All correctness under concurrency comes from these
// single-key operations; application code never reads-then-writes.
type Store struct {
	rdb *redis.Client
}

func New(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Store{rdb: rdb}, nil
}

func NewFromClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) RawClient() *redis.Client {
	return s.rdb
}

// Incr bumps a durable counter. No expiry: counters only go away via
// explicit administrative repair.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	return s.rdb.Incr(ctx, key).Result()
}

// windowScript packs INCR and the first-request EXPIRE into one atomic
// script so a crash between the two cannot leave an immortal bucket.
var windowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// IncrWindow bumps a fixed-window counter, starting the window on the
// first hit. Returns the post-increment count.
func (s *Store) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	return windowScript.Run(ctx, s.rdb, []string{key}, window.Milliseconds()).Int64()
}

// SetNX claims a marker key. Returns true when this caller was first;
// concurrent claimants race inside Redis, at most one wins.
func (s *Store) SetNX(ctx context.Context, key, val string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, val, ttl).Result()
}

// GetInt reads an integer key; a never-written key is zero, not an error.
func (s *Store) GetInt(ctx context.Context, key string) (int64, error) {
	v, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// MGetInt reads a batch of integer keys, missing or non-numeric entries
// read as zero.
func (s *Store) MGetInt(ctx context.Context, keys ...string) ([]int64, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(keys))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if n, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			out[i] = n
		}
	}
	return out, nil
}

func (s *Store) AddMember(ctx context.Context, key, member string) error {
	return s.rdb.SAdd(ctx, key, member).Err()
}

func (s *Store) Members(ctx context.Context, key string) ([]string, error) {
	return s.rdb.SMembers(ctx, key).Result()
}

// GetRaw returns the stored string and whether the key exists at all.
// An existing-but-empty value comes back as ("", true): corrupt entries
// must stay observable so the repair tool can find them.
func (s *Store) GetRaw(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) SetRaw(ctx context.Context, key, val string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, val, ttl).Err()
}

func (s *Store) SetExpire(ctx context.Context, key string, ttl time.Duration) error {
	return s.rdb.Expire(ctx, key, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// TTL reports remaining time on a key; zero when the key has no expiry
// or does not exist.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}
