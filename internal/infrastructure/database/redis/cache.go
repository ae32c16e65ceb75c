package redis

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/pkg/errors"
)

const (
	DefaultKeyPrefix = "molx:"
	DefaultTTL       = 24 * time.Hour

	scanBatch = 100
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "cache serialization failed")
)

// Loader produces the value for a missing key.
type Loader func(ctx context.Context) (interface{}, error)

// Cache stores JSON documents under prefixed keys.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, load Loader) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Ping(ctx context.Context) error
}

// Recorder receives one observation per cache read or write, with result
// hit, miss, ok or error.
type Recorder interface {
	ObserveCache(op, result string)
}

type jsonCache struct {
	client *Client
	log    logging.Logger
	rec    Recorder
	prefix string
	ttl    time.Duration
	flight singleflight.Group
}

type CacheOption func(*jsonCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *jsonCache) { c.prefix = prefix }
}

// WithDefaultTTL applies to writes that pass no TTL. Non-positive values are
// ignored.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *jsonCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithRecorder(r Recorder) CacheOption {
	return func(c *jsonCache) { c.rec = r }
}

// NewRedisCache builds a Cache on client.
func NewRedisCache(client *Client, log logging.Logger, opts ...CacheOption) Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &jsonCache{client: client, log: log.Named("cache"), prefix: DefaultKeyPrefix, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *jsonCache) key(k string) string { return c.prefix + k }

func (c *jsonCache) keys(ks []string) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = c.key(k)
	}
	return out
}

func (c *jsonCache) observe(op, result string) {
	if c.rec != nil {
		c.rec.ObserveCache(op, result)
	}
}

// spread moves ttl by up to 10% either way so entries written together do
// not expire together.
func spread(ttl time.Duration) time.Duration {
	return ttl + time.Duration((rand.Float64()*0.2-0.1)*float64(ttl))
}

func decode(data []byte, dest interface{}) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, ErrSerializationFailed.Message)
	}
	return nil
}

func encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, ErrSerializationFailed.Message)
	}
	return data, nil
}

func (c *jsonCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.observe("get", "miss")
		return ErrCacheMiss
	case err != nil:
		c.observe("get", "error")
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache read failed")
	}
	if err := decode(data, dest); err != nil {
		c.observe("get", "error")
		return err
	}
	c.observe("get", "hit")
	return nil
}

func (c *jsonCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	data, err := encode(value)
	if err == nil {
		if err = c.client.Set(ctx, c.key(key), data, spread(ttl)).Err(); err != nil {
			err = errors.Wrap(err, errors.ErrCodeCacheError, "cache write failed")
		}
	}
	if err != nil {
		c.observe("set", "error")
		return err
	}
	c.observe("set", "ok")
	return nil
}

func (c *jsonCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, c.keys(keys)...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache delete failed")
	}
	return nil
}

// GetOrSet reads key into dest. On a miss, concurrent callers for the same key
// share one load call whose result is then written back. Failed loads are
// returned and never stored; an unreachable cache only costs the load.
func (c *jsonCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, load Loader) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if err != ErrCacheMiss {
		c.log.Warn("cache unavailable, loading from source", logging.String("key", key), logging.Err(err))
	}

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, v, ttl); err != nil {
			c.log.Warn("cache write-back failed", logging.String("key", key), logging.Err(err))
		}
		return v, nil
	})
	if err != nil {
		return err
	}
	// Round-trip through JSON so dest is filled the same way a hit fills it.
	data, err := encode(v)
	if err != nil {
		return err
	}
	return decode(data, dest)
}

// DeleteByPrefix removes every key under prefix and reports how many went.
func (c *jsonCache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var (
		total  int64
		cursor uint64
	)
	pattern := c.key(prefix) + "*"
	for {
		batch, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return total, errors.Wrap(err, errors.ErrCodeCacheError, "cache scan failed")
		}
		if len(batch) > 0 {
			n, err := c.client.Del(ctx, batch...).Result()
			if err != nil {
				return total, errors.Wrap(err, errors.ErrCodeCacheError, "cache delete failed")
			}
			total += n
		}
		if cursor = next; cursor == 0 {
			return total, nil
		}
	}
}

func (c *jsonCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.client.TTL(ctx, c.key(key)).Result()
}

func (c *jsonCache) Ping(ctx context.Context) error { return c.client.Ping(ctx) }
