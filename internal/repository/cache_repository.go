package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/enrollments-service/pkg/errors"
)

// versionSuffix names the counter kept next to each versioned key.
const versionSuffix = ":version"

// setIfVersion writes KEYS[1] only while the counter at KEYS[2] still holds
// ARGV[1]. A missing counter reads as 0.
var setIfVersion = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[2]) or '0')
if current ~= tonumber(ARGV[1]) then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// CacheRepository stores JSON payloads in Redis.
type CacheRepository struct {
	client redis.Cmdable
}

// NewCacheRepository constructs a cache repository. A nil client turns every
// read into a miss and every write into a no-op.
func NewCacheRepository(client redis.Cmdable) *CacheRepository {
	return &CacheRepository{client: client}
}

// Get unmarshals the value at key into dest or returns ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Version returns the invalidation counter of key, 0 when it was never bumped.
func (r *CacheRepository) Version(ctx context.Context, key string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	v, err := r.client.Get(ctx, key+versionSuffix).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get %s%s: %w", key, versionSuffix, err)
	}
	return v, nil
}

// SetIfVersion stores value at key only if its counter still equals version.
// It reports whether the value was written.
func (r *CacheRepository) SetIfVersion(ctx context.Context, key string, version int64, value interface{}, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	written, err := setIfVersion.Run(ctx, r.client,
		[]string{key, key + versionSuffix},
		strconv.FormatInt(version, 10), payload, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis set %s at version %d: %w", key, version, err)
	}
	return written == 1, nil
}

// Bump advances the counter of key and deletes the value in one transaction,
// so fills that read the old counter are rejected. The counter expires after
// counterTTL, which must outlive any value written under it.
func (r *CacheRepository) Bump(ctx context.Context, key string, counterTTL time.Duration) error {
	if r.client == nil {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key+versionSuffix)
		pipe.PExpire(ctx, key+versionSuffix, counterTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis bump %s: %w", key, err)
	}
	return nil
}
