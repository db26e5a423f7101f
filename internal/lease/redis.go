package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds our owner token, so
// a run that overstays its TTL cannot release a lease reacquired by another
// instance.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisStore implements Store on a shared Redis client. Each store instance
// carries a unique owner token used as the lease value.
type RedisStore struct {
	rdb   *redis.Client
	owner string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{
		rdb:   rdb,
		owner: uuid.NewString(),
	}
}

// Acquire attempts an atomic set-if-absent with the given TTL. Returns false
// when the lease is already held by anyone, including this instance.
func (s *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, s.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lease acquire %s: %w", key, err)
	}
	return ok, nil
}

// Release removes the lease if this instance still owns it. Releasing an
// expired or foreign lease is a no-op, not an error.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.rdb, []string{key}, s.owner).Err(); err != nil {
		return fmt.Errorf("lease release %s: %w", key, err)
	}
	return nil
}

// Get returns the current lease value, if held.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lease get %s: %w", key, err)
	}
	return val, true, nil
}

// List scans for held leases under the given prefix with their remaining TTL.
func (s *RedisStore) List(ctx context.Context, prefix string) ([]Info, error) {
	var infos []Info
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := s.rdb.Get(ctx, key).Result()
		if err == redis.Nil {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, fmt.Errorf("lease list: %w", err)
		}
		ttl, err := s.rdb.PTTL(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("lease list: %w", err)
		}
		infos = append(infos, Info{Key: key, Value: val, TTL: ttl})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("lease list scan: %w", err)
	}
	return infos, nil
}
