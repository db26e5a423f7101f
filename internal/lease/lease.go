// Package lease provides the cross-process mutual-exclusion primitive used
// by the task runner. A lease is a Redis key with a TTL; existence implies
// "in progress". Redis SET NX atomicity is the only coordination mechanism —
// there is deliberately no in-process fallback lock.
package lease

import (
	"context"
	"time"
)

// KeyPrefix namespaces all task lease keys.
const KeyPrefix = "task_lock:"

// Info describes one held lease, for read-only observers.
type Info struct {
	Key   string        `json:"key"`
	Value string        `json:"value"`
	TTL   time.Duration `json:"ttlMs"`
}

// Store is the lease capability. Acquire is atomic set-if-absent; Release
// only removes a lease this store instance acquired.
type Store interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (value string, held bool, err error)
	List(ctx context.Context, prefix string) ([]Info, error)
}
