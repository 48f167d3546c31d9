package engagement

import (
	"context"
	"time"
)

type Clock interface{ Now() time.Time }

// Store is the slice of shared-cache primitives the gate and read paths
// use. Every method is a single atomic round-trip against the store.
type Store interface {
	Incr(ctx context.Context, key string) (int64, error)
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
	SetNX(ctx context.Context, key, val string, ttl time.Duration) (bool, error)
	GetInt(ctx context.Context, key string) (int64, error)
	MGetInt(ctx context.Context, keys ...string) ([]int64, error)
	AddMember(ctx context.Context, key, member string) error
	Members(ctx context.Context, key string) ([]string, error)
	SetRaw(ctx context.Context, key, val string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}
