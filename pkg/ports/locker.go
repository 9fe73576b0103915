package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker provides cross-process concurrency control for
// conversations. In-process serialization is handled by the session
// manager; a locker extends it across replicas.
type DistributedLocker interface {
	// Lock acquires a lock for the key, blocking until acquired or ctx ends.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
