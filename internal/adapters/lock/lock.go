// Package lock serializes work per key, used to keep a member's weekly
// free-hour count stable between reading it and committing a booking.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when a lock could not be acquired in time.
var ErrTimeout = errors.New("lock: timed out waiting for lock")

// Locker acquires exclusive per-key locks.
type Locker interface {
	// Lock blocks until key is held or ctx ends. The returned func releases
	// the lock and is safe to call more than once.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// QuotaKey names the lock guarding one member's free hours for the week
// starting at weekStart.
func QuotaKey(userID string, weekStart time.Time) string {
	return fmt.Sprintf("quota:%s:%s", userID, weekStart.UTC().Format("2006-01-02"))
}
