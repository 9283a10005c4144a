package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis lock defaults
const (
	DefaultTTL       = 10 * time.Second
	DefaultWait      = 5 * time.Second
	DefaultRetryStep = 25 * time.Millisecond
)

// releaseScript deletes the key only while it still carries our token, so an
// expired lock taken over by another holder is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every instance pointing at the same server.
type Redis struct {
	client    redis.UniversalClient
	prefix    string
	ttl       time.Duration
	wait      time.Duration
	retryStep time.Duration
}

// NewRedis creates a Redis locker. Keys are stored under prefix.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{
		client:    client,
		prefix:    prefix,
		ttl:       DefaultTTL,
		wait:      DefaultWait,
		retryStep: DefaultRetryStep,
	}
}

// Dial connects to addr and verifies the server answers PING.
func Dial(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Lock polls SET NX until the key is ours, ctx ends, or the wait budget runs out.
// POST: on success the key expires after the TTL even if unlock is never called
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := r.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	for {
		ok, err := r.client.SetNX(ctx, fullKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retryStep):
		}
	}

	return sync.OnceFunc(func() { r.release(key, fullKey, token) }), nil
}

// release deletes the key on a fresh context so a cancelled request still frees it.
func (r *Redis) release(key, fullKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, r.client, []string{fullKey}, token).Err(); err != nil {
		slog.Warn("lock_event", "event", "release_failed", "key", key, "error", err)
	}
}
