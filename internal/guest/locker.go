package guest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker serializes financial mutations per guest across processes
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Unlocker, error)
}

// Unlocker releases a held lock
type Unlocker interface {
	Release(ctx context.Context) error
}

const (
	lockTTL        = 10 * time.Second
	lockRetryEvery = 100 * time.Millisecond
	lockRetryFor   = 3 * time.Second
)

// RedisLocker backs Locker with Redis, so two dashboard replicas contend on
// the same lock
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker creates the lock client on an existing Redis connection
func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

// Obtain acquires the lock, retrying for a bounded window before giving up
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Unlocker, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(
			redislock.LinearBackoff(lockRetryEvery),
			int(lockRetryFor/lockRetryEvery),
		),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, fmt.Errorf("guest is locked by another operation: %w", err)
		}
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	return lock, nil
}

// lockGuest takes the guest's mutation lock. A nil locker means locking is
// disabled (single-process deployments, tests) and mutations run unguarded.
func (s *Service) lockGuest(ctx context.Context, guestID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	lock, err := s.locker.Obtain(ctx, "lock:guest:"+guestID, lockTTL)
	if err != nil {
		return nil, err
	}

	return func() {
		if err := lock.Release(context.Background()); err != nil {
			s.logger.Warn("failed to release guest lock", zap.String("guest_id", guestID), zap.Error(err))
		}
	}, nil
}
