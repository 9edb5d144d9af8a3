package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"minerwatch/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	pollerLockKey      = "poller-lock"
	lockTTL            = 30 * time.Second // Expiry if the holder dies
	lockAcquireTimeout = 5 * time.Second
	lockExtendInterval = 10 * time.Second
)

const unlockScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

const renewScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("expire", KEYS[1], ARGV[2])
	else
		return 0
	end
`

// PollerLock elects the single instance that polls workers when several
// instances share one Redis cache. The holder keeps the lock renewed until
// Unlock or until a renewal fails.
// A nil client runs in single-instance mode: TryLock always succeeds.
type PollerLock struct {
	client    *redis.Client
	lockKey   string
	lockValue string // Unique per instance, never release another instance's lock
	ttl       time.Duration

	mu        sync.Mutex
	isHeld    bool
	stopRenew chan struct{}
}

// NewPollerLock creates the poller lock under prefix
func NewPollerLock(client *redis.Client, prefix string) *PollerLock {
	return &PollerLock{
		client:    client,
		lockKey:   prefix + pollerLockKey,
		lockValue: uuid.New().String(),
		ttl:       lockTTL,
	}
}

// TryLock tries to acquire the lock without blocking
func (l *PollerLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.isHeld {
		return true, nil
	}
	if l.client == nil {
		l.isHeld = true
		return true, nil
	}

	acquireCtx, cancel := context.WithTimeout(ctx, lockAcquireTimeout)
	defer cancel()

	acquired, err := l.client.SetNX(acquireCtx, l.lockKey, l.lockValue, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		logger.DebugCtx(ctx, "poller lock %s held by another instance", l.lockKey)
		return false, nil
	}

	l.isHeld = true
	l.stopRenew = make(chan struct{})
	go l.renewLock(l.stopRenew)

	logger.InfoCtx(ctx, "poller lock %s acquired", l.lockKey)
	return true, nil
}

// Unlock releases the lock if this instance holds it
func (l *PollerLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	if !l.isHeld {
		l.mu.Unlock()
		return nil
	}
	l.isHeld = false
	if l.stopRenew != nil {
		close(l.stopRenew)
		l.stopRenew = nil
	}
	l.mu.Unlock()

	if l.client == nil {
		return nil
	}

	result, err := l.client.Eval(ctx, unlockScript, []string{l.lockKey}, l.lockValue).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if result == 0 {
		logger.WarnCtx(ctx, "poller lock %s was already released or taken over", l.lockKey)
	}
	return nil
}

// IsHeld reports whether this instance holds the lock
func (l *PollerLock) IsHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isHeld
}

// renewLock extends the lock TTL until stop is closed or renewal fails
func (l *PollerLock) renewLock(stop chan struct{}) {
	ticker := time.NewTicker(lockExtendInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), lockAcquireTimeout)
		result, err := l.client.Eval(ctx, renewScript, []string{l.lockKey}, l.lockValue, int(l.ttl.Seconds())).Int64()
		cancel()

		if err == nil && result == 1 {
			continue
		}
		if err != nil {
			logger.Warnf("failed to renew poller lock %s: %v", l.lockKey, err)
		} else {
			logger.Warnf("poller lock %s lost", l.lockKey)
		}
		l.release(stop)
		return
	}
}

// release marks the lock lost unless it was re-acquired meanwhile
func (l *PollerLock) release(stop chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopRenew == stop {
		l.isHeld = false
		l.stopRenew = nil
	}
}
