package redisrepository

import (
	"context"
	"fmt"
	"time"

	"github.com/finlife/loan-engine/internal/domain"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLoanLocker serializes mutations of a loan across API instances.
type RedisLoanLocker struct {
	client       *redis.Client
	ttl          time.Duration
	waitTimeout  time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
}

func NewRedisLoanLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLoanLocker {
	return &RedisLoanLocker{
		client:       client,
		ttl:          ttl,
		waitTimeout:  ttl,
		pollInterval: 25 * time.Millisecond,
		logger:       logger,
	}
}

// Lock blocks until the loan's lock is acquired. It gives up with
// ErrConcurrentModification once the wait exceeds the lock TTL.
func (l *RedisLoanLocker) Lock(ctx context.Context, loanID string) (func(), error) {
	key := l.lockKey(loanID)
	token := uuid.New().String()
	deadline := time.Now().Add(l.waitTimeout)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: loan %s is locked", domain.ErrConcurrentModification, loanID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}

	unlock := func() {
		// Use background context, the request context may be done
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release loan lock",
				zap.Error(err),
				zap.String("loan_id", loanID),
			)
		}
	}

	return unlock, nil
}

func (l *RedisLoanLocker) lockKey(loanID string) string {
	return fmt.Sprintf("lock:loan:%s", loanID)
}
