package redisrepository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finlife/loan-engine/internal/domain"
	"github.com/go-redis/redis/v8"
)

var ErrCacheMiss = errors.New("loan not cached")

// RedisLoanCache keeps loan snapshots for read-heavy lookups.
type RedisLoanCache struct {
	client   *redis.Client
	cacheTTL time.Duration
}

func NewRedisLoanCache(client *redis.Client, cacheTTL time.Duration) *RedisLoanCache {
	return &RedisLoanCache{
		client:   client,
		cacheTTL: cacheTTL,
	}
}

func (c *RedisLoanCache) Get(ctx context.Context, loanID string) (*domain.Loan, error) {
	data, err := c.client.Get(ctx, c.loanKey(loanID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}

	var loan domain.Loan
	if err := json.Unmarshal(data, &loan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal loan: %w", err)
	}

	return &loan, nil
}

func (c *RedisLoanCache) Set(ctx context.Context, loan *domain.Loan) error {
	data, err := json.Marshal(loan)
	if err != nil {
		return fmt.Errorf("failed to marshal loan: %w", err)
	}

	if err := c.client.Set(ctx, c.loanKey(loan.ID), data, c.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache loan: %w", err)
	}

	return nil
}

func (c *RedisLoanCache) Delete(ctx context.Context, loanID string) error {
	if err := c.client.Del(ctx, c.loanKey(loanID)).Err(); err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	return nil
}

func (c *RedisLoanCache) loanKey(loanID string) string {
	return fmt.Sprintf("loan:%s", loanID)
}
