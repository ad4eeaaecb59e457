package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finlife/loan-engine/internal/domain"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisEventPublisher appends loan events to per-type Redis streams.
type RedisEventPublisher struct {
	client *redis.Client
	maxLen int64
	logger *zap.Logger
}

func NewRedisEventPublisher(client *redis.Client, maxLen int64, logger *zap.Logger) *RedisEventPublisher {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &RedisEventPublisher{
		client: client,
		maxLen: maxLen,
		logger: logger,
	}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	streamKey := StreamKey(event.GetEventType())

	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: streamKey,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event_id":    event.GetEventID(),
			"event_type":  event.GetEventType(),
			"loan_id":     event.GetAggregateID(),
			"occurred_at": event.GetOccurredAt().Unix(),
			"data":        string(eventData),
		},
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		p.logger.Error("failed to publish loan event",
			zap.Error(err),
			zap.String("event_type", event.GetEventType()),
			zap.String("loan_id", event.GetAggregateID()),
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("loan event published",
		zap.String("event_type", event.GetEventType()),
		zap.String("event_id", event.GetEventID()),
		zap.String("loan_id", event.GetAggregateID()),
		zap.String("stream", streamKey),
	)

	return nil
}
