package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/finlife/loan-engine/internal/domain"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	groupName  = "loan-notifiers"
	batchSize  = 10
	readBlock  = time.Second
	retryDelay = time.Second
)

// RedisEventSubscriber consumes loan event streams as a member of the
// notifier consumer group. Messages whose handler fails stay pending for the
// group and are not acknowledged.
type RedisEventSubscriber struct {
	client       *redis.Client
	logger       *zap.Logger
	handlers     map[string]domain.EventHandler
	streamTypes  map[string]string // stream key -> event type
	consumerName string
}

func NewRedisEventSubscriber(client *redis.Client, logger *zap.Logger, consumerName string) *RedisEventSubscriber {
	return &RedisEventSubscriber{
		client:       client,
		logger:       logger.With(zap.String("consumer", consumerName), zap.String("group", groupName)),
		handlers:     make(map[string]domain.EventHandler),
		streamTypes:  make(map[string]string),
		consumerName: consumerName,
	}
}

// Subscribe registers handler for eventType and makes sure the group exists
// on the event type's stream.
func (s *RedisEventSubscriber) Subscribe(ctx context.Context, eventType string, handler domain.EventHandler) error {
	streamKey := StreamKey(eventType)

	err := s.client.XGroupCreateMkStream(ctx, streamKey, groupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group on %s: %w", streamKey, err)
	}

	s.handlers[eventType] = handler
	s.streamTypes[streamKey] = eventType

	s.logger.Info("subscribed to loan events",
		zap.String("event_type", eventType),
		zap.String("stream", streamKey),
	)

	return nil
}

// Start consumes until ctx is cancelled.
func (s *RedisEventSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting loan event consumer", zap.Int("streams", len(s.streamTypes)))

	for {
		if err := s.processEvents(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			s.logger.Error("error reading loan events", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	s.logger.Info("stopping loan event consumer")
	return nil
}

// processEvents reads one batch across every subscribed stream.
func (s *RedisEventSubscriber) processEvents(ctx context.Context) error {
	if len(s.streamTypes) == 0 {
		return fmt.Errorf("no loan event streams subscribed")
	}

	keys := make([]string, 0, len(s.streamTypes))
	for key := range s.streamTypes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	args := append([]string(nil), keys...)
	for range keys {
		args = append(args, ">")
	}

	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    groupName,
		Consumer: s.consumerName,
		Streams:  args,
		Count:    batchSize,
		Block:    readBlock,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return fmt.Errorf("failed to read loan events: %w", err)
	}

	for _, stream := range streams {
		eventType := s.streamTypes[stream.Stream]
		for _, message := range stream.Messages {
			s.consume(ctx, stream.Stream, eventType, message)
		}
	}

	return nil
}

func (s *RedisEventSubscriber) consume(ctx context.Context, streamKey, eventType string, message redis.XMessage) {
	loanID, _ := message.Values["loan_id"].(string)
	fields := []zap.Field{
		zap.String("loan_id", loanID),
		zap.String("event_type", eventType),
		zap.String("message_id", message.ID),
	}

	if err := s.handleMessage(ctx, eventType, message); err != nil {
		s.logger.Error("loan event left pending", append(fields, zap.Error(err))...)
		return
	}

	if err := s.client.XAck(ctx, streamKey, groupName, message.ID).Err(); err != nil {
		s.logger.Warn("failed to acknowledge loan event", append(fields, zap.Error(err))...)
		return
	}

	s.logger.Debug("loan event handled", fields...)
}

func (s *RedisEventSubscriber) handleMessage(ctx context.Context, eventType string, message redis.XMessage) error {
	handler, exists := s.handlers[eventType]
	if !exists {
		return fmt.Errorf("no handler for event type: %s", eventType)
	}

	eventData, ok := message.Values["data"].(string)
	if !ok {
		return fmt.Errorf("message %s has no event data", message.ID)
	}

	event, err := decodeEvent(eventType, eventData)
	if err != nil {
		return err
	}

	return handler(ctx, event)
}

func decodeEvent(eventType, data string) (domain.DomainEvent, error) {
	var event domain.DomainEvent
	switch eventType {
	case domain.EventTypeEmiPaid:
		event = &domain.EmiPaidEvent{}
	case domain.EventTypePartPaymentApplied, domain.EventTypeLoanForeclosed:
		event = &domain.LedgerEvent{}
	case domain.EventTypeLoanCompleted:
		event = &domain.LoanCompletedEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	if err := json.Unmarshal([]byte(data), event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", eventType, err)
	}
	return event, nil
}
