package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/finlife/loan-engine/internal/domain"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDecodeEvent(t *testing.T) {
	loan := &domain.Loan{
		ID:                 "LOAN00001",
		PrincipalAmount:    120000000,
		AnnualInterestRate: decimal.RequireFromString("9.5"),
		Status:             domain.LoanStatusForeclosed,
	}
	ledger := &domain.EmiEvent{
		ID:           "event-1",
		LoanID:       loan.ID,
		EventType:    domain.EmiEventForeclosure,
		Amount:       42743430,
		PayoffAmount: 42743430,
	}

	tests := []struct {
		name      string
		event     domain.DomainEvent
		eventType string
	}{
		{"emi paid", domain.NewEmiPaidEvent(paidEntry()), domain.EventTypeEmiPaid},
		{"foreclosure", domain.NewLedgerEvent(loan, ledger), domain.EventTypeLoanForeclosed},
		{"completed", domain.NewLoanCompletedEvent(loan), domain.EventTypeLoanCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			require.NoError(t, err)

			decoded, err := decodeEvent(tt.eventType, string(data))

			require.NoError(t, err)
			assert.Equal(t, tt.event.GetEventID(), decoded.GetEventID())
			assert.Equal(t, tt.eventType, decoded.GetEventType())
			assert.Equal(t, "LOAN00001", decoded.GetAggregateID())
		})
	}
}

func TestDecodeEvent_UnknownType(t *testing.T) {
	_, err := decodeEvent("loan.unknown", "{}")

	assert.Error(t, err)
}

func TestHandleMessage(t *testing.T) {
	subscriber := NewRedisEventSubscriber(nil, zap.NewNop(), "worker-test")
	ctx := context.Background()

	t.Run("no handler", func(t *testing.T) {
		err := subscriber.handleMessage(ctx, domain.EventTypeLoanCompleted, redis.XMessage{})
		assert.Error(t, err)
	})

	t.Run("missing data", func(t *testing.T) {
		subscriber.handlers[domain.EventTypeEmiPaid] = func(ctx context.Context, event domain.DomainEvent) error {
			return nil
		}
		err := subscriber.handleMessage(ctx, domain.EventTypeEmiPaid, redis.XMessage{Values: map[string]interface{}{}})
		assert.Error(t, err)
	})

	t.Run("handler error is returned", func(t *testing.T) {
		handlerErr := errors.New("sms gateway down")
		subscriber.handlers[domain.EventTypeEmiPaid] = func(ctx context.Context, event domain.DomainEvent) error {
			return handlerErr
		}
		data, err := json.Marshal(domain.NewEmiPaidEvent(paidEntry()))
		require.NoError(t, err)

		err = subscriber.handleMessage(ctx, domain.EventTypeEmiPaid, redis.XMessage{
			Values: map[string]interface{}{"data": string(data)},
		})

		assert.ErrorIs(t, err, handlerErr)
	})
}

func TestProcessEvents_LogsOutcomePerLoan(t *testing.T) {
	// Arrange
	ctx := context.Background()
	client := setupRedis(t)
	core, logs := observer.New(zapcore.DebugLevel)
	publisher := NewRedisEventPublisher(client, 0, zap.NewNop())
	subscriber := NewRedisEventSubscriber(client, zap.New(core), "worker-test")

	require.NoError(t, subscriber.Subscribe(ctx, domain.EventTypeEmiPaid, func(ctx context.Context, event domain.DomainEvent) error {
		return nil
	}))
	require.NoError(t, subscriber.Subscribe(ctx, domain.EventTypeLoanCompleted, func(ctx context.Context, event domain.DomainEvent) error {
		return errors.New("sms gateway down")
	}))

	completed := domain.NewLoanCompletedEvent(&domain.Loan{ID: "LOAN00002", PrincipalAmount: 120000000})
	require.NoError(t, publisher.Publish(ctx, domain.NewEmiPaidEvent(paidEntry())))
	require.NoError(t, publisher.Publish(ctx, completed))

	// Act
	err := subscriber.processEvents(ctx)

	// Assert
	require.NoError(t, err)

	handled := logs.FilterMessage("loan event handled").All()
	require.Len(t, handled, 1)
	assert.Equal(t, "LOAN00001", handled[0].ContextMap()["loan_id"])
	assert.Equal(t, domain.EventTypeEmiPaid, handled[0].ContextMap()["event_type"])

	pending := logs.FilterMessage("loan event left pending").All()
	require.Len(t, pending, 1)
	assert.Equal(t, "LOAN00002", pending[0].ContextMap()["loan_id"])
	assert.Equal(t, "worker-test", pending[0].ContextMap()["consumer"])
}

func TestProcessEvents_NoSubscriptions(t *testing.T) {
	subscriber := NewRedisEventSubscriber(setupRedis(t), zap.NewNop(), "worker-test")

	err := subscriber.processEvents(context.Background())

	assert.Error(t, err)
}
