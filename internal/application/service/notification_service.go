package service

import (
	"context"
	"fmt"

	"github.com/finlife/loan-engine/internal/domain"
	"go.uber.org/zap"
)

// NotificationService handles side effects like SMS, emails, etc.
type NotificationService struct {
	currency string
	logger   *zap.Logger
}

func NewNotificationService(currency string, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		currency: currency,
		logger:   logger,
	}
}

// HandleEmiPaid sends a receipt for a paid installment
func (s *NotificationService) HandleEmiPaid(ctx context.Context, event domain.DomainEvent) error {
	paidEvent, ok := event.(*domain.EmiPaidEvent)
	if !ok {
		return fmt.Errorf("invalid event type")
	}

	payload := paidEvent.Payload

	s.logger.Info("payment receipt sent",
		zap.String("event_id", event.GetEventID()),
		zap.String("loan_id", payload.LoanID),
		zap.String("message", fmt.Sprintf("Installment %d of %s %s received. Principal outstanding: %s %s",
			payload.SequenceNumber, s.currency, payload.EmiAmount, s.currency, payload.RemainingPrincipal)),
	)

	return nil
}

// HandleLedgerEvent confirms a part-payment or foreclosure
func (s *NotificationService) HandleLedgerEvent(ctx context.Context, event domain.DomainEvent) error {
	ledgerEvent, ok := event.(*domain.LedgerEvent)
	if !ok {
		return fmt.Errorf("invalid event type")
	}

	payload := ledgerEvent.Payload

	var message string
	switch payload.EmiEventType {
	case domain.EmiEventForeclosure:
		message = fmt.Sprintf("Loan foreclosed with payoff of %s %s. Interest saved: %s %s",
			s.currency, payload.PayoffAmount, s.currency, payload.InterestSaved)
	default:
		message = fmt.Sprintf("Part-payment of %s %s applied. New EMI %s %s for %d months. Interest saved: %s %s",
			s.currency, payload.Amount, s.currency, payload.NewEmiAmount, payload.NewTenure, s.currency, payload.InterestSaved)
	}

	s.logger.Info("ledger notification sent",
		zap.String("event_id", event.GetEventID()),
		zap.String("loan_id", payload.LoanID),
		zap.String("message", message),
	)

	return nil
}

// HandleLoanCompleted sends the closure notice
func (s *NotificationService) HandleLoanCompleted(ctx context.Context, event domain.DomainEvent) error {
	completedEvent, ok := event.(*domain.LoanCompletedEvent)
	if !ok {
		return fmt.Errorf("invalid event type")
	}

	s.logger.Info("closure notice sent",
		zap.String("event_id", event.GetEventID()),
		zap.String("loan_id", completedEvent.Payload.LoanID),
		zap.String("message", "Congratulations! Your loan is fully repaid."),
	)

	return nil
}

// Handlers maps every event type to its handler.
func (s *NotificationService) Handlers() map[string]domain.EventHandler {
	return map[string]domain.EventHandler{
		domain.EventTypeEmiPaid:            s.HandleEmiPaid,
		domain.EventTypePartPaymentApplied: s.HandleLedgerEvent,
		domain.EventTypeLoanForeclosed:     s.HandleLedgerEvent,
		domain.EventTypeLoanCompleted:      s.HandleLoanCompleted,
	}
}
