package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeEmiPaid            = "emi.paid"
	EventTypePartPaymentApplied = "loan.part_payment"
	EventTypeLoanForeclosed     = "loan.foreclosed"
	EventTypeLoanCompleted      = "loan.completed"
)

// DomainEvent represents a domain event
type DomainEvent interface {
	GetEventID() string
	GetEventType() string
	GetAggregateID() string
	GetOccurredAt() time.Time
	GetPayload() interface{}
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e BaseEvent) GetEventID() string       { return e.EventID }
func (e BaseEvent) GetEventType() string     { return e.EventType }
func (e BaseEvent) GetAggregateID() string   { return e.AggregateID }
func (e BaseEvent) GetOccurredAt() time.Time { return e.OccurredAt }

func newBaseEvent(eventType, loanID string) BaseEvent {
	return BaseEvent{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		AggregateID: loanID,
		OccurredAt:  time.Now(),
	}
}

// EmiPaidEvent - an installment was marked paid
type EmiPaidEvent struct {
	BaseEvent
	Payload EmiPaidPayload `json:"payload"`
}

func (e EmiPaidEvent) GetPayload() interface{} { return e.Payload }

type EmiPaidPayload struct {
	LoanID             string    `json:"loan_id"`
	EntryID            string    `json:"entry_id"`
	SequenceNumber     int       `json:"sequence_number"`
	EmiAmount          Money     `json:"emi_amount"`
	RemainingPrincipal Money     `json:"remaining_principal"`
	PaidDate           time.Time `json:"paid_date"`
	PaymentMethod      string    `json:"payment_method"`
}

func NewEmiPaidEvent(entry *ScheduleEntry) *EmiPaidEvent {
	payload := EmiPaidPayload{
		LoanID:             entry.LoanID,
		EntryID:            entry.ID,
		SequenceNumber:     entry.SequenceNumber,
		EmiAmount:          entry.EmiAmount,
		RemainingPrincipal: entry.RemainingPrincipal,
		PaymentMethod:      entry.PaymentMethod,
	}
	if entry.PaidDate != nil {
		payload.PaidDate = *entry.PaidDate
	}
	return &EmiPaidEvent{
		BaseEvent: newBaseEvent(EventTypeEmiPaid, entry.LoanID),
		Payload:   payload,
	}
}

// LedgerEvent - a part-payment or foreclosure was appended to the ledger
type LedgerEvent struct {
	BaseEvent
	Payload LedgerPayload `json:"payload"`
}

func (e LedgerEvent) GetPayload() interface{} { return e.Payload }

type LedgerPayload struct {
	LoanID          string          `json:"loan_id"`
	LedgerEventID   string          `json:"ledger_event_id"`
	EmiEventType    EmiEventType    `json:"emi_event_type"`
	Amount          Money           `json:"amount"`
	ReductionPolicy ReductionPolicy `json:"reduction_policy,omitempty"`
	InterestSaved   Money           `json:"interest_saved"`
	PayoffAmount    Money           `json:"payoff_amount,omitempty"`
	NewEmiAmount    Money           `json:"new_emi_amount,omitempty"`
	NewTenure       int             `json:"new_tenure"`
	LoanStatus      LoanStatus      `json:"loan_status"`
}

func NewLedgerEvent(loan *Loan, e *EmiEvent) *LedgerEvent {
	eventType := EventTypePartPaymentApplied
	if e.EventType == EmiEventForeclosure {
		eventType = EventTypeLoanForeclosed
	}
	return &LedgerEvent{
		BaseEvent: newBaseEvent(eventType, loan.ID),
		Payload: LedgerPayload{
			LoanID:          loan.ID,
			LedgerEventID:   e.ID,
			EmiEventType:    e.EventType,
			Amount:          e.Amount,
			ReductionPolicy: e.ReductionPolicy,
			InterestSaved:   e.InterestSaved,
			PayoffAmount:    e.PayoffAmount,
			NewEmiAmount:    e.NewEmiAmount,
			NewTenure:       e.NewTenure,
			LoanStatus:      loan.Status,
		},
	}
}

// LoanCompletedEvent - the last pending installment is settled
type LoanCompletedEvent struct {
	BaseEvent
	Payload LoanCompletedPayload `json:"payload"`
}

func (e LoanCompletedEvent) GetPayload() interface{} { return e.Payload }

type LoanCompletedPayload struct {
	LoanID          string    `json:"loan_id"`
	PrincipalAmount Money     `json:"principal_amount"`
	CompletedAt     time.Time `json:"completed_at"`
}

func NewLoanCompletedEvent(loan *Loan) *LoanCompletedEvent {
	return &LoanCompletedEvent{
		BaseEvent: newBaseEvent(EventTypeLoanCompleted, loan.ID),
		Payload: LoanCompletedPayload{
			LoanID:          loan.ID,
			PrincipalAmount: loan.PrincipalAmount,
			CompletedAt:     loan.UpdatedAt,
		},
	}
}

// EventsFor returns the notifications a committed change produces.
func EventsFor(change *LoanChange) []DomainEvent {
	var events []DomainEvent
	if change.Paid != nil {
		events = append(events, NewEmiPaidEvent(change.Paid))
	}
	if change.Event != nil {
		events = append(events, NewLedgerEvent(change.Loan, change.Event))
	}
	if change.Completed() {
		events = append(events, NewLoanCompletedEvent(change.Loan))
	}
	return events
}

// EventPublisher interface
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// EventSubscriber interface
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType string, handler EventHandler) error
}

// EventHandler processes events
type EventHandler func(ctx context.Context, event DomainEvent) error
