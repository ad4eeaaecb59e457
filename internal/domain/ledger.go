package domain

import (
	"time"

	"github.com/google/uuid"
)

type EmiEventType string

const (
	EmiEventPartPayment EmiEventType = "PartPayment"
	EmiEventForeclosure EmiEventType = "Foreclosure"
)

type ReductionPolicy string

const (
	ReduceTenure ReductionPolicy = "ReduceTenure"
	ReduceEmi    ReductionPolicy = "ReduceEmi"
)

func (p ReductionPolicy) IsValid() bool {
	return p == ReduceTenure || p == ReduceEmi
}

// EmiEvent is an immutable ledger record of a part-payment or foreclosure.
// InterestSaved is fixed when the event is created and never recomputed.
type EmiEvent struct {
	ID              string          `json:"id"`
	LoanID          string          `json:"loan_id"`
	Sequence        int             `json:"sequence"` // position in the loan's ledger, assigned on append
	EventType       EmiEventType    `json:"event_type"`
	Amount          Money           `json:"amount"`
	EventDate       time.Time       `json:"event_date"`
	PaymentMethod   string          `json:"payment_method"`
	ReductionPolicy ReductionPolicy `json:"reduction_policy,omitempty"`
	InterestSaved   Money           `json:"interest_saved"`
	PayoffAmount    Money           `json:"payoff_amount,omitempty"`
	NewEmiAmount    Money           `json:"new_emi_amount,omitempty"`
	NewTenure       int             `json:"new_tenure"`
	CreatedAt       time.Time       `json:"created_at"`
}

func newEmiEvent(loanID string, eventType EmiEventType, amount Money, eventDate time.Time, method string, now time.Time) *EmiEvent {
	return &EmiEvent{
		ID:            uuid.New().String(),
		LoanID:        loanID,
		EventType:     eventType,
		Amount:        amount,
		EventDate:     DateOnly(eventDate),
		PaymentMethod: method,
		CreatedAt:     now,
	}
}
