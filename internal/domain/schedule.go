package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
)

// ScheduleEntry is one installment row of a loan's amortization table.
type ScheduleEntry struct {
	ID                 string        `json:"id"`
	LoanID             string        `json:"loan_id"`
	SequenceNumber     int           `json:"sequence_number"`
	EmiDate            time.Time     `json:"emi_date"`
	EmiAmount          Money         `json:"emi_amount"`
	PrincipalComponent Money         `json:"principal_component"`
	InterestComponent  Money         `json:"interest_component"`
	RemainingPrincipal Money         `json:"remaining_principal"`
	PaymentStatus      PaymentStatus `json:"payment_status"`
	PaidDate           *time.Time    `json:"paid_date,omitempty"`
	PaymentMethod      string        `json:"payment_method,omitempty"`
	// Discarded marks a pending row replaced by a part-payment or dropped by
	// a foreclosure. Discarded rows are kept for audit only.
	Discarded bool `json:"-"`
}

// IsPaid checks if the installment has been paid
func (e *ScheduleEntry) IsPaid() bool {
	return e.PaymentStatus == PaymentStatusPaid
}

// OpeningPrincipal is the balance before this installment was applied.
func (e *ScheduleEntry) OpeningPrincipal() Money {
	return e.RemainingPrincipal + e.PrincipalComponent
}

// newEntries binds generated installments to a loan, numbering them from firstSeq.
func newEntries(loanID string, firstSeq int, installments []Installment) []*ScheduleEntry {
	entries := make([]*ScheduleEntry, len(installments))
	for i, in := range installments {
		entries[i] = &ScheduleEntry{
			ID:                 uuid.New().String(),
			LoanID:             loanID,
			SequenceNumber:     firstSeq + i,
			EmiDate:            in.Date,
			EmiAmount:          in.EmiAmount,
			PrincipalComponent: in.PrincipalComponent,
			InterestComponent:  in.InterestComponent,
			RemainingPrincipal: in.RemainingPrincipal,
			PaymentStatus:      PaymentStatusPending,
		}
	}
	return entries
}

// Schedule is a loan's live (non-discarded) entries ordered by sequence number.
type Schedule []*ScheduleEntry

// NewSchedule copies entries into sequence order.
func NewSchedule(entries []*ScheduleEntry) Schedule {
	s := make(Schedule, len(entries))
	copy(s, entries)
	sort.SliceStable(s, func(i, j int) bool { return s[i].SequenceNumber < s[j].SequenceNumber })
	return s
}

func (s Schedule) Pending() Schedule {
	var out Schedule
	for _, e := range s {
		if !e.IsPaid() {
			out = append(out, e)
		}
	}
	return out
}

func (s Schedule) Paid() Schedule {
	var out Schedule
	for _, e := range s {
		if e.IsPaid() {
			out = append(out, e)
		}
	}
	return out
}

func (s Schedule) Find(entryID string) *ScheduleEntry {
	for _, e := range s {
		if e.ID == entryID {
			return e
		}
	}
	return nil
}

// LastPaid returns the paid entry with the highest sequence number, or nil.
func (s Schedule) LastPaid() *ScheduleEntry {
	var last *ScheduleEntry
	for _, e := range s {
		if e.IsPaid() && (last == nil || e.SequenceNumber > last.SequenceNumber) {
			last = e
		}
	}
	return last
}

// NextPending returns the earliest unpaid entry, or nil.
func (s Schedule) NextPending() *ScheduleEntry {
	for _, e := range s {
		if !e.IsPaid() {
			return e
		}
	}
	return nil
}

// OutstandingPrincipal is the principal still owed: the opening balance of
// the first pending entry. It equals the last paid entry's remaining balance
// until a part-payment regenerates the tail from a reduced balance.
func (s Schedule) OutstandingPrincipal() Money {
	if next := s.NextPending(); next != nil {
		return next.OpeningPrincipal()
	}
	return 0
}

// NextSequence is the sequence number a regenerated tail starts from.
func (s Schedule) NextSequence() int {
	if last := s.LastPaid(); last != nil {
		return last.SequenceNumber + 1
	}
	return 1
}

func (s Schedule) TotalInterest() Money {
	var total Money
	for _, e := range s {
		total += e.InterestComponent
	}
	return total
}

func (s Schedule) TotalPrincipal() Money {
	var total Money
	for _, e := range s {
		total += e.PrincipalComponent
	}
	return total
}
