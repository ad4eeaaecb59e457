package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusActive     LoanStatus = "active"
	LoanStatusForeclosed LoanStatus = "foreclosed"
	LoanStatusCompleted  LoanStatus = "completed"
)

// Loan is the aggregate root owning a schedule and an event ledger.
type Loan struct {
	ID                 string          `json:"id"`
	PrincipalAmount    Money           `json:"principal_amount"`
	AnnualInterestRate decimal.Decimal `json:"annual_interest_rate"`
	TenureMonths       int             `json:"tenure_months"`
	StartDate          time.Time       `json:"start_date"`
	EmiAmountOverride  *Money          `json:"emi_amount_override,omitempty"`
	EmiAmount          Money           `json:"emi_amount"` // current regular installment
	Status             LoanStatus      `json:"status"`
	Version            int64           `json:"version"` // for optimistic locking
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// LoanChange is the complete write set of one mutation. The repository
// applies it atomically, guarded by ExpectedVersion.
type LoanChange struct {
	Loan            *Loan
	ExpectedVersion int64
	Discarded       []*ScheduleEntry
	Added           []*ScheduleEntry
	Paid            *ScheduleEntry
	Event           *EmiEvent
}

// Completed reports whether the change moves the loan to completed.
func (c *LoanChange) Completed() bool {
	return c.Loan.Status == LoanStatusCompleted
}

// NewLoan creates an active loan and its initial schedule.
func NewLoan(id string, terms ScheduleTerms, now time.Time) (*Loan, Schedule, error) {
	if id == "" {
		return nil, nil, fmt.Errorf("%w: loan id is required", ErrInvalidLoanTerms)
	}
	installments, err := GenerateSchedule(terms)
	if err != nil {
		return nil, nil, err
	}

	loan := &Loan{
		ID:                 id,
		PrincipalAmount:    terms.Principal,
		AnnualInterestRate: terms.AnnualRate,
		TenureMonths:       terms.TenureMonths,
		StartDate:          DateOnly(terms.StartDate),
		EmiAmountOverride:  terms.EmiOverride,
		EmiAmount:          StandardEMI(terms.Principal, MonthlyRate(terms.AnnualRate), terms.TenureMonths),
		Status:             LoanStatusActive,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if terms.EmiOverride != nil {
		loan.EmiAmount = *terms.EmiOverride
	}

	return loan, newEntries(id, 1, installments), nil
}

func (l *Loan) MonthlyRate() decimal.Decimal {
	return MonthlyRate(l.AnnualInterestRate)
}

// IsClosed reports a terminal status.
func (l *Loan) IsClosed() bool {
	return l.Status == LoanStatusForeclosed || l.Status == LoanStatusCompleted
}

func (l *Loan) next(now time.Time) *Loan {
	updated := *l
	updated.UpdatedAt = now
	return &updated
}

// PartPayment is a lump-sum reduction of outstanding principal.
type PartPayment struct {
	Amount        Money
	EventDate     time.Time
	Policy        ReductionPolicy
	PaymentMethod string
}

// PlanPartPayment computes the write set for a part-payment: every pending
// entry is discarded and replaced by a tail regenerated from the reduced
// principal, numbered after the last paid entry.
func (l *Loan) PlanPartPayment(schedule Schedule, pp PartPayment, now time.Time) (*LoanChange, error) {
	if l.IsClosed() {
		return nil, fmt.Errorf("%w: loan %s is %s", ErrLoanClosed, l.ID, l.Status)
	}
	if !pp.Policy.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, pp.Policy)
	}
	if pp.Amount <= 0 {
		return nil, fmt.Errorf("%w: part-payment must be positive", ErrInvalidAmount)
	}
	outstanding := schedule.OutstandingPrincipal()
	if pp.Amount > outstanding {
		return nil, fmt.Errorf("%w: amount %s, outstanding %s", ErrExcessPartPayment, pp.Amount, outstanding)
	}

	pending := schedule.Pending()
	newPrincipal := outstanding - pp.Amount
	r := l.MonthlyRate()
	emi := l.EmiAmount

	var tail []Installment
	if newPrincipal > 0 {
		var err error
		switch pp.Policy {
		case ReduceTenure:
			tail, err = GenerateFixedEMISchedule(newPrincipal, r, emi, pp.EventDate, len(pending))
		case ReduceEmi:
			emi = StandardEMI(newPrincipal, r, len(pending))
			tail = amortize(newPrincipal, r, emi, DateOnly(pp.EventDate), len(pending))
		}
		if err != nil {
			return nil, err
		}
	}

	updated := l.next(now)
	updated.EmiAmount = emi
	if len(tail) == 0 {
		updated.Status = LoanStatusCompleted
	}

	event := newEmiEvent(l.ID, EmiEventPartPayment, pp.Amount, pp.EventDate, pp.PaymentMethod, now)
	event.ReductionPolicy = pp.Policy
	event.InterestSaved = pending.TotalInterest() - TotalInterest(tail)
	event.NewEmiAmount = emi
	event.NewTenure = len(tail)

	return &LoanChange{
		Loan:            updated,
		ExpectedVersion: l.Version,
		Discarded:       pending,
		Added:           newEntries(l.ID, schedule.NextSequence(), tail),
		Event:           event,
	}, nil
}

// PlanForeclosure computes the write set for a full early payoff. The payoff
// is the outstanding principal; no interest accrues beyond the schedule.
func (l *Loan) PlanForeclosure(schedule Schedule, foreclosureDate time.Time, method string, now time.Time) (*LoanChange, error) {
	if l.Status == LoanStatusForeclosed {
		return nil, fmt.Errorf("%w: loan %s is %s", ErrLoanClosed, l.ID, l.Status)
	}
	pending := schedule.Pending()
	if len(pending) == 0 {
		return nil, fmt.Errorf("%w: loan %s", ErrNothingToForeclose, l.ID)
	}
	if l.IsClosed() {
		return nil, fmt.Errorf("%w: loan %s is %s", ErrLoanClosed, l.ID, l.Status)
	}

	payoff := schedule.OutstandingPrincipal()
	updated := l.next(now)
	updated.Status = LoanStatusForeclosed

	event := newEmiEvent(l.ID, EmiEventForeclosure, payoff, foreclosureDate, method, now)
	event.InterestSaved = pending.TotalInterest()
	event.PayoffAmount = payoff

	return &LoanChange{
		Loan:            updated,
		ExpectedVersion: l.Version,
		Discarded:       pending,
		Event:           event,
	}, nil
}

// PlanMarkPaid computes the write set for paying the next pending
// installment. Paying the last pending installment completes the loan.
func (l *Loan) PlanMarkPaid(schedule Schedule, entryID string, paidDate time.Time, method string, now time.Time) (*LoanChange, error) {
	if l.IsClosed() {
		return nil, fmt.Errorf("%w: loan %s is %s", ErrLoanClosed, l.ID, l.Status)
	}
	entry := schedule.Find(entryID)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	// Outstanding principal and tail numbering both assume a paid prefix
	if next := schedule.NextPending(); next != nil && next.ID != entry.ID {
		return nil, fmt.Errorf("%w: installment %d is due before %d", ErrOutOfOrderPayment, next.SequenceNumber, entry.SequenceNumber)
	}

	paidOn := DateOnly(paidDate)
	paid := *entry
	paid.PaymentStatus = PaymentStatusPaid
	paid.PaidDate = &paidOn
	paid.PaymentMethod = method

	updated := l.next(now)
	if pending := schedule.Pending(); len(pending) == 1 && pending[0].ID == entryID {
		updated.Status = LoanStatusCompleted
	}

	return &LoanChange{
		Loan:            updated,
		ExpectedVersion: l.Version,
		Paid:            &paid,
	}, nil
}
