package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.November, 20, 10, 0, 0, 0, time.UTC)

func newTestLoan(t *testing.T, paid int) (*Loan, Schedule) {
	t.Helper()
	loan, schedule, err := NewLoan("LOAN00001", standardTerms(), testNow)
	require.NoError(t, err)
	for _, e := range schedule[:paid] {
		paidOn := e.EmiDate
		e.PaymentStatus = PaymentStatusPaid
		e.PaidDate = &paidOn
		e.PaymentMethod = "NACH"
	}
	return loan, schedule
}

// apply folds a change into schedule the way the repository does.
func apply(schedule Schedule, change *LoanChange) Schedule {
	discarded := make(map[string]bool)
	for _, e := range change.Discarded {
		discarded[e.ID] = true
	}
	var out Schedule
	for _, e := range schedule {
		if discarded[e.ID] {
			continue
		}
		if change.Paid != nil && change.Paid.ID == e.ID {
			out = append(out, change.Paid)
			continue
		}
		out = append(out, e)
	}
	return NewSchedule(append(out, change.Added...))
}

func TestNewLoan(t *testing.T) {
	loan, schedule, err := NewLoan("LOAN00001", standardTerms(), testNow)

	require.NoError(t, err)
	assert.Equal(t, LoanStatusActive, loan.Status)
	assert.Equal(t, int64(1), loan.Version)
	assert.Equal(t, Money(5509739), loan.EmiAmount)
	assert.Equal(t, date(2024, time.January, 15), loan.StartDate)
	require.Len(t, schedule, 24)

	ids := make(map[string]bool)
	for i, e := range schedule {
		assert.Equal(t, i+1, e.SequenceNumber)
		assert.Equal(t, "LOAN00001", e.LoanID)
		assert.Equal(t, PaymentStatusPending, e.PaymentStatus)
		assert.False(t, ids[e.ID], "duplicate entry id")
		ids[e.ID] = true
	}
	assert.Equal(t, loan.PrincipalAmount, schedule.OutstandingPrincipal())
	assert.Equal(t, loan.PrincipalAmount, schedule.TotalPrincipal())
}

func TestNewLoan_WithOverrideKeepsOverrideAsEmi(t *testing.T) {
	terms := standardTerms()
	override := Money(6000000)
	terms.EmiOverride = &override

	loan, schedule, err := NewLoan("LOAN00002", terms, testNow)

	require.NoError(t, err)
	assert.Equal(t, override, loan.EmiAmount)
	assert.Equal(t, override, schedule[0].EmiAmount)
	assert.Equal(t, Money(0), schedule[len(schedule)-1].RemainingPrincipal)
}

func TestNewLoan_RequiresID(t *testing.T) {
	_, _, err := NewLoan("", standardTerms(), testNow)
	assert.ErrorIs(t, err, ErrInvalidLoanTerms)
}

func TestPlanMarkPaid(t *testing.T) {
	// Arrange
	loan, schedule := newTestLoan(t, 0)
	target := schedule[0]
	paidDate := time.Date(2024, time.February, 14, 18, 30, 0, 0, time.UTC)

	// Act
	change, err := loan.PlanMarkPaid(schedule, target.ID, paidDate, "UPI", testNow)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), change.ExpectedVersion)
	assert.Equal(t, LoanStatusActive, change.Loan.Status)
	assert.False(t, change.Completed())
	require.NotNil(t, change.Paid)
	assert.Equal(t, PaymentStatusPaid, change.Paid.PaymentStatus)
	assert.Equal(t, date(2024, time.February, 14), *change.Paid.PaidDate)
	assert.Equal(t, "UPI", change.Paid.PaymentMethod)
	assert.Equal(t, target.EmiAmount, change.Paid.EmiAmount)
	assert.Nil(t, change.Event)

	// The planned change does not touch the input schedule
	assert.Equal(t, PaymentStatusPending, target.PaymentStatus)
}

func TestPlanMarkPaid_LastPendingCompletesLoan(t *testing.T) {
	loan, schedule := newTestLoan(t, 23)

	change, err := loan.PlanMarkPaid(schedule, schedule[23].ID, testNow, "NACH", testNow)

	require.NoError(t, err)
	assert.Equal(t, LoanStatusCompleted, change.Loan.Status)
	assert.True(t, change.Completed())
}

func TestPlanMarkPaid_Errors(t *testing.T) {
	loan, schedule := newTestLoan(t, 0)

	_, err := loan.PlanMarkPaid(schedule, "missing", testNow, "NACH", testNow)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	loan.Status = LoanStatusForeclosed
	_, err = loan.PlanMarkPaid(schedule, schedule[0].ID, testNow, "NACH", testNow)
	assert.ErrorIs(t, err, ErrLoanClosed)
}

func TestPlanMarkPaid_RejectsOutOfOrder(t *testing.T) {
	// Arrange
	loan, schedule := newTestLoan(t, 2)

	// Act
	_, err := loan.PlanMarkPaid(schedule, schedule[4].ID, testNow, "UPI", testNow)

	// Assert
	assert.ErrorIs(t, err, ErrOutOfOrderPayment)
	assert.Equal(t, PaymentStatusPending, schedule[4].PaymentStatus)

	change, err := loan.PlanMarkPaid(schedule, schedule[2].ID, testNow, "UPI", testNow)
	require.NoError(t, err)
	next := apply(schedule, change)
	assert.Equal(t, schedule[2].RemainingPrincipal, next.OutstandingPrincipal())
	assert.Equal(t, 4, next.NextSequence())
}

func TestPlanMarkPaid_PaidPrefixKeepsLaterOperationsConsistent(t *testing.T) {
	loan, schedule := newTestLoan(t, 5)
	lastPaid := schedule[4]

	partPayment, err := loan.PlanPartPayment(schedule, PartPayment{
		Amount: 1000000, EventDate: testNow, Policy: ReduceEmi,
	}, testNow)
	require.NoError(t, err)
	assert.Len(t, partPayment.Discarded, 19)
	require.Len(t, partPayment.Added, 19)
	assert.Equal(t, 6, partPayment.Added[0].SequenceNumber)
	assert.Equal(t, lastPaid.RemainingPrincipal-1000000, Schedule(partPayment.Added).TotalPrincipal())

	next := apply(schedule, partPayment)
	assert.Equal(t, loan.PrincipalAmount-1000000, next.TotalPrincipal())
	previous := loan.PrincipalAmount
	for _, e := range next {
		assert.LessOrEqual(t, e.RemainingPrincipal, previous, "sequence %d", e.SequenceNumber)
		previous = e.RemainingPrincipal
	}

	foreclosure, err := loan.PlanForeclosure(schedule, testNow, "NEFT", testNow)
	require.NoError(t, err)
	assert.Equal(t, lastPaid.RemainingPrincipal, foreclosure.Event.PayoffAmount)
}

func TestPlanPartPayment_ReduceTenureWithEmiOverride(t *testing.T) {
	// Arrange
	terms := standardTerms()
	override := Money(4000000)
	terms.EmiOverride = &override
	loan, schedule, err := NewLoan("LOAN00002", terms, testNow)
	require.NoError(t, err)
	require.Len(t, schedule, 24)
	require.Equal(t, Money(43732251), schedule[23].EmiAmount)
	for _, e := range schedule[:10] {
		e.PaymentStatus = PaymentStatusPaid
	}

	// Act
	change, err := loan.PlanPartPayment(schedule, PartPayment{
		Amount: 100000, EventDate: date(2024, time.November, 20), Policy: ReduceTenure,
	}, testNow)

	// Assert
	require.NoError(t, err)
	require.Len(t, change.Added, 14)
	assert.Equal(t, 14, change.Event.NewTenure)
	assert.Equal(t, Money(11672), change.Event.InterestSaved)
	assert.Positive(t, change.Event.InterestSaved)
	assert.Equal(t, Money(0), change.Added[13].RemainingPrincipal)
	assert.Equal(t, Money(43620579), change.Added[13].EmiAmount)
	assert.Equal(t, 24, change.Added[13].SequenceNumber)
}

func TestPlanPartPayment_ReduceTenure(t *testing.T) {
	// Arrange
	loan, schedule := newTestLoan(t, 10)
	eventDate := date(2024, time.November, 20)
	outstanding := schedule.OutstandingPrincipal()
	require.Equal(t, Money(72743430), outstanding)

	// Act
	change, err := loan.PlanPartPayment(schedule, PartPayment{
		Amount:        30000000,
		EventDate:     eventDate,
		Policy:        ReduceTenure,
		PaymentMethod: "NEFT",
	}, testNow)

	// Assert
	require.NoError(t, err)
	assert.Len(t, change.Discarded, 14)
	require.Len(t, change.Added, 9)
	assert.Less(t, len(change.Added), 14)
	assert.Equal(t, Money(5509739), change.Loan.EmiAmount)
	assert.Equal(t, LoanStatusActive, change.Loan.Status)

	assert.Equal(t, 11, change.Added[0].SequenceNumber)
	assert.Equal(t, 19, change.Added[8].SequenceNumber)
	assert.Equal(t, date(2024, time.December, 20), change.Added[0].EmiDate)
	assert.Equal(t, Money(0), change.Added[8].RemainingPrincipal)
	assert.Equal(t, Money(42743430), Schedule(change.Added).TotalPrincipal())

	event := change.Event
	require.NotNil(t, event)
	assert.Equal(t, EmiEventPartPayment, event.EventType)
	assert.Equal(t, Money(30000000), event.Amount)
	assert.Equal(t, ReduceTenure, event.ReductionPolicy)
	assert.Equal(t, Money(2848835), event.InterestSaved)
	assert.Equal(t, schedule.Pending().TotalInterest()-Schedule(change.Added).TotalInterest(), event.InterestSaved)
	assert.Equal(t, 9, event.NewTenure)

	// Paid history is untouched and the new outstanding reflects the payment
	next := apply(schedule, change)
	assert.Len(t, next.Paid(), 10)
	assert.Equal(t, Money(42743430), next.OutstandingPrincipal())
	assert.Equal(t, loan.PrincipalAmount-30000000, next.TotalPrincipal())
}

func TestPlanPartPayment_ReduceEmi(t *testing.T) {
	loan, schedule := newTestLoan(t, 10)

	change, err := loan.PlanPartPayment(schedule, PartPayment{
		Amount:    30000000,
		EventDate: date(2024, time.November, 20),
		Policy:    ReduceEmi,
	}, testNow)

	require.NoError(t, err)
	require.Len(t, change.Added, 14)
	assert.Equal(t, Money(3237477), change.Loan.EmiAmount)
	assert.Equal(t, Money(3237477), change.Event.NewEmiAmount)
	assert.Equal(t, Money(1811676), change.Event.InterestSaved)
	assert.Equal(t, Money(0), change.Added[13].RemainingPrincipal)
	assert.Equal(t, 24, change.Added[13].SequenceNumber)
}

func TestPlanPartPayment_SecondPaymentUsesReducedBalance(t *testing.T) {
	loan, schedule := newTestLoan(t, 10)
	first, err := loan.PlanPartPayment(schedule, PartPayment{
		Amount: 30000000, EventDate: date(2024, time.November, 20), Policy: ReduceTenure,
	}, testNow)
	require.NoError(t, err)

	next := apply(schedule, first)
	updated := first.Loan

	second, err := updated.PlanPartPayment(next, PartPayment{
		Amount: 10000000, EventDate: date(2024, time.November, 25), Policy: ReduceTenure,
	}, testNow)

	require.NoError(t, err)
	assert.Equal(t, Money(32743430), Schedule(second.Added).TotalPrincipal())
	assert.Equal(t, 11, second.Added[0].SequenceNumber)
	assert.Len(t, second.Discarded, 9)
}

func TestPlanPartPayment_FullOutstandingCompletesLoan(t *testing.T) {
	loan, schedule := newTestLoan(t, 10)

	change, err := loan.PlanPartPayment(schedule, PartPayment{
		Amount: 72743430, EventDate: testNow, Policy: ReduceEmi,
	}, testNow)

	require.NoError(t, err)
	assert.Empty(t, change.Added)
	assert.Equal(t, LoanStatusCompleted, change.Loan.Status)
	assert.Equal(t, schedule.Pending().TotalInterest(), change.Event.InterestSaved)
}

func TestPlanPartPayment_Errors(t *testing.T) {
	loan, schedule := newTestLoan(t, 10)

	tests := []struct {
		name    string
		pp      PartPayment
		wantErr error
	}{
		{"excess amount", PartPayment{Amount: 72743431, EventDate: testNow, Policy: ReduceTenure}, ErrExcessPartPayment},
		{"zero amount", PartPayment{Amount: 0, EventDate: testNow, Policy: ReduceTenure}, ErrInvalidAmount},
		{"negative amount", PartPayment{Amount: -1, EventDate: testNow, Policy: ReduceEmi}, ErrInvalidAmount},
		{"unknown policy", PartPayment{Amount: 100, EventDate: testNow, Policy: "ReduceBoth"}, ErrInvalidPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, err := loan.PlanPartPayment(schedule, tt.pp, testNow)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, change)
		})
	}

	loan.Status = LoanStatusCompleted
	_, err := loan.PlanPartPayment(schedule, PartPayment{Amount: 100, EventDate: testNow, Policy: ReduceEmi}, testNow)
	assert.ErrorIs(t, err, ErrLoanClosed)
}

func TestPlanForeclosure(t *testing.T) {
	// Arrange
	loan, schedule := newTestLoan(t, 10)

	// Act
	change, err := loan.PlanForeclosure(schedule, date(2024, time.November, 20), "NEFT", testNow)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, LoanStatusForeclosed, change.Loan.Status)
	assert.Len(t, change.Discarded, 14)
	assert.Empty(t, change.Added)
	assert.Equal(t, Money(72743430), change.Event.PayoffAmount)
	assert.Equal(t, Money(72743430), change.Event.Amount)
	assert.Equal(t, Money(4392918), change.Event.InterestSaved)
	assert.Equal(t, EmiEventForeclosure, change.Event.EventType)
	assert.False(t, change.Completed())

	next := apply(schedule, change)
	assert.Empty(t, next.Pending())
	assert.Len(t, next.Paid(), 10)
}

func TestPlanForeclosure_Errors(t *testing.T) {
	loan, schedule := newTestLoan(t, 24)
	loan.Status = LoanStatusCompleted

	_, err := loan.PlanForeclosure(schedule, testNow, "NEFT", testNow)
	assert.ErrorIs(t, err, ErrNothingToForeclose)

	loan, schedule = newTestLoan(t, 5)
	loan.Status = LoanStatusForeclosed
	_, err = loan.PlanForeclosure(schedule, testNow, "NEFT", testNow)
	assert.ErrorIs(t, err, ErrLoanClosed)
}
