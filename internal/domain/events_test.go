package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsFor(t *testing.T) {
	loan, schedule := newTestLoan(t, 23)

	change, err := loan.PlanMarkPaid(schedule, schedule[23].ID, testNow, "NACH", testNow)
	require.NoError(t, err)

	events := EventsFor(change)

	require.Len(t, events, 2)
	assert.Equal(t, EventTypeEmiPaid, events[0].GetEventType())
	assert.Equal(t, EventTypeLoanCompleted, events[1].GetEventType())
	assert.Equal(t, loan.ID, events[0].GetAggregateID())

	paid := events[0].(*EmiPaidEvent)
	assert.Equal(t, 24, paid.Payload.SequenceNumber)
	assert.Equal(t, Money(0), paid.Payload.RemainingPrincipal)
}

func TestEventsFor_Foreclosure(t *testing.T) {
	loan, schedule := newTestLoan(t, 3)

	change, err := loan.PlanForeclosure(schedule, testNow, "NEFT", testNow)
	require.NoError(t, err)

	events := EventsFor(change)

	require.Len(t, events, 1)
	ledger := events[0].(*LedgerEvent)
	assert.Equal(t, EventTypeLoanForeclosed, ledger.GetEventType())
	assert.Equal(t, LoanStatusForeclosed, ledger.Payload.LoanStatus)
	assert.Equal(t, change.Event.PayoffAmount, ledger.Payload.PayoffAmount)
}
