package domain

import "context"

// LoanRepository is the Schedule Store and Event Ledger.
type LoanRepository interface {
	Create(ctx context.Context, loan *Loan, entries []*ScheduleEntry) error
	FindByID(ctx context.Context, loanID string) (*Loan, error)
	// FindSchedule returns the live entries, discarded rows excluded.
	FindSchedule(ctx context.Context, loanID string) (Schedule, error)
	// FindEntry also returns discarded entries, flagged Discarded.
	FindEntry(ctx context.Context, entryID string) (*ScheduleEntry, error)
	FindEvents(ctx context.Context, loanID string) ([]*EmiEvent, error)
	// Apply writes the change all-or-nothing. It fails with
	// ErrConcurrentModification when the loan version moved on.
	Apply(ctx context.Context, change *LoanChange) error
}

// LoanLocker serializes mutations of a single loan.
type LoanLocker interface {
	Lock(ctx context.Context, loanID string) (unlock func(), err error)
}
