package domain

import "errors"

// Domain errors
var (
	ErrInvalidLoanTerms       = errors.New("invalid loan terms")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrExcessPartPayment      = errors.New("part-payment exceeds outstanding principal")
	ErrInvalidPolicy          = errors.New("invalid reduction policy")
	ErrNothingToForeclose     = errors.New("no pending installments to foreclose")
	ErrLoanClosed             = errors.New("loan is closed")
	ErrLoanNotFound           = errors.New("loan not found")
	ErrLoanExists             = errors.New("loan schedule already generated")
	ErrEntryNotFound          = errors.New("schedule entry not found")
	ErrOutOfOrderPayment      = errors.New("installment paid out of order")
	ErrConcurrentModification = errors.New("version mismatch - concurrent modification")
)

// IsRetryable reports whether the caller may re-read state and reapply the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
