package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxTenureMonths bounds every generated schedule.
const MaxTenureMonths = 1200

// ScheduleTerms are the inputs of a fresh amortization schedule.
type ScheduleTerms struct {
	Principal    Money
	AnnualRate   decimal.Decimal // percent, 9.5 means 9.5% p.a.
	TenureMonths int
	StartDate    time.Time
	EmiOverride  *Money
}

// Validate checks the terms for a schedule that can be generated.
func (t ScheduleTerms) Validate() error {
	if t.Principal <= 0 {
		return fmt.Errorf("%w: principal must be positive", ErrInvalidLoanTerms)
	}
	if t.AnnualRate.IsNegative() {
		return fmt.Errorf("%w: interest rate must not be negative", ErrInvalidLoanTerms)
	}
	if t.TenureMonths <= 0 || t.TenureMonths > MaxTenureMonths {
		return fmt.Errorf("%w: tenure must be between 1 and %d months", ErrInvalidLoanTerms, MaxTenureMonths)
	}
	if t.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidLoanTerms)
	}
	if t.EmiOverride != nil {
		if *t.EmiOverride <= 0 {
			return fmt.Errorf("%w: emi override must be positive", ErrInvalidLoanTerms)
		}
		r := MonthlyRate(t.AnnualRate)
		if t.TenureMonths > 1 && *t.EmiOverride <= interestOn(t.Principal, r) {
			return fmt.Errorf("%w: emi override %s does not cover first month interest", ErrInvalidLoanTerms, *t.EmiOverride)
		}
	}
	return nil
}

// Installment is one generated row, before it is bound to a loan.
type Installment struct {
	Period             int
	Date               time.Time
	EmiAmount          Money
	PrincipalComponent Money
	InterestComponent  Money
	RemainingPrincipal Money
}

// StandardEMI computes P*r*(1+r)^n / ((1+r)^n - 1), or P/n when r is zero,
// rounded half-up to the minor unit.
func StandardEMI(principal Money, monthlyRate decimal.Decimal, n int) Money {
	if n <= 0 {
		return 0
	}
	p := principal.Decimal()
	if monthlyRate.IsZero() {
		return MoneyFromMinorDecimal(p.DivRound(decimal.NewFromInt(int64(n)), ratePrecision))
	}
	f := compound(monthlyRate, n)
	emi := p.Mul(monthlyRate).Mul(f).DivRound(f.Sub(one), ratePrecision)
	return MoneyFromMinorDecimal(emi)
}

// GenerateSchedule builds the full amortization table for terms. No partial
// schedule is returned on error.
func GenerateSchedule(terms ScheduleTerms) ([]Installment, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	r := MonthlyRate(terms.AnnualRate)
	emi := StandardEMI(terms.Principal, r, terms.TenureMonths)
	if terms.EmiOverride != nil {
		emi = *terms.EmiOverride
	}
	return amortize(terms.Principal, r, emi, DateOnly(terms.StartDate), terms.TenureMonths), nil
}

// GenerateFixedEMISchedule keeps emi fixed and runs until the balance is
// repaid, truncating the final installment. The tail never runs past
// maxPeriods months; if emi has not repaid the balance by then, the last
// installment takes the remainder.
func GenerateFixedEMISchedule(principal Money, monthlyRate decimal.Decimal, emi Money, start time.Time, maxPeriods int) ([]Installment, error) {
	if principal < 0 || monthlyRate.IsNegative() {
		return nil, fmt.Errorf("%w: principal and rate must not be negative", ErrInvalidLoanTerms)
	}
	if principal == 0 {
		return nil, nil
	}
	if emi <= interestOn(principal, monthlyRate) {
		return nil, fmt.Errorf("%w: emi %s does not cover monthly interest", ErrInvalidLoanTerms, emi)
	}
	if maxPeriods <= 0 || maxPeriods > MaxTenureMonths {
		maxPeriods = MaxTenureMonths
	}
	return amortize(principal, monthlyRate, emi, DateOnly(start), maxPeriods), nil
}

// amortize runs the installment loop for at most periods months. The final
// installment takes whatever principal remains so the balance ends at zero.
func amortize(principal Money, monthlyRate decimal.Decimal, emi Money, start time.Time, periods int) []Installment {
	installments := make([]Installment, 0, periods)
	balance := principal

	for i := 1; i <= periods && balance > 0; i++ {
		interest := interestOn(balance, monthlyRate)
		principalPart := emi - interest
		if principalPart < 0 {
			principalPart = 0
		}
		if i == periods || principalPart >= balance {
			principalPart = balance
		}
		balance -= principalPart

		installments = append(installments, Installment{
			Period:             i,
			Date:               AddMonths(start, i),
			EmiAmount:          principalPart + interest,
			PrincipalComponent: principalPart,
			InterestComponent:  interest,
			RemainingPrincipal: balance,
		})
	}

	return installments
}

// TotalInterest sums the interest component of installments.
func TotalInterest(installments []Installment) Money {
	var total Money
	for _, in := range installments {
		total += in.InterestComponent
	}
	return total
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds calendar months, clamping the day to the end of the target
// month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}
