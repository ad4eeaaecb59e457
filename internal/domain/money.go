package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitExponent is the number of decimal places between the major and
// minor currency unit (rupee/paise, dollar/cent).
const MinorUnitExponent = 2

// ratePrecision is the number of decimal places kept on intermediate rate
// arithmetic before a value is rounded to minor units.
const ratePrecision = 20

var (
	one     = decimal.NewFromInt(1)
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// Money is a currency amount in integer minor units.
type Money int64

// ParseMoney parses a decimal string in major units ("1250.50") into Money.
// More than two fractional digits are rejected rather than rounded.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	minor := d.Shift(MinorUnitExponent)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, s, MinorUnitExponent)
	}
	return Money(minor.IntPart()), nil
}

// MoneyFromMinorDecimal rounds a decimal amount expressed in minor units to
// the nearest minor unit, half away from zero.
func MoneyFromMinorDecimal(d decimal.Decimal) Money {
	return Money(d.Round(0).IntPart())
}

// Minor returns the amount in minor units.
func (m Money) Minor() int64 {
	return int64(m)
}

// Decimal returns the amount in minor units as a decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

// Major returns the amount in major units.
func (m Money) Major() decimal.Decimal {
	return decimal.New(int64(m), -MinorUnitExponent)
}

// String formats the amount in major units with two decimals, e.g. "1250.50".
func (m Money) String() string {
	return m.Major().StringFixed(MinorUnitExponent)
}

// IsPositive returns true if the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m > 0
}

// MonthlyRate converts an annual percentage rate (9.5 for 9.5%) into the
// monthly fractional rate annual/12/100.
func MonthlyRate(annualPercent decimal.Decimal) decimal.Decimal {
	return annualPercent.DivRound(twelve, ratePrecision).DivRound(hundred, ratePrecision)
}

// interestOn returns one month of interest on balance, rounded half-up to the
// minor unit.
func interestOn(balance Money, monthlyRate decimal.Decimal) Money {
	return MoneyFromMinorDecimal(balance.Decimal().Mul(monthlyRate))
}

// compound returns (1+r)^n.
func compound(monthlyRate decimal.Decimal, n int) decimal.Decimal {
	base := one.Add(monthlyRate)
	f := one
	for i := 0; i < n; i++ {
		f = f.Mul(base).Round(ratePrecision)
	}
	return f
}

