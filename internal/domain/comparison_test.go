package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareTerms_LowerRateSaves(t *testing.T) {
	// Arrange
	_, schedule := newTestLoan(t, 10)
	cost := Money(500000)

	// Act
	results, err := CompareTerms(schedule, []TermSet{
		{Label: "bank-b", AnnualRate: decimal.RequireFromString("8"), SwitchingCost: &cost},
		{Label: "same", AnnualRate: decimal.RequireFromString("9.5")},
	}, testNow)

	// Assert
	require.NoError(t, err)
	require.Len(t, results, 2)

	lower := results[0]
	assert.Equal(t, "bank-b", lower.Label)
	assert.Equal(t, Money(72743430), lower.OutstandingPrincipal)
	assert.Equal(t, Money(4392918), lower.CurrentTotalInterest)
	assert.Equal(t, 14, lower.CurrentTenure)
	assert.Equal(t, 14, lower.HypotheticalTenure)
	assert.Greater(t, lower.InterestSavings, Money(0))
	assert.Equal(t, lower.CurrentTotalInterest-lower.HypotheticalTotalInterest, lower.InterestSavings)
	assert.Equal(t, lower.InterestSavings-cost, lower.NetSavings)
	require.NotNil(t, lower.BreakEvenMonths)
	assert.GreaterOrEqual(t, *lower.BreakEvenMonths, 1)
	assert.LessOrEqual(t, *lower.BreakEvenMonths, 14)

	same := results[1]
	assert.Equal(t, Money(0), same.SwitchingCost)
	assert.Nil(t, same.BreakEvenMonths)
	assert.Equal(t, same.InterestSavings, same.NetSavings)
}

func TestCompareTerms_CostNeverRecovered(t *testing.T) {
	_, schedule := newTestLoan(t, 10)
	cost := Money(100000000)

	results, err := CompareTerms(schedule, []TermSet{
		{Label: "expensive", AnnualRate: decimal.RequireFromString("9"), SwitchingCost: &cost},
	}, testNow)

	require.NoError(t, err)
	assert.Nil(t, results[0].BreakEvenMonths)
	assert.Less(t, results[0].NetSavings, Money(0))
}

func TestCompareTerms_CustomTenure(t *testing.T) {
	_, schedule := newTestLoan(t, 10)

	results, err := CompareTerms(schedule, []TermSet{
		{Label: "longer", AnnualRate: decimal.RequireFromString("9.5"), TenureMonths: 36},
	}, testNow)

	require.NoError(t, err)
	assert.Equal(t, 36, results[0].HypotheticalTenure)
	assert.Less(t, results[0].HypotheticalEmi, results[0].CurrentEmi)
	assert.Less(t, results[0].InterestSavings, Money(0))
}

func TestCompareTerms_NothingPending(t *testing.T) {
	_, schedule := newTestLoan(t, 24)

	_, err := CompareTerms(schedule, []TermSet{{AnnualRate: decimal.NewFromInt(5)}}, testNow)

	assert.ErrorIs(t, err, ErrInvalidLoanTerms)
}

func TestCompareTerms_InvalidAlternative(t *testing.T) {
	_, schedule := newTestLoan(t, 0)

	_, err := CompareTerms(schedule, []TermSet{{Label: "bad", AnnualRate: decimal.NewFromInt(-2)}}, testNow)

	assert.ErrorIs(t, err, ErrInvalidLoanTerms)
}
