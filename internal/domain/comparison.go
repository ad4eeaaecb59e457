package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TermSet is a hypothetical set of terms for the outstanding principal.
type TermSet struct {
	Label         string
	AnnualRate    decimal.Decimal
	TenureMonths  int    // 0 keeps the remaining tenure
	SwitchingCost *Money // nil when no switching cost is supplied
}

// ComparisonResult compares the current pending plan with one alternative.
type ComparisonResult struct {
	Label                     string `json:"label"`
	OutstandingPrincipal      Money  `json:"outstanding_principal"`
	CurrentTotalInterest      Money  `json:"current_total_interest"`
	CurrentEmi                Money  `json:"current_emi"`
	CurrentTenure             int    `json:"current_tenure"`
	HypotheticalTotalInterest Money  `json:"hypothetical_total_interest"`
	HypotheticalEmi           Money  `json:"hypothetical_emi"`
	HypotheticalTenure        int    `json:"hypothetical_tenure"`
	InterestSavings           Money  `json:"interest_savings"`
	SwitchingCost             Money  `json:"switching_cost"`
	NetSavings                Money  `json:"net_savings"`
	BreakEvenMonths           *int   `json:"break_even_months,omitempty"`
}

// CompareTerms evaluates alternatives against the pending part of schedule.
// It is a pure computation.
func CompareTerms(schedule Schedule, alternatives []TermSet, asOf time.Time) ([]ComparisonResult, error) {
	pending := schedule.Pending()
	outstanding := schedule.OutstandingPrincipal()
	if len(pending) == 0 || outstanding <= 0 {
		return nil, fmt.Errorf("%w: nothing outstanding to compare", ErrInvalidLoanTerms)
	}

	current := make([]Money, len(pending))
	for i, e := range pending {
		current[i] = e.InterestComponent
	}

	results := make([]ComparisonResult, 0, len(alternatives))
	for _, alt := range alternatives {
		tenure := alt.TenureMonths
		if tenure == 0 {
			tenure = len(pending)
		}
		installments, err := GenerateSchedule(ScheduleTerms{
			Principal:    outstanding,
			AnnualRate:   alt.AnnualRate,
			TenureMonths: tenure,
			StartDate:    asOf,
		})
		if err != nil {
			return nil, fmt.Errorf("alternative %q: %w", alt.Label, err)
		}

		res := ComparisonResult{
			Label:                     alt.Label,
			OutstandingPrincipal:      outstanding,
			CurrentTotalInterest:      pending.TotalInterest(),
			CurrentEmi:                pending[0].EmiAmount,
			CurrentTenure:             len(pending),
			HypotheticalTotalInterest: TotalInterest(installments),
			HypotheticalEmi:           installments[0].EmiAmount,
			HypotheticalTenure:        len(installments),
		}
		res.InterestSavings = res.CurrentTotalInterest - res.HypotheticalTotalInterest
		res.NetSavings = res.InterestSavings
		if alt.SwitchingCost != nil {
			res.SwitchingCost = *alt.SwitchingCost
			res.NetSavings -= res.SwitchingCost
			res.BreakEvenMonths = breakEven(current, installments, res.SwitchingCost)
		}
		results = append(results, res)
	}

	return results, nil
}

// breakEven returns the first month at which cumulative interest saved by
// switching covers cost, or nil if it never does.
func breakEven(current []Money, alternative []Installment, cost Money) *int {
	months := len(current)
	if len(alternative) > months {
		months = len(alternative)
	}
	var saved Money
	for k := 0; k < months; k++ {
		if k < len(current) {
			saved += current[k]
		}
		if k < len(alternative) {
			saved -= alternative[k].InterestComponent
		}
		if saved >= cost {
			m := k + 1
			return &m
		}
	}
	return nil
}
