package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finlife/loan-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of every calendar date.
const DateLayout = "2006-01-02"

type ScheduleRequest struct {
	LoanID             string `json:"loan_id,omitempty"`
	PrincipalAmount    string `json:"principal_amount"`
	AnnualInterestRate string `json:"annual_interest_rate"`
	TenureMonths       int    `json:"tenure_months"`
	StartDate          string `json:"start_date"`
	EmiAmountOverride  string `json:"emi_amount_override,omitempty"`
}

func (r *ScheduleRequest) Validate() error {
	if r.PrincipalAmount == "" {
		return errors.New("principal_amount is required")
	}
	if r.AnnualInterestRate == "" {
		return errors.New("annual_interest_rate is required")
	}
	if r.TenureMonths == 0 {
		return errors.New("tenure_months is required")
	}
	if r.StartDate == "" {
		return errors.New("start_date is required")
	}
	if _, err := parseDate("start_date", r.StartDate); err != nil {
		return err
	}
	if _, err := parseRate("annual_interest_rate", r.AnnualInterestRate); err != nil {
		return err
	}
	return nil
}

func (r *ScheduleRequest) GetPrincipal() (domain.Money, error) {
	return domain.ParseMoney(r.PrincipalAmount)
}

func (r *ScheduleRequest) GetAnnualRate() (decimal.Decimal, error) {
	return parseRate("annual_interest_rate", r.AnnualInterestRate)
}

func (r *ScheduleRequest) GetStartDate() (time.Time, error) {
	return parseDate("start_date", r.StartDate)
}

// GetEmiOverride returns nil when no override was sent.
func (r *ScheduleRequest) GetEmiOverride() (*domain.Money, error) {
	if strings.TrimSpace(r.EmiAmountOverride) == "" {
		return nil, nil
	}
	emi, err := domain.ParseMoney(r.EmiAmountOverride)
	if err != nil {
		return nil, err
	}
	return &emi, nil
}

type MarkPaidRequest struct {
	PaidDate      string `json:"paid_date"`
	PaymentMethod string `json:"payment_method"`
}

func (r *MarkPaidRequest) Validate() error {
	if r.PaidDate == "" {
		return errors.New("paid_date is required")
	}
	_, err := parseDate("paid_date", r.PaidDate)
	return err
}

func (r *MarkPaidRequest) GetPaidDate() (time.Time, error) {
	return parseDate("paid_date", r.PaidDate)
}

type PartPaymentRequest struct {
	Amount          string `json:"amount"`
	EventDate       string `json:"event_date"`
	ReductionPolicy string `json:"reduction_policy"`
	PaymentMethod   string `json:"payment_method"`
}

func (r *PartPaymentRequest) Validate() error {
	if r.Amount == "" {
		return errors.New("amount is required")
	}
	if r.EventDate == "" {
		return errors.New("event_date is required")
	}
	if r.ReductionPolicy == "" {
		return errors.New("reduction_policy is required")
	}
	_, err := parseDate("event_date", r.EventDate)
	return err
}

func (r *PartPaymentRequest) GetAmount() (domain.Money, error) {
	return domain.ParseMoney(r.Amount)
}

func (r *PartPaymentRequest) GetEventDate() (time.Time, error) {
	return parseDate("event_date", r.EventDate)
}

type ForeclosureRequest struct {
	ForeclosureDate string `json:"foreclosure_date"`
	PaymentMethod   string `json:"payment_method"`
}

func (r *ForeclosureRequest) Validate() error {
	if r.ForeclosureDate == "" {
		return errors.New("foreclosure_date is required")
	}
	_, err := parseDate("foreclosure_date", r.ForeclosureDate)
	return err
}

func (r *ForeclosureRequest) GetForeclosureDate() (time.Time, error) {
	return parseDate("foreclosure_date", r.ForeclosureDate)
}

type TermSetRequest struct {
	Label              string `json:"label"`
	AnnualInterestRate string `json:"annual_interest_rate"`
	TenureMonths       int    `json:"tenure_months,omitempty"`
	SwitchingCost      string `json:"switching_cost,omitempty"`
}

type ComparisonRequest struct {
	Alternatives []TermSetRequest `json:"alternatives"`
}

func (r *ComparisonRequest) Validate() error {
	if len(r.Alternatives) == 0 {
		return errors.New("at least one alternative is required")
	}
	for i, alt := range r.Alternatives {
		if alt.AnnualInterestRate == "" {
			return fmt.Errorf("alternatives[%d].annual_interest_rate is required", i)
		}
		if _, err := parseRate(fmt.Sprintf("alternatives[%d].annual_interest_rate", i), alt.AnnualInterestRate); err != nil {
			return err
		}
	}
	return nil
}

// GetTermSets converts the alternatives, labelling unnamed ones by position.
func (r *ComparisonRequest) GetTermSets() ([]domain.TermSet, error) {
	sets := make([]domain.TermSet, len(r.Alternatives))
	for i, alt := range r.Alternatives {
		rate, err := parseRate("annual_interest_rate", alt.AnnualInterestRate)
		if err != nil {
			return nil, err
		}
		label := alt.Label
		if label == "" {
			label = fmt.Sprintf("alternative-%d", i+1)
		}
		sets[i] = domain.TermSet{
			Label:        label,
			AnnualRate:   rate,
			TenureMonths: alt.TenureMonths,
		}
		if strings.TrimSpace(alt.SwitchingCost) != "" {
			cost, err := domain.ParseMoney(alt.SwitchingCost)
			if err != nil {
				return nil, err
			}
			sets[i].SwitchingCost = &cost
		}
	}
	return sets, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be in format 'YYYY-MM-DD'", field)
	}
	return t, nil
}

func parseRate(field, value string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a valid number", field)
	}
	return rate, nil
}
