package dto

import (
	"time"

	"github.com/finlife/loan-engine/internal/domain"
)

// Amount carries money both as exact minor units and as a major-unit string.
type Amount struct {
	Minor int64  `json:"minor"`
	Value string `json:"value"`
}

func NewAmount(m domain.Money) Amount {
	return Amount{Minor: m.Minor(), Value: m.String()}
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type LoanResponse struct {
	ID                 string  `json:"id"`
	PrincipalAmount    Amount  `json:"principal_amount"`
	AnnualInterestRate string  `json:"annual_interest_rate"`
	TenureMonths       int     `json:"tenure_months"`
	StartDate          string  `json:"start_date"`
	EmiAmount          Amount  `json:"emi_amount"`
	EmiAmountOverride  *Amount `json:"emi_amount_override,omitempty"`
	Status             string  `json:"status"`
	Version            int64   `json:"version"`
}

func NewLoanResponse(loan *domain.Loan) LoanResponse {
	resp := LoanResponse{
		ID:                 loan.ID,
		PrincipalAmount:    NewAmount(loan.PrincipalAmount),
		AnnualInterestRate: loan.AnnualInterestRate.String(),
		TenureMonths:       loan.TenureMonths,
		StartDate:          loan.StartDate.Format(DateLayout),
		EmiAmount:          NewAmount(loan.EmiAmount),
		Status:             string(loan.Status),
		Version:            loan.Version,
	}
	if loan.EmiAmountOverride != nil {
		override := NewAmount(*loan.EmiAmountOverride)
		resp.EmiAmountOverride = &override
	}
	return resp
}

type ScheduleEntryResponse struct {
	ID                 string `json:"id"`
	LoanID             string `json:"loan_id"`
	SequenceNumber     int    `json:"sequence_number"`
	EmiDate            string `json:"emi_date"`
	EmiAmount          Amount `json:"emi_amount"`
	PrincipalComponent Amount `json:"principal_component"`
	InterestComponent  Amount `json:"interest_component"`
	RemainingPrincipal Amount `json:"remaining_principal"`
	PaymentStatus      string `json:"payment_status"`
	PaidDate           string `json:"paid_date,omitempty"`
	PaymentMethod      string `json:"payment_method,omitempty"`
}

func NewScheduleEntryResponse(e *domain.ScheduleEntry) ScheduleEntryResponse {
	resp := ScheduleEntryResponse{
		ID:                 e.ID,
		LoanID:             e.LoanID,
		SequenceNumber:     e.SequenceNumber,
		EmiDate:            e.EmiDate.Format(DateLayout),
		EmiAmount:          NewAmount(e.EmiAmount),
		PrincipalComponent: NewAmount(e.PrincipalComponent),
		InterestComponent:  NewAmount(e.InterestComponent),
		RemainingPrincipal: NewAmount(e.RemainingPrincipal),
		PaymentStatus:      string(e.PaymentStatus),
		PaymentMethod:      e.PaymentMethod,
	}
	if e.PaidDate != nil {
		resp.PaidDate = e.PaidDate.Format(DateLayout)
	}
	return resp
}

func NewScheduleResponse(entries []*domain.ScheduleEntry) []ScheduleEntryResponse {
	resp := make([]ScheduleEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = NewScheduleEntryResponse(e)
	}
	return resp
}

type InstallmentResponse struct {
	Period             int    `json:"period"`
	EmiDate            string `json:"emi_date"`
	EmiAmount          Amount `json:"emi_amount"`
	PrincipalComponent Amount `json:"principal_component"`
	InterestComponent  Amount `json:"interest_component"`
	RemainingPrincipal Amount `json:"remaining_principal"`
}

type PreviewResponse struct {
	EmiAmount     Amount                `json:"emi_amount"`
	TotalInterest Amount                `json:"total_interest"`
	TenureMonths  int                   `json:"tenure_months"`
	Schedule      []InstallmentResponse `json:"schedule"`
}

func NewPreviewResponse(emi, totalInterest domain.Money, installments []domain.Installment) PreviewResponse {
	rows := make([]InstallmentResponse, len(installments))
	for i, in := range installments {
		rows[i] = InstallmentResponse{
			Period:             in.Period,
			EmiDate:            in.Date.Format(DateLayout),
			EmiAmount:          NewAmount(in.EmiAmount),
			PrincipalComponent: NewAmount(in.PrincipalComponent),
			InterestComponent:  NewAmount(in.InterestComponent),
			RemainingPrincipal: NewAmount(in.RemainingPrincipal),
		}
	}
	return PreviewResponse{
		EmiAmount:     NewAmount(emi),
		TotalInterest: NewAmount(totalInterest),
		TenureMonths:  len(installments),
		Schedule:      rows,
	}
}

type GenerateScheduleResponse struct {
	Loan     LoanResponse            `json:"loan"`
	Schedule []ScheduleEntryResponse `json:"schedule"`
}

type EmiEventResponse struct {
	ID              string  `json:"id"`
	Sequence        int     `json:"sequence"`
	EventType       string  `json:"event_type"`
	Amount          Amount  `json:"amount"`
	EventDate       string  `json:"event_date"`
	PaymentMethod   string  `json:"payment_method,omitempty"`
	ReductionPolicy string  `json:"reduction_policy,omitempty"`
	InterestSaved   Amount  `json:"interest_saved"`
	PayoffAmount    *Amount `json:"payoff_amount,omitempty"`
	NewEmiAmount    *Amount `json:"new_emi_amount,omitempty"`
	NewTenure       int     `json:"new_tenure"`
	CreatedAt       string  `json:"created_at"`
}

func NewEmiEventResponse(e *domain.EmiEvent) EmiEventResponse {
	resp := EmiEventResponse{
		ID:              e.ID,
		Sequence:        e.Sequence,
		EventType:       string(e.EventType),
		Amount:          NewAmount(e.Amount),
		EventDate:       e.EventDate.Format(DateLayout),
		PaymentMethod:   e.PaymentMethod,
		ReductionPolicy: string(e.ReductionPolicy),
		InterestSaved:   NewAmount(e.InterestSaved),
		NewTenure:       e.NewTenure,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
	}
	switch e.EventType {
	case domain.EmiEventForeclosure:
		payoff := NewAmount(e.PayoffAmount)
		resp.PayoffAmount = &payoff
	case domain.EmiEventPartPayment:
		emi := NewAmount(e.NewEmiAmount)
		resp.NewEmiAmount = &emi
	}
	return resp
}

type LoanSummaryResponse struct {
	Loan                 LoanResponse           `json:"loan"`
	OutstandingPrincipal Amount                 `json:"outstanding_principal"`
	PaidInstallments     int                    `json:"paid_installments"`
	PendingInstallments  int                    `json:"pending_installments"`
	InterestPaid         Amount                 `json:"interest_paid"`
	InterestRemaining    Amount                 `json:"interest_remaining"`
	PrepaidPrincipal     Amount                 `json:"prepaid_principal"`
	NextDue              *ScheduleEntryResponse `json:"next_due,omitempty"`
}

type PartPaymentResponse struct {
	Loan          LoanResponse            `json:"loan"`
	InterestSaved Amount                  `json:"interest_saved"`
	Event         EmiEventResponse        `json:"event"`
	NewSchedule   []ScheduleEntryResponse `json:"new_schedule"`
}

type ForeclosureResponse struct {
	Loan          LoanResponse     `json:"loan"`
	PayoffAmount  Amount           `json:"payoff_amount"`
	InterestSaved Amount           `json:"interest_saved"`
	Event         EmiEventResponse `json:"event"`
}

type ComparisonResultResponse struct {
	Label                     string `json:"label"`
	OutstandingPrincipal      Amount `json:"outstanding_principal"`
	CurrentTotalInterest      Amount `json:"current_total_interest"`
	CurrentEmi                Amount `json:"current_emi"`
	CurrentTenure             int    `json:"current_tenure"`
	HypotheticalTotalInterest Amount `json:"hypothetical_total_interest"`
	HypotheticalEmi           Amount `json:"hypothetical_emi"`
	HypotheticalTenure        int    `json:"hypothetical_tenure"`
	InterestSavings           Amount `json:"interest_savings"`
	SwitchingCost             Amount `json:"switching_cost"`
	NetSavings                Amount `json:"net_savings"`
	BreakEvenMonths           *int   `json:"break_even_months,omitempty"`
}

func NewComparisonResultResponse(r domain.ComparisonResult) ComparisonResultResponse {
	return ComparisonResultResponse{
		Label:                     r.Label,
		OutstandingPrincipal:      NewAmount(r.OutstandingPrincipal),
		CurrentTotalInterest:      NewAmount(r.CurrentTotalInterest),
		CurrentEmi:                NewAmount(r.CurrentEmi),
		CurrentTenure:             r.CurrentTenure,
		HypotheticalTotalInterest: NewAmount(r.HypotheticalTotalInterest),
		HypotheticalEmi:           NewAmount(r.HypotheticalEmi),
		HypotheticalTenure:        r.HypotheticalTenure,
		InterestSavings:           NewAmount(r.InterestSavings),
		SwitchingCost:             NewAmount(r.SwitchingCost),
		NetSavings:                NewAmount(r.NetSavings),
		BreakEvenMonths:           r.BreakEvenMonths,
	}
}
