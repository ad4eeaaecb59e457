package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finlife/loan-engine/internal/application/service"
	"github.com/finlife/loan-engine/internal/domain"
	"github.com/finlife/loan-engine/internal/interface/http/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type LoanHandler struct {
	loanService *service.LoanService
	logger      *zap.Logger
}

func NewLoanHandler(loanService *service.LoanService, logger *zap.Logger) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		logger:      logger,
	}
}

// PreviewSchedule computes a schedule without storing it
func (h *LoanHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeScheduleRequest(w, r)
	if !ok {
		return
	}

	result, err := h.loanService.PreviewSchedule(req)
	if err != nil {
		h.respondServiceError(w, "failed to preview schedule", err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.NewPreviewResponse(result.EmiAmount, result.TotalInterest, result.Installments))
}

// GenerateSchedule creates a loan and stores its schedule
func (h *LoanHandler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeScheduleRequest(w, r)
	if !ok {
		return
	}

	result, err := h.loanService.GenerateSchedule(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, "failed to generate schedule", err)
		return
	}

	h.respondJSON(w, http.StatusCreated, dto.GenerateScheduleResponse{
		Loan:     dto.NewLoanResponse(result.Loan),
		Schedule: dto.NewScheduleResponse(result.Entries),
	})
}

// GetLoan returns the loan with its repayment position
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loan_id")

	summary, err := h.loanService.GetLoanSummary(r.Context(), loanID)
	if err != nil {
		h.respondServiceError(w, "failed to get loan", err)
		return
	}

	resp := dto.LoanSummaryResponse{
		Loan:                 dto.NewLoanResponse(summary.Loan),
		OutstandingPrincipal: dto.NewAmount(summary.OutstandingPrincipal),
		PaidInstallments:     summary.PaidInstallments,
		PendingInstallments:  summary.PendingInstallments,
		InterestPaid:         dto.NewAmount(summary.InterestPaid),
		InterestRemaining:    dto.NewAmount(summary.InterestRemaining),
		PrepaidPrincipal:     dto.NewAmount(summary.PrepaidPrincipal),
	}
	if summary.NextDue != nil {
		next := dto.NewScheduleEntryResponse(summary.NextDue)
		resp.NextDue = &next
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loan_id")

	schedule, err := h.loanService.GetSchedule(r.Context(), loanID)
	if err != nil {
		h.respondServiceError(w, "failed to get schedule", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"loan_id":  loanID,
		"count":    len(schedule),
		"schedule": dto.NewScheduleResponse(schedule),
	})
}

func (h *LoanHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loan_id")

	events, err := h.loanService.GetEvents(r.Context(), loanID)
	if err != nil {
		h.respondServiceError(w, "failed to get events", err)
		return
	}

	resp := make([]dto.EmiEventResponse, len(events))
	for i, e := range events {
		resp[i] = dto.NewEmiEventResponse(e)
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"loan_id": loanID,
		"count":   len(events),
		"events":  resp,
	})
}

// MarkPaid records payment of one installment
func (h *LoanHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entry_id")

	var req dto.MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}
	paidDate, err := req.GetPaidDate()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid paid date", err)
		return
	}

	entry, err := h.loanService.MarkPaid(r.Context(), service.MarkPaidRequest{
		EntryID:       entryID,
		PaidDate:      paidDate,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.respondServiceError(w, "failed to mark installment paid", err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.NewScheduleEntryResponse(entry))
}

func (h *LoanHandler) ApplyPartPayment(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loan_id")

	var req dto.PartPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}
	amount, err := req.GetAmount()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}
	eventDate, err := req.GetEventDate()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid event date", err)
		return
	}

	result, err := h.loanService.ApplyPartPayment(r.Context(), service.PartPaymentRequest{
		LoanID:        loanID,
		Amount:        amount,
		EventDate:     eventDate,
		Policy:        domain.ReductionPolicy(req.ReductionPolicy),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.respondServiceError(w, "failed to apply part-payment", err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.PartPaymentResponse{
		Loan:          dto.NewLoanResponse(result.Loan),
		InterestSaved: dto.NewAmount(result.InterestSaved),
		Event:         dto.NewEmiEventResponse(result.Event),
		NewSchedule:   dto.NewScheduleResponse(result.NewTail),
	})
}

func (h *LoanHandler) ApplyForeclosure(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loan_id")

	var req dto.ForeclosureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}
	foreclosureDate, err := req.GetForeclosureDate()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid foreclosure date", err)
		return
	}

	result, err := h.loanService.ApplyForeclosure(r.Context(), service.ForeclosureRequest{
		LoanID:          loanID,
		ForeclosureDate: foreclosureDate,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		h.respondServiceError(w, "failed to foreclose loan", err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.ForeclosureResponse{
		Loan:          dto.NewLoanResponse(result.Loan),
		PayoffAmount:  dto.NewAmount(result.PayoffAmount),
		InterestSaved: dto.NewAmount(result.InterestSaved),
		Event:         dto.NewEmiEventResponse(result.Event),
	})
}

func (h *LoanHandler) CompareTerms(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loan_id")

	var req dto.ComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}
	alternatives, err := req.GetTermSets()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid alternatives", err)
		return
	}

	results, err := h.loanService.CompareTerms(r.Context(), loanID, alternatives)
	if err != nil {
		h.respondServiceError(w, "failed to compare terms", err)
		return
	}

	resp := make([]dto.ComparisonResultResponse, len(results))
	for i, res := range results {
		resp[i] = dto.NewComparisonResultResponse(res)
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"loan_id": loanID,
		"results": resp,
	})
}

// HealthCheck handles health check endpoint
func (h *LoanHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (h *LoanHandler) decodeScheduleRequest(w http.ResponseWriter, r *http.Request) (service.GenerateScheduleRequest, bool) {
	var req dto.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return service.GenerateScheduleRequest{}, false
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation failed", err)
		return service.GenerateScheduleRequest{}, false
	}

	principal, err := req.GetPrincipal()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid principal amount", err)
		return service.GenerateScheduleRequest{}, false
	}
	override, err := req.GetEmiOverride()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid emi override", err)
		return service.GenerateScheduleRequest{}, false
	}
	rate, _ := req.GetAnnualRate()
	startDate, _ := req.GetStartDate()

	return service.GenerateScheduleRequest{
		LoanID:       req.LoanID,
		Principal:    principal,
		AnnualRate:   rate,
		TenureMonths: req.TenureMonths,
		StartDate:    startDate,
		EmiOverride:  override,
	}, true
}

// respondServiceError maps domain errors to HTTP status codes.
func (h *LoanHandler) respondServiceError(w http.ResponseWriter, message string, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrInvalidLoanTerms),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidPolicy):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrLoanNotFound),
		errors.Is(err, domain.ErrEntryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrLoanClosed),
		errors.Is(err, domain.ErrLoanExists),
		errors.Is(err, domain.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrExcessPartPayment),
		errors.Is(err, domain.ErrNothingToForeclose),
		errors.Is(err, domain.ErrOutOfOrderPayment):
		status = http.StatusUnprocessableEntity
	default:
		h.logger.Error(message, zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, message, errors.New("internal error"))
		return
	}

	h.respondJSON(w, status, dto.ErrorResponse{
		Error:     message,
		Message:   err.Error(),
		Retryable: domain.IsRetryable(err),
	})
}

func (h *LoanHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *LoanHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error: message,
	}

	if err != nil {
		response.Message = err.Error()
	}

	h.respondJSON(w, status, response)
}
