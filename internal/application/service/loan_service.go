package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finlife/loan-engine/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultMaxRetries = 3

type LoanService struct {
	loanRepo       domain.LoanRepository
	locker         domain.LoanLocker     // Optional - can be nil
	eventPublisher domain.EventPublisher // Optional - can be nil
	logger         *zap.Logger
	maxRetries     int
	now            func() time.Time
}

// NewLoanService creates a loan service. locker and eventPublisher may be nil.
func NewLoanService(
	loanRepo domain.LoanRepository,
	locker domain.LoanLocker,
	eventPublisher domain.EventPublisher,
	logger *zap.Logger,
	maxRetries int,
) *LoanService {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	return &LoanService{
		loanRepo:       loanRepo,
		locker:         locker,
		eventPublisher: eventPublisher,
		logger:         logger,
		maxRetries:     maxRetries,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type GenerateScheduleRequest struct {
	LoanID       string // generated when empty
	Principal    domain.Money
	AnnualRate   decimal.Decimal
	TenureMonths int
	StartDate    time.Time
	EmiOverride  *domain.Money
}

func (r GenerateScheduleRequest) terms() domain.ScheduleTerms {
	return domain.ScheduleTerms{
		Principal:    r.Principal,
		AnnualRate:   r.AnnualRate,
		TenureMonths: r.TenureMonths,
		StartDate:    r.StartDate,
		EmiOverride:  r.EmiOverride,
	}
}

type GenerateScheduleResponse struct {
	Loan    *domain.Loan
	Entries domain.Schedule
}

func (s *LoanService) GenerateSchedule(ctx context.Context, req GenerateScheduleRequest) (*GenerateScheduleResponse, error) {
	loanID := req.LoanID
	if loanID == "" {
		loanID = uuid.New().String()
	}

	loan, entries, err := domain.NewLoan(loanID, req.terms(), s.now())
	if err != nil {
		s.logger.Info("rejected loan terms",
			zap.Error(err),
			zap.String("loan_id", loanID),
		)
		return nil, err
	}

	if err := s.loanRepo.Create(ctx, loan, entries); err != nil {
		if errors.Is(err, domain.ErrLoanExists) {
			return nil, err
		}
		s.logger.Error("failed to store schedule",
			zap.Error(err),
			zap.String("loan_id", loanID),
		)
		return nil, fmt.Errorf("failed to store schedule: %w", err)
	}

	s.logger.Info("schedule generated",
		zap.String("loan_id", loan.ID),
		zap.Int64("principal", loan.PrincipalAmount.Minor()),
		zap.Int("tenure", len(entries)),
		zap.Int64("emi", loan.EmiAmount.Minor()),
	)

	return &GenerateScheduleResponse{Loan: loan, Entries: entries}, nil
}

type MarkPaidRequest struct {
	EntryID       string
	PaidDate      time.Time
	PaymentMethod string
}

// MarkPaid records payment of one installment. Replaying it for an entry
// that is already paid returns the stored entry unchanged.
func (s *LoanService) MarkPaid(ctx context.Context, req MarkPaidRequest) (*domain.ScheduleEntry, error) {
	entry, err := s.loanRepo.FindEntry(ctx, req.EntryID)
	if err != nil {
		return nil, err
	}
	if entry.IsPaid() {
		s.logger.Info("duplicate payment detected",
			zap.String("loan_id", entry.LoanID),
			zap.String("entry_id", entry.ID),
		)
		return entry, nil
	}

	var replay *domain.ScheduleEntry
	change, err := s.mutate(ctx, entry.LoanID, func(loan *domain.Loan, schedule domain.Schedule) (*domain.LoanChange, error) {
		if current := schedule.Find(req.EntryID); current != nil && current.IsPaid() {
			replay = current
			return nil, nil
		}
		return loan.PlanMarkPaid(schedule, req.EntryID, req.PaidDate, req.PaymentMethod, s.now())
	})
	if err != nil {
		return nil, err
	}
	if change == nil {
		return replay, nil
	}

	s.logger.Info("installment paid",
		zap.String("loan_id", change.Loan.ID),
		zap.String("entry_id", change.Paid.ID),
		zap.Int("sequence", change.Paid.SequenceNumber),
		zap.Int64("amount", change.Paid.EmiAmount.Minor()),
		zap.String("loan_status", string(change.Loan.Status)),
	)

	return change.Paid, nil
}

type PartPaymentRequest struct {
	LoanID        string
	Amount        domain.Money
	EventDate     time.Time
	Policy        domain.ReductionPolicy
	PaymentMethod string
}

type PartPaymentResponse struct {
	Loan          *domain.Loan
	NewTail       []*domain.ScheduleEntry
	InterestSaved domain.Money
	Event         *domain.EmiEvent
}

func (s *LoanService) ApplyPartPayment(ctx context.Context, req PartPaymentRequest) (*PartPaymentResponse, error) {
	change, err := s.mutate(ctx, req.LoanID, func(loan *domain.Loan, schedule domain.Schedule) (*domain.LoanChange, error) {
		return loan.PlanPartPayment(schedule, domain.PartPayment{
			Amount:        req.Amount,
			EventDate:     req.EventDate,
			Policy:        req.Policy,
			PaymentMethod: req.PaymentMethod,
		}, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("part-payment applied",
		zap.String("loan_id", req.LoanID),
		zap.Int64("amount", req.Amount.Minor()),
		zap.String("policy", string(req.Policy)),
		zap.Int("new_tenure", len(change.Added)),
		zap.Int64("new_emi", change.Loan.EmiAmount.Minor()),
		zap.Int64("interest_saved", change.Event.InterestSaved.Minor()),
	)

	return &PartPaymentResponse{
		Loan:          change.Loan,
		NewTail:       change.Added,
		InterestSaved: change.Event.InterestSaved,
		Event:         change.Event,
	}, nil
}

type ForeclosureRequest struct {
	LoanID          string
	ForeclosureDate time.Time
	PaymentMethod   string
}

type ForeclosureResponse struct {
	Loan          *domain.Loan
	PayoffAmount  domain.Money
	InterestSaved domain.Money
	Event         *domain.EmiEvent
}

func (s *LoanService) ApplyForeclosure(ctx context.Context, req ForeclosureRequest) (*ForeclosureResponse, error) {
	change, err := s.mutate(ctx, req.LoanID, func(loan *domain.Loan, schedule domain.Schedule) (*domain.LoanChange, error) {
		return loan.PlanForeclosure(schedule, req.ForeclosureDate, req.PaymentMethod, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan foreclosed",
		zap.String("loan_id", req.LoanID),
		zap.Int64("payoff", change.Event.PayoffAmount.Minor()),
		zap.Int64("interest_saved", change.Event.InterestSaved.Minor()),
		zap.Int("discarded", len(change.Discarded)),
	)

	return &ForeclosureResponse{
		Loan:          change.Loan,
		PayoffAmount:  change.Event.PayoffAmount,
		InterestSaved: change.Event.InterestSaved,
		Event:         change.Event,
	}, nil
}

// CompareTerms evaluates alternative terms for the outstanding principal of
// an active loan. Nothing is written.
func (s *LoanService) CompareTerms(ctx context.Context, loanID string, alternatives []domain.TermSet) ([]domain.ComparisonResult, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, fmt.Errorf("%w: loan %s is %s", domain.ErrLoanClosed, loan.ID, loan.Status)
	}

	schedule, err := s.loanRepo.FindSchedule(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	return domain.CompareTerms(schedule, alternatives, s.now())
}

func (s *LoanService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	return s.loanRepo.FindByID(ctx, loanID)
}

func (s *LoanService) GetSchedule(ctx context.Context, loanID string) (domain.Schedule, error) {
	// Verify loan exists
	if _, err := s.loanRepo.FindByID(ctx, loanID); err != nil {
		return nil, err
	}
	return s.loanRepo.FindSchedule(ctx, loanID)
}

func (s *LoanService) GetEvents(ctx context.Context, loanID string) ([]*domain.EmiEvent, error) {
	if _, err := s.loanRepo.FindByID(ctx, loanID); err != nil {
		return nil, err
	}
	return s.loanRepo.FindEvents(ctx, loanID)
}

type LoanSummary struct {
	Loan                 *domain.Loan
	OutstandingPrincipal domain.Money
	PaidInstallments     int
	PendingInstallments  int
	InterestPaid         domain.Money
	InterestRemaining    domain.Money
	PrepaidPrincipal     domain.Money // sum of part-payments and foreclosure payoff
	NextDue              *domain.ScheduleEntry
}

func (s *LoanService) GetLoanSummary(ctx context.Context, loanID string) (*LoanSummary, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.loanRepo.FindSchedule(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	events, err := s.loanRepo.FindEvents(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	paid, pending := schedule.Paid(), schedule.Pending()
	summary := &LoanSummary{
		Loan:                 loan,
		OutstandingPrincipal: schedule.OutstandingPrincipal(),
		PaidInstallments:     len(paid),
		PendingInstallments:  len(pending),
		InterestPaid:         paid.TotalInterest(),
		InterestRemaining:    pending.TotalInterest(),
		NextDue:              schedule.NextPending(),
	}
	for _, e := range events {
		summary.PrepaidPrincipal += e.Amount
	}

	return summary, nil
}

type PreviewResponse struct {
	EmiAmount     domain.Money
	TotalInterest domain.Money
	Installments  []domain.Installment
}

// PreviewSchedule generates a schedule without storing anything.
func (s *LoanService) PreviewSchedule(req GenerateScheduleRequest) (*PreviewResponse, error) {
	terms := req.terms()
	installments, err := domain.GenerateSchedule(terms)
	if err != nil {
		return nil, err
	}

	emi := domain.StandardEMI(terms.Principal, domain.MonthlyRate(terms.AnnualRate), terms.TenureMonths)
	if terms.EmiOverride != nil {
		emi = *terms.EmiOverride
	}

	return &PreviewResponse{
		EmiAmount:     emi,
		TotalInterest: domain.TotalInterest(installments),
		Installments:  installments,
	}, nil
}

// planFunc computes a change from the current state. A nil change with a
// nil error means there is nothing to write.
type planFunc func(loan *domain.Loan, schedule domain.Schedule) (*domain.LoanChange, error)

// mutate runs read-plan-apply for one loan under its lock, re-reading state
// and re-planning when Apply reports a concurrent modification.
func (s *LoanService) mutate(ctx context.Context, loanID string, plan planFunc) (*domain.LoanChange, error) {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, loanID)
		switch {
		case err == nil:
			defer unlock()
		case errors.Is(err, domain.ErrConcurrentModification), ctx.Err() != nil:
			return nil, err
		default:
			// Lock backend unavailable, the version check still guards the write
			s.logger.Warn("failed to acquire loan lock, relying on version check",
				zap.Error(err),
				zap.String("loan_id", loanID),
			)
		}
	}

	for attempt := 0; ; attempt++ {
		loan, err := s.loanRepo.FindByID(ctx, loanID)
		if err != nil {
			return nil, err
		}
		schedule, err := s.loanRepo.FindSchedule(ctx, loanID)
		if err != nil {
			return nil, fmt.Errorf("failed to get schedule: %w", err)
		}

		change, err := plan(loan, schedule)
		if err != nil || change == nil {
			return nil, err
		}

		err = s.loanRepo.Apply(ctx, change)
		if err == nil {
			if s.eventPublisher != nil {
				go s.publishEvents(domain.EventsFor(change))
			}
			return change, nil
		}

		if !domain.IsRetryable(err) || attempt >= s.maxRetries {
			if !domain.IsRetryable(err) {
				s.logger.Error("failed to apply loan change",
					zap.Error(err),
					zap.String("loan_id", loanID),
				)
			}
			return nil, err
		}

		s.logger.Warn("optimistic lock conflict, retrying",
			zap.String("loan_id", loanID),
			zap.Int("attempt", attempt+1),
		)
	}
}

func (s *LoanService) publishEvents(events []domain.DomainEvent) {
	// Use background context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, event := range events {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish event",
				zap.Error(err),
				zap.String("loan_id", event.GetAggregateID()),
				zap.String("event_type", event.GetEventType()),
				zap.String("event_id", event.GetEventID()),
			)
			continue
		}
		s.logger.Debug("event published",
			zap.String("event_id", event.GetEventID()),
			zap.String("event_type", event.GetEventType()),
		)
	}
}
