package persistence

import (
	"time"

	"github.com/finlife/loan-engine/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanModel represents the database schema for loans
type LoanModel struct {
	ID                 string    `gorm:"primaryKey;type:varchar(50)"`
	PrincipalAmount    int64     `gorm:"not null"`
	AnnualInterestRate string    `gorm:"type:varchar(32);not null"` // decimal text, no float round-trip
	TenureMonths       int       `gorm:"not null"`
	StartDate          time.Time `gorm:"not null"`
	EmiAmountOverride  *int64
	EmiAmount          int64     `gorm:"not null"`
	Status             string    `gorm:"type:varchar(20);not null;index"`
	Version            int64     `gorm:"not null;default:1"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (LoanModel) TableName() string {
	return "loans"
}

// ToDomain converts database model to domain entity
func (m *LoanModel) ToDomain() (*domain.Loan, error) {
	rate, err := decimal.NewFromString(m.AnnualInterestRate)
	if err != nil {
		return nil, err
	}
	loan := &domain.Loan{
		ID:                 m.ID,
		PrincipalAmount:    domain.Money(m.PrincipalAmount),
		AnnualInterestRate: rate,
		TenureMonths:       m.TenureMonths,
		StartDate:          m.StartDate.UTC(),
		EmiAmount:          domain.Money(m.EmiAmount),
		Status:             domain.LoanStatus(m.Status),
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.EmiAmountOverride != nil {
		override := domain.Money(*m.EmiAmountOverride)
		loan.EmiAmountOverride = &override
	}
	return loan, nil
}

// LoanModelFromDomain converts domain entity to database model
func LoanModelFromDomain(loan *domain.Loan) *LoanModel {
	model := &LoanModel{
		ID:                 loan.ID,
		PrincipalAmount:    loan.PrincipalAmount.Minor(),
		AnnualInterestRate: loan.AnnualInterestRate.String(),
		TenureMonths:       loan.TenureMonths,
		StartDate:          loan.StartDate,
		EmiAmount:          loan.EmiAmount.Minor(),
		Status:             string(loan.Status),
		Version:            loan.Version,
		CreatedAt:          loan.CreatedAt,
		UpdatedAt:          loan.UpdatedAt,
	}
	if loan.EmiAmountOverride != nil {
		override := loan.EmiAmountOverride.Minor()
		model.EmiAmountOverride = &override
	}
	return model
}

// ScheduleEntryModel represents the database schema for installments.
// Pending rows replaced by a part-payment or foreclosure are soft-deleted.
type ScheduleEntryModel struct {
	ID                 string    `gorm:"primaryKey;type:varchar(50)"`
	LoanID             string    `gorm:"type:varchar(50);not null;index:idx_entries_loan_seq,priority:1"`
	SequenceNumber     int       `gorm:"not null;index:idx_entries_loan_seq,priority:2"`
	EmiDate            time.Time `gorm:"not null"`
	EmiAmount          int64     `gorm:"not null"`
	PrincipalComponent int64     `gorm:"not null"`
	InterestComponent  int64     `gorm:"not null"`
	RemainingPrincipal int64     `gorm:"not null"`
	PaymentStatus      string    `gorm:"type:varchar(20);not null;index"`
	PaidDate           *time.Time
	PaymentMethod      string         `gorm:"type:varchar(50);not null;default:''"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (ScheduleEntryModel) TableName() string {
	return "emi_schedule_entries"
}

// ToDomain converts database model to domain entity
func (m *ScheduleEntryModel) ToDomain() *domain.ScheduleEntry {
	entry := &domain.ScheduleEntry{
		ID:                 m.ID,
		LoanID:             m.LoanID,
		SequenceNumber:     m.SequenceNumber,
		EmiDate:            m.EmiDate.UTC(),
		EmiAmount:          domain.Money(m.EmiAmount),
		PrincipalComponent: domain.Money(m.PrincipalComponent),
		InterestComponent:  domain.Money(m.InterestComponent),
		RemainingPrincipal: domain.Money(m.RemainingPrincipal),
		PaymentStatus:      domain.PaymentStatus(m.PaymentStatus),
		PaymentMethod:      m.PaymentMethod,
		Discarded:          m.DeletedAt.Valid,
	}
	if m.PaidDate != nil {
		paid := m.PaidDate.UTC()
		entry.PaidDate = &paid
	}
	return entry
}

// ScheduleEntryModelFromDomain converts domain entity to database model
func ScheduleEntryModelFromDomain(entry *domain.ScheduleEntry) *ScheduleEntryModel {
	return &ScheduleEntryModel{
		ID:                 entry.ID,
		LoanID:             entry.LoanID,
		SequenceNumber:     entry.SequenceNumber,
		EmiDate:            entry.EmiDate,
		EmiAmount:          entry.EmiAmount.Minor(),
		PrincipalComponent: entry.PrincipalComponent.Minor(),
		InterestComponent:  entry.InterestComponent.Minor(),
		RemainingPrincipal: entry.RemainingPrincipal.Minor(),
		PaymentStatus:      string(entry.PaymentStatus),
		PaidDate:           entry.PaidDate,
		PaymentMethod:      entry.PaymentMethod,
	}
}

// EmiEventModel represents the append-only ledger
type EmiEventModel struct {
	ID              string    `gorm:"primaryKey;type:varchar(50)"`
	LoanID          string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_events_loan_seq,priority:1"`
	Sequence        int       `gorm:"not null;uniqueIndex:idx_events_loan_seq,priority:2"`
	EventType       string    `gorm:"type:varchar(20);not null"`
	Amount          int64     `gorm:"not null"`
	EventDate       time.Time `gorm:"not null"`
	PaymentMethod   string    `gorm:"type:varchar(50);not null;default:''"`
	ReductionPolicy string    `gorm:"type:varchar(20);not null;default:''"`
	InterestSaved   int64     `gorm:"not null"`
	PayoffAmount    int64     `gorm:"not null;default:0"`
	NewEmiAmount    int64     `gorm:"not null;default:0"`
	NewTenure       int       `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (EmiEventModel) TableName() string {
	return "emi_events"
}

// ToDomain converts database model to domain entity
func (m *EmiEventModel) ToDomain() *domain.EmiEvent {
	return &domain.EmiEvent{
		ID:              m.ID,
		LoanID:          m.LoanID,
		Sequence:        m.Sequence,
		EventType:       domain.EmiEventType(m.EventType),
		Amount:          domain.Money(m.Amount),
		EventDate:       m.EventDate.UTC(),
		PaymentMethod:   m.PaymentMethod,
		ReductionPolicy: domain.ReductionPolicy(m.ReductionPolicy),
		InterestSaved:   domain.Money(m.InterestSaved),
		PayoffAmount:    domain.Money(m.PayoffAmount),
		NewEmiAmount:    domain.Money(m.NewEmiAmount),
		NewTenure:       m.NewTenure,
		CreatedAt:       m.CreatedAt,
	}
}

// EmiEventModelFromDomain converts domain entity to database model
func EmiEventModelFromDomain(event *domain.EmiEvent) *EmiEventModel {
	return &EmiEventModel{
		ID:              event.ID,
		LoanID:          event.LoanID,
		Sequence:        event.Sequence,
		EventType:       string(event.EventType),
		Amount:          event.Amount.Minor(),
		EventDate:       event.EventDate,
		PaymentMethod:   event.PaymentMethod,
		ReductionPolicy: string(event.ReductionPolicy),
		InterestSaved:   event.InterestSaved.Minor(),
		PayoffAmount:    event.PayoffAmount.Minor(),
		NewEmiAmount:    event.NewEmiAmount.Minor(),
		NewTenure:       event.NewTenure,
		CreatedAt:       event.CreatedAt,
	}
}

// AutoMigrate creates or updates the engine's tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&LoanModel{}, &ScheduleEntryModel{}, &EmiEventModel{})
}
