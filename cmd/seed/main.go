package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finlife/loan-engine/internal/application/service"
	"github.com/finlife/loan-engine/internal/config"
	"github.com/finlife/loan-engine/internal/domain"
	"github.com/finlife/loan-engine/internal/infrastructure/persistence"
	sqlrepository "github.com/finlife/loan-engine/internal/infrastructure/repository/mysql"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type seedLoan struct {
	id           string
	principal    domain.Money
	annualRate   string
	tenureMonths int
	monthsPaid   int
}

// Demo loans, amounts in paise
var loans = []seedLoan{
	{"LOAN00001", 120000000, "9.5", 24, 0},
	{"LOAN00002", 500000000, "8.75", 240, 12},
	{"LOAN00003", 75000000, "12", 36, 10},
	{"LOAN00004", 30000000, "0", 12, 3},
	{"LOAN00005", 250000000, "10.25", 60, 59},
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	cfg := config.Load()

	db, err := persistence.Open(cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := persistence.AutoMigrate(db); err != nil {
		logger.Fatal("failed to auto-migrate schemas", zap.Error(err))
	}

	repos := sqlrepository.NewRepositories(db, nil, 0, logger)
	loanService := service.NewLoanService(repos.Loan, nil, nil, logger, cfg.Engine.MaxRetries)

	ctx := context.Background()
	start := domain.DateOnly(time.Now()).AddDate(-1, 0, 0)

	for _, l := range loans {
		result, err := loanService.GenerateSchedule(ctx, service.GenerateScheduleRequest{
			LoanID:       l.id,
			Principal:    l.principal,
			AnnualRate:   decimal.RequireFromString(l.annualRate),
			TenureMonths: l.tenureMonths,
			StartDate:    start,
		})
		if errors.Is(err, domain.ErrLoanExists) {
			logger.Info("loan already seeded", zap.String("loan_id", l.id))
			continue
		}
		if err != nil {
			logger.Fatal("failed to seed loan", zap.Error(err), zap.String("loan_id", l.id))
		}

		for _, entry := range result.Entries[:l.monthsPaid] {
			if _, err := loanService.MarkPaid(ctx, service.MarkPaidRequest{
				EntryID:       entry.ID,
				PaidDate:      entry.EmiDate,
				PaymentMethod: "NACH",
			}); err != nil {
				logger.Fatal("failed to seed payment", zap.Error(err), zap.String("entry_id", entry.ID))
			}
		}

		logger.Info("loan seeded",
			zap.String("loan_id", l.id),
			zap.Int("installments", len(result.Entries)),
			zap.Int("paid", l.monthsPaid),
		)
	}

	logger.Info("seeding completed", zap.Int("loans", len(loans)))
}
