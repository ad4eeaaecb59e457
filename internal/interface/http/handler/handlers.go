package handler

import (
	"github.com/finlife/loan-engine/internal/application/service"
	"go.uber.org/zap"
)

type Handlers struct {
	Loan *LoanHandler
}

func NewHandlers(loanService *service.LoanService, logger *zap.Logger) *Handlers {
	return &Handlers{
		Loan: NewLoanHandler(loanService, logger),
	}
}
