package router

import (
	"time"

	"github.com/finlife/loan-engine/internal/interface/http/handler"
	"github.com/finlife/loan-engine/internal/interface/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(handlers *handler.Handlers, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	// Routes
	r.Get("/health", handlers.Loan.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/schedules/preview", handlers.Loan.PreviewSchedule)

		r.Post("/loans", handlers.Loan.GenerateSchedule)
		r.Route("/loans/{loan_id}", func(r chi.Router) {
			r.Get("/", handlers.Loan.GetLoan)
			r.Get("/schedule", handlers.Loan.GetSchedule)
			r.Get("/events", handlers.Loan.GetEvents)
			r.Post("/part-payments", handlers.Loan.ApplyPartPayment)
			r.Post("/foreclosure", handlers.Loan.ApplyForeclosure)
			r.Post("/comparisons", handlers.Loan.CompareTerms)
		})

		r.Post("/schedule-entries/{entry_id}/payment", handlers.Loan.MarkPaid)
	})

	return r
}
