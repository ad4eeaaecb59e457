package sqlrepository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/finlife/loan-engine/internal/domain"
	"github.com/finlife/loan-engine/internal/infrastructure/persistence"
	redisrepository "github.com/finlife/loan-engine/internal/infrastructure/repository/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GORMLoanRepository struct {
	db     *gorm.DB
	cache  *redisrepository.RedisLoanCache // Optional - can be nil
	logger *zap.Logger
}

func NewLoanRepository(db *gorm.DB, cache *redisrepository.RedisLoanCache, logger *zap.Logger) *GORMLoanRepository {
	return &GORMLoanRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// Create stores a loan and its initial schedule in one transaction.
func (r *GORMLoanRepository) Create(ctx context.Context, loan *domain.Loan, entries []*domain.ScheduleEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(persistence.LoanModelFromDomain(loan)).Error; err != nil {
			return err
		}
		return r.createEntries(tx, entries)
	})
	if err != nil {
		if isDuplicateError(err) {
			return fmt.Errorf("%w: %s", domain.ErrLoanExists, loan.ID)
		}
		r.logger.Error("failed to create loan", zap.Error(err), zap.String("loan_id", loan.ID))
		return fmt.Errorf("database error: %w", err)
	}

	r.logger.Debug("loan created",
		zap.String("loan_id", loan.ID),
		zap.Int("entries", len(entries)),
	)

	return nil
}

func (r *GORMLoanRepository) FindByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, loanID)
		if err == nil {
			r.logger.Debug("loan cache hit", zap.String("loan_id", loanID))
			return cached, nil
		}
		if !errors.Is(err, redisrepository.ErrCacheMiss) {
			r.logger.Warn("loan cache read failed", zap.Error(err), zap.String("loan_id", loanID))
		}
	}

	var model persistence.LoanModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", loanID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrLoanNotFound, loanID)
		}
		r.logger.Error("failed to query loan", zap.Error(result.Error))
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	loan, err := model.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("corrupt loan %s: %w", loanID, err)
	}

	r.refreshCache(ctx, loan)

	return loan, nil
}

func (r *GORMLoanRepository) FindSchedule(ctx context.Context, loanID string) (domain.Schedule, error) {
	var models []persistence.ScheduleEntryModel

	result := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("sequence_number ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", result.Error)
	}

	entries := make(domain.Schedule, len(models))
	for i := range models {
		entries[i] = models[i].ToDomain()
	}

	return entries, nil
}

// FindEntry looks up an entry by id, discarded rows included.
func (r *GORMLoanRepository) FindEntry(ctx context.Context, entryID string) (*domain.ScheduleEntry, error) {
	var model persistence.ScheduleEntryModel

	result := r.db.WithContext(ctx).Unscoped().First(&model, "id = ?", entryID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, entryID)
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	return model.ToDomain(), nil
}

func (r *GORMLoanRepository) FindEvents(ctx context.Context, loanID string) ([]*domain.EmiEvent, error) {
	var models []persistence.EmiEventModel

	result := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("sequence ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query events: %w", result.Error)
	}

	events := make([]*domain.EmiEvent, len(models))
	for i := range models {
		events[i] = models[i].ToDomain()
	}

	return events, nil
}

// Apply writes a loan change in a single transaction. Every write is guarded
// so a change planned from stale state affects nothing.
func (r *GORMLoanRepository) Apply(ctx context.Context, change *domain.LoanChange) error {
	loan := change.Loan

	// Invalidate cache BEFORE updating the database
	r.invalidateCache(ctx, loan.ID)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&persistence.LoanModel{}).
			Where("id = ? AND version = ?", loan.ID, change.ExpectedVersion).
			Updates(map[string]interface{}{
				"emi_amount": loan.EmiAmount.Minor(),
				"status":     string(loan.Status),
				"version":    gorm.Expr("version + 1"),
				"updated_at": loan.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("database error: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrConcurrentModification
		}

		if len(change.Discarded) > 0 {
			ids := make([]string, len(change.Discarded))
			for i, e := range change.Discarded {
				ids[i] = e.ID
			}
			result = tx.Where("id IN ? AND payment_status = ?", ids, string(domain.PaymentStatusPending)).
				Delete(&persistence.ScheduleEntryModel{})
			if result.Error != nil {
				return fmt.Errorf("failed to discard entries: %w", result.Error)
			}
			if result.RowsAffected != int64(len(ids)) {
				return domain.ErrConcurrentModification
			}
		}

		if paid := change.Paid; paid != nil {
			result = tx.Model(&persistence.ScheduleEntryModel{}).
				Where("id = ? AND payment_status = ?", paid.ID, string(domain.PaymentStatusPending)).
				Updates(map[string]interface{}{
					"payment_status": string(paid.PaymentStatus),
					"paid_date":      paid.PaidDate,
					"payment_method": paid.PaymentMethod,
				})
			if result.Error != nil {
				return fmt.Errorf("failed to mark entry paid: %w", result.Error)
			}
			if result.RowsAffected != 1 {
				return domain.ErrConcurrentModification
			}
		}

		if err := r.createEntries(tx, change.Added); err != nil {
			return fmt.Errorf("failed to store regenerated entries: %w", err)
		}

		if change.Event != nil {
			return r.appendEvent(tx, change.Event)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			// The cached snapshot may be the stale one the change was planned from
			r.invalidateCache(ctx, loan.ID)
		} else {
			r.logger.Error("failed to apply loan change", zap.Error(err), zap.String("loan_id", loan.ID))
		}
		return err
	}

	loan.Version = change.ExpectedVersion + 1
	r.refreshCache(ctx, loan)

	r.logger.Debug("loan change applied",
		zap.String("loan_id", loan.ID),
		zap.Int64("version", loan.Version),
		zap.Int("discarded", len(change.Discarded)),
		zap.Int("added", len(change.Added)),
	)

	return nil
}

// appendEvent numbers the event after the loan's last ledger row. The unique
// (loan_id, sequence) index rejects a concurrent append.
func (r *GORMLoanRepository) appendEvent(tx *gorm.DB, event *domain.EmiEvent) error {
	var count int64
	if err := tx.Model(&persistence.EmiEventModel{}).Where("loan_id = ?", event.LoanID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count events: %w", err)
	}
	event.Sequence = int(count) + 1

	if err := tx.Create(persistence.EmiEventModelFromDomain(event)).Error; err != nil {
		if isDuplicateError(err) {
			return domain.ErrConcurrentModification
		}
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *GORMLoanRepository) createEntries(tx *gorm.DB, entries []*domain.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]*persistence.ScheduleEntryModel, len(entries))
	for i, e := range entries {
		models[i] = persistence.ScheduleEntryModelFromDomain(e)
	}
	return tx.CreateInBatches(models, 200).Error
}

func (r *GORMLoanRepository) invalidateCache(ctx context.Context, loanID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, loanID); err != nil {
		r.logger.Warn("failed to invalidate cache before save",
			zap.Error(err),
			zap.String("loan_id", loanID))
	}
}

func (r *GORMLoanRepository) refreshCache(ctx context.Context, loan *domain.Loan) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, loan); err != nil {
		r.logger.Warn("failed to update cache",
			zap.Error(err),
			zap.String("loan_id", loan.ID))
	}
}

func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "Duplicate entry") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}
