package sqlrepository

import (
	"time"

	"github.com/finlife/loan-engine/internal/domain"
	redisrepository "github.com/finlife/loan-engine/internal/infrastructure/repository/redis"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Repositories struct {
	Loan domain.LoanRepository
}

// NewRepositories wires the GORM stores. redisClient may be nil, in which
// case loan lookups always go to the database.
func NewRepositories(db *gorm.DB, redisClient *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *Repositories {
	var cache *redisrepository.RedisLoanCache
	if redisClient != nil {
		cache = redisrepository.NewRedisLoanCache(redisClient, cacheTTL)
	}
	return &Repositories{
		Loan: NewLoanRepository(db, cache, logger),
	}
}
