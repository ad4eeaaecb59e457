package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finlife/loan-engine/internal/application/service"
	"github.com/finlife/loan-engine/internal/config"
	"github.com/finlife/loan-engine/internal/domain"
	"github.com/finlife/loan-engine/internal/infrastructure/messaging"
	"github.com/finlife/loan-engine/internal/infrastructure/persistence"
	sqlrepository "github.com/finlife/loan-engine/internal/infrastructure/repository/mysql"
	redisrepository "github.com/finlife/loan-engine/internal/infrastructure/repository/redis"
	"github.com/finlife/loan-engine/internal/interface/http/handler"
	"github.com/finlife/loan-engine/internal/interface/http/router"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	cfg := config.Load()

	db, err := persistence.Open(cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err), zap.String("driver", cfg.Database.Driver))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get underlying sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if cfg.Database.Driver == persistence.DriverMySQL {
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	ctx := context.Background()
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Fatal("database ping failed", zap.Error(err))
	}

	if err := persistence.AutoMigrate(db); err != nil {
		logger.Fatal("failed to auto-migrate schemas", zap.Error(err))
	}

	logger.Info("connected to database successfully", zap.String("driver", cfg.Database.Driver))

	var (
		redisClient    *redis.Client
		locker         domain.LoanLocker
		eventPublisher domain.EventPublisher
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis successfully")

		locker = redisrepository.NewRedisLoanLocker(redisClient, cfg.Engine.LockTTL, logger)
		eventPublisher = messaging.NewRedisEventPublisher(redisClient, cfg.Engine.StreamMaxLen, logger)
		logger.Info("loan locking and event publishing enabled")
	} else {
		logger.Warn("redis disabled, running without cache, lock and events")
	}

	repos := sqlrepository.NewRepositories(db, redisClient, cfg.Engine.CacheTTL, logger)
	loanService := service.NewLoanService(repos.Loan, locker, eventPublisher, logger, cfg.Engine.MaxRetries)

	handlers := handler.NewHandlers(loanService, logger)
	r := router.NewRouter(handlers, logger)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("starting server", zap.String("address", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
