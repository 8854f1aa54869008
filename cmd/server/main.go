package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/session"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		logger.Fatal("database connection failed", "error", err)
	}
	defer db.Close()
	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("database migration failed", "error", err)
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable: response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	svc := service.NewBookingService(
		repository.NewShowRepo(db),
		repository.NewUserRepo(db),
		newLedger(cfg, db),
		newSessionStore(ctx, cfg, rdb),
		newPublisher(ctx, cfg),
	)

	e := router.New(router.Handlers{
		Identity: handler.NewIdentityHandler(svc, cfg.JWTSecret, cfg.AccessTTLMin),
		Booking:  handler.NewBookingHandler(svc),
		Session:  handler.NewSessionHandler(svc),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", "addr", addr, "env", cfg.Env, "ledger", cfg.LedgerBackend, "sessions", cfg.SessionBackend)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func newLedger(cfg config.Config, db *sql.DB) ledger.Ledger {
	if cfg.LedgerBackend == config.BackendMemory {
		return ledger.NewMemory()
	}
	return repository.NewBookingRepo(db)
}

func newSessionStore(ctx context.Context, cfg config.Config, rdb *redis.Client) session.Store {
	if cfg.SessionBackend == config.BackendRedis && rdb != nil {
		return session.NewRedisStore(rdb, cfg.SessionTTL, "session")
	}
	if cfg.SessionBackend == config.BackendRedis {
		logger.Get().Warn("redis unavailable: selection sessions kept in memory")
	}
	store := session.NewMemoryStore(cfg.SessionTTL)
	go store.StartJanitor(ctx, time.Minute)
	return store
}

// newPublisher returns nil when messaging is off, which the service treats
// as "do not publish".  The booking log consumer runs alongside.
func newPublisher(ctx context.Context, cfg config.Config) service.Publisher {
	if cfg.RabbitURL == "" {
		return nil
	}
	consumer := queue.NewConsumer(cfg.RabbitURL, cfg.BookingLogPath)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Get().Error("booking consumer stopped", "error", err)
		}
	}()
	return queue.NewPublisher(cfg.RabbitURL)
}
