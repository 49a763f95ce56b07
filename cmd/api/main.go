package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"appcheckout/internal/config"
	"appcheckout/internal/db"
	"appcheckout/internal/httpserver"
	"appcheckout/internal/logging"
	"appcheckout/internal/ratetable"
	couponrepo "appcheckout/internal/repository/coupon"
	orderrepo "appcheckout/internal/repository/order"
	productrepo "appcheckout/internal/repository/product"
	sessionrepo "appcheckout/internal/repository/session"
	checkoutsvc "appcheckout/internal/service/checkout"
	"appcheckout/internal/service/pricing"
	productsvc "appcheckout/internal/service/product"
	sessionsvc "appcheckout/internal/service/session"
	"appcheckout/internal/tracing"
)

const serviceName = "appcheckout"

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogMode, "api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.TraceStdout, logger)
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}

	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	rates, err := loadRateTable(cfg)
	if err != nil {
		logger.Fatal("load rate table", zap.Error(err))
	}

	ready := map[string]httpserver.Pinger{"postgres": dbpool}
	sessions, purge, closeSessions, err := sessionStore(cfg, dbpool, logger, ready)
	if err != nil {
		logger.Fatal("init session store", zap.Error(err))
	}
	defer closeSessions()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	orch := checkoutsvc.New(checkoutsvc.Deps{
		Sessions: sessions,
		Catalog:  productRepo,
		Coupons:  couponrepo.NewPostgres(dbpool, logger),
		Quoter:   rates,
		Orders:   orderrepo.NewPostgres(dbpool, logger),
		Pricing:  pricing.New(cfg.Currency),
		Logger:   logger,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Checkout:    orch,
		Sessions:    sessionsvc.New(cfg.SessionTTL),
		Products:    productsvc.New(productRepo),
		Ready:       ready,
		CORSOrigins: cfg.CORSOrigins,
		Currency:    cfg.Currency,
		ServiceName: serviceName,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	if purge != nil {
		go runPurge(purgeCtx, purge, time.Hour, logger)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", zap.Error(err))
	}
}

func loadRateTable(cfg config.Config) (*ratetable.Table, error) {
	opt := ratetable.WithTimeout(cfg.RateQuoteTimeout)
	if cfg.RateTablePath == "" {
		return ratetable.Default(opt)
	}
	return ratetable.Load(cfg.RateTablePath, opt)
}

type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }

// sessionStore picks the configured session backend. Only the Postgres
// backend needs a purge loop; Redis and memory expire entries themselves.
func sessionStore(cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger, ready map[string]httpserver.Pinger) (sessionrepo.Repository, purger, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionPostgres:
		repo := sessionrepo.NewPostgres(pool, cfg.SessionTTL, logger)
		return repo, repo, func() {}, nil
	case config.SessionRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ready["redis"] = redisPinger{client: client}
		return sessionrepo.NewRedis(client, cfg.SessionTTL, logger), nil, func() { _ = client.Close() }, nil
	case config.SessionMemory:
		logger.Warn("using in-memory session store; sessions are lost on restart")
		return sessionrepo.NewMemory(cfg.SessionTTL, logger), nil, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func runPurge(ctx context.Context, p purger, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purge expired sessions failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}
