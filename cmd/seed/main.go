package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"appcheckout/internal/config"
	"appcheckout/internal/db"
	"appcheckout/internal/logging"
	couponrepo "appcheckout/internal/repository/coupon"
	productrepo "appcheckout/internal/repository/product"
	"appcheckout/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogMode, "seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	catalog := productrepo.NewPostgres(pool, logger)
	coupons := couponrepo.NewPostgres(pool, logger)
	if err := seed.Apply(ctx, catalog, coupons, logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
}
