package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"appcheckout/internal/config"
	"appcheckout/internal/db"
	"appcheckout/internal/logging"
	"appcheckout/internal/migrate"
)

func main() {
	var reset bool
	flag.BoolVar(&reset, "reset", false, "Drop every table and re-apply all migrations")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogMode, "migrate")
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

	if reset {
		if err := migrate.Reset(ctx, pool, logger); err != nil {
			logger.Fatal("reset migrations", zap.Error(err))
		}
	}
	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	logger.Info("migrations applied")
}
