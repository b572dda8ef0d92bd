package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/park285/chessx/internal/app"
	"github.com/park285/chessx/internal/config"
	"github.com/park285/chessx/internal/obslog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init error", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- deps.Server.Listen(cfg.Addr()) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server exited", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutdown_signal")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// open websockets are hijacked and not waited on by Shutdown; closing the hub ends them
		deps.Hub.Close()
		if err := deps.Server.Shutdown(sctx); err != nil {
			logger.Warn("shutdown error", zap.Error(err))
		}
	}
}
