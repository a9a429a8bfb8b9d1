package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"balance_valuer/internal/infrastructure/configloader"
	"balance_valuer/internal/infrastructure/di"
	"balance_valuer/internal/infrastructure/restapi"
	"balance_valuer/internal/pkg/metrics"
)

func main() {
	bootLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yml"
	}
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		bootLogger.Fatal("Failed to load configuration", zap.String("path", cfgPath), zap.Error(err))
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		bootLogger.Fatal("Failed to initialize logger from config", zap.Error(err))
	}
	defer logger.Sync()

	// Bridge the standard slog logger onto zap for third-party code.
	slog.SetDefault(slog.New(zapslog.NewHandler(logger.Core())))

	logger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegister()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build valuation service", zap.Error(err))
	}

	balanceHandler := restapi.NewBalanceHandler(container.BalanceService, logger)
	router := restapi.SetupRouter(balanceHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// pprof on the default mux, away from the public port.
	go func() {
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logger.Warn("pprof server stopped", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

func buildLogger(level string) (*zap.Logger, error) {
	parsedLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(parsedLevel)
	return zapCfg.Build()
}
