// Package main запускает тестовый стенд сервиса покупки топлива.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/fuelcheck/internal/config"
	"github.com/mmeshcher/fuelcheck/internal/handler"
	"github.com/mmeshcher/fuelcheck/internal/metrics"
	"github.com/mmeshcher/fuelcheck/internal/middleware"
	"github.com/mmeshcher/fuelcheck/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.ParseSandbox()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	reg := metrics.NewRegistry()
	svc := service.NewService(cfg.Username, cfg.Password, reg)

	authMiddleware := middleware.NewAuthMiddleware(cfg.Secret)
	h := handler.NewHandler(svc, logger, authMiddleware, reg.Handler())

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting sandbox server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// graceful shutdown при отмене контекста (сигнал или ошибка сервера)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
