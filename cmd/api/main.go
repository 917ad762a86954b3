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

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bryanwahyu/traffic-sign-indicator/internal/config"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/container"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/infra/httpserver"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/logger"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/metrics"
	"github.com/bryanwahyu/traffic-sign-indicator/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env opsional
	_ = godotenv.Load()

	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer c.Close()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	go limiter.Run(5*time.Minute, 10*time.Minute, ctx.Done())

	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(c.Service, httpserver.Options{
		Logger:         log,
		APIKeys:        middleware.ParseAPIKeys(cfg.Auth.APIKeys),
		Limiter:        limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Checkers:       c.Checkers,
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	return nil
}
