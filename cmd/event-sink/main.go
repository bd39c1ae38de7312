// Command event-sink receives payment events pushed by the webhook conduit,
// verifies their signature and records each event once. Received events can
// be listed per payment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/payments-processing/internal/config"
	"github.com/josh-kwaku/payments-processing/internal/handler"
	"github.com/josh-kwaku/payments-processing/internal/logging"
	"github.com/josh-kwaku/payments-processing/internal/middleware"
	"github.com/josh-kwaku/payments-processing/internal/repository"
)

func main() {
	cfg, err := config.LoadSink()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("event-sink", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.DB)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Prepare(ctx, db, cfg.DB); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	sink := handler.NewEventSinkHandler(repository.NewReceivedEventRepository(db), cfg.Secret)
	health := handler.NewHealthHandler(db, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /ready", health.Readiness)
	mux.HandleFunc("POST /events", sink.ReceiveEvent)
	mux.HandleFunc("GET /payments/{id}/events", sink.ListPaymentEvents)

	var root http.Handler = middleware.Recovery(mux)
	root = middleware.Logging(root)
	root = middleware.Correlation(root)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("event sink started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("event sink stopped")
}
