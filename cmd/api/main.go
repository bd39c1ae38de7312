package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/josh-kwaku/payments-processing/internal/audit"
	"github.com/josh-kwaku/payments-processing/internal/config"
	"github.com/josh-kwaku/payments-processing/internal/domain"
	"github.com/josh-kwaku/payments-processing/internal/handler"
	"github.com/josh-kwaku/payments-processing/internal/logging"
	"github.com/josh-kwaku/payments-processing/internal/outbox"
	"github.com/josh-kwaku/payments-processing/internal/repository"
	"github.com/josh-kwaku/payments-processing/internal/service/payment"
	"github.com/josh-kwaku/payments-processing/internal/tracing"
)

const idempotencyCleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("payments-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, "payments-api")
	if err != nil {
		slog.Error("failed to initialise tracing", "error", err)
		os.Exit(1)
	}

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

	clock := domain.SystemClock{}
	txDB := repository.NewDB(db)
	paymentRepo := repository.NewPaymentRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	svc := payment.NewService(paymentRepo, outbox.NewPublisher(outboxRepo, clock), feePolicy(cfg), clock, txDB)

	conduit, closeConduit, err := outbox.NewConduit(cfg.Outbox, logger.With("component", "conduit"))
	if err != nil {
		slog.Error("failed to build outbox conduit", "error", err)
		os.Exit(1)
	}
	sender := outbox.NewSender(outboxRepo, txDB, conduit, logger.With("component", "outbox"), cfg.Outbox.PollInterval)

	var auditor auditSubmitter = noopAuditor{}
	var clientAudit *audit.Auditor
	if cfg.Audit.Enabled {
		clientAudit = audit.NewAuditor(cfg.Audit, logger.With("component", "client_audit"))
		auditor = clientAudit
	}

	bg, cancelBg := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		sender.Start(bg)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanIdempotencyCache(bg, idempotencyRepo, idempotencyCleanupInterval)
	}()

	if clientAudit != nil {
		clientAudit.Start(bg)
	}

	root := newRouter(routeDeps{
		payments:       handler.NewPaymentHandler(svc),
		health:         handler.NewHealthHandler(db, outboxRepo),
		idempotency:    idempotencyRepo,
		idempotencyTTL: cfg.IdempotencyTTL,
		jwtSecret:      cfg.Auth.JWTSecret,
		auditor:        auditor,
	})
	root = otelhttp.NewHandler(root, "payments-api")

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "fee_policy", cfg.FeePolicy, "conduit", cfg.Outbox.Conduit)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	cancelBg()
	wg.Wait()
	if clientAudit != nil {
		clientAudit.Stop()
	}
	if err := closeConduit(); err != nil {
		slog.Error("failed to close outbox conduit", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("failed to flush traces", "error", err)
	}
	slog.Info("server stopped")
}

func feePolicy(cfg *config.Config) domain.CancellationFeePolicy {
	if cfg.FeePolicy == config.FeePolicyFlat {
		return domain.NewFlatFeePolicy(cfg.FlatFee)
	}
	return domain.HourlyFeePolicy{}
}

type auditSubmitter interface {
	Submit(l audit.Lookup) bool
}

type noopAuditor struct{}

func (noopAuditor) Submit(audit.Lookup) bool { return false }

type expiredCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

func cleanIdempotencyCache(ctx context.Context, repo expiredCleaner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.CleanExpired(ctx)
			if err != nil && ctx.Err() == nil {
				slog.Error("idempotency cache cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("idempotency cache cleaned", "removed", n)
			}
		}
	}
}
