package main

import (
	"net/http"
	"time"

	"github.com/josh-kwaku/payments-processing/api"
	"github.com/josh-kwaku/payments-processing/internal/handler"
	"github.com/josh-kwaku/payments-processing/internal/metrics"
	"github.com/josh-kwaku/payments-processing/internal/middleware"
)

type routeDeps struct {
	payments       *handler.PaymentHandler
	health         *handler.HealthHandler
	idempotency    middleware.IdempotencyStore
	idempotencyTTL time.Duration
	jwtSecret      string
	auditor        auditSubmitter
}

// newRouter builds the API mux and the middleware chain shared by every
// route. Payment creation requires an Idempotency-Key; cancellation accepts
// one.
func newRouter(d routeDeps) http.Handler {
	authMW := middleware.Auth(d.jwtSecret)
	auditMW := middleware.ClientAudit(d.auditor)
	requireKey := middleware.Idempotency(d.idempotency, d.idempotencyTTL)
	optionalKey := middleware.OptionalIdempotency(d.idempotency, d.idempotencyTTL)

	read := func(h http.HandlerFunc) http.Handler {
		return authMW(auditMW(h))
	}
	create := func(h http.HandlerFunc) http.Handler {
		return authMW(auditMW(requireKey(h)))
	}
	update := func(h http.HandlerFunc) http.Handler {
		return authMW(auditMW(optionalKey(h)))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", d.health.Liveness)
	mux.HandleFunc("GET /ready", d.health.Readiness)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /docs", handler.ServeDocs())
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(api.OpenAPI))

	mux.Handle("POST /api/v1/payments", create(d.payments.CreatePayment))
	mux.Handle("GET /api/v1/payments", read(d.payments.ListActivePayments))
	mux.Handle("PUT /api/v1/payments/{id}/cancellation", update(d.payments.CancelPayment))
	mux.Handle("GET /api/v1/payments/{id}/cancellation", read(d.payments.GetCancellationFee))

	var root http.Handler = middleware.Metrics(mux)
	root = middleware.Recovery(root)
	root = middleware.Logging(root)
	root = middleware.Correlation(root)
	return root
}
