package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/josh-kwaku/payments-processing/internal/logging"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type pendingCounter interface {
	CountPending(ctx context.Context) (int64, error)
}

type HealthHandler struct {
	db     pinger
	outbox pendingCounter
}

func NewHealthHandler(db pinger, outbox pendingCounter) *HealthHandler {
	return &HealthHandler{db: db, outbox: outbox}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness fails only when the database is unreachable. The outbox backlog
// is reported for operators but never makes the service unready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	checks := map[string]any{"database": "ok"}
	httpStatus := http.StatusOK

	if err := h.db.PingContext(r.Context()); err != nil {
		log.Warn("readiness check failed: database unreachable", "error", err)
		checks["database"] = "down"
		httpStatus = http.StatusServiceUnavailable
	} else if h.outbox != nil {
		if n, err := h.outbox.CountPending(r.Context()); err != nil {
			log.Warn("readiness check: outbox count failed", "error", err)
		} else {
			checks["outbox_pending"] = n
		}
	}

	overallStatus := "ok"
	if httpStatus != http.StatusOK {
		overallStatus = "down"
	}

	RespondJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
