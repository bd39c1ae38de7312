package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/josh-kwaku/payments-processing/internal/auth"
	"github.com/josh-kwaku/payments-processing/internal/handler"
	"github.com/josh-kwaku/payments-processing/internal/logging"
	"github.com/josh-kwaku/payments-processing/internal/repository"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// reservationLease bounds how long a crashed request can hold a key.
const reservationLease = time.Minute

// IdempotencyStore is implemented by repository.IdempotencyRepository.
type IdempotencyStore interface {
	Reserve(ctx context.Context, k repository.IdempotencyKey, requestHash string, lease time.Duration) (bool, error)
	Get(ctx context.Context, k repository.IdempotencyKey) (*repository.IdempotencyCacheEntry, error)
	Complete(ctx context.Context, k repository.IdempotencyKey, statusCode int, body []byte, ttl time.Duration) error
	Release(ctx context.Context, k repository.IdempotencyKey) error
}

// Idempotency replays the stored response when a client repeats a write with
// the same Idempotency-Key on the same route. Reusing a key for a different
// request is a conflict. Writes without the header are rejected.
func Idempotency(repo IdempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return idempotency(repo, ttl, true)
}

// OptionalIdempotency behaves like Idempotency when the header is present and
// passes the request through untouched when it is not.
func OptionalIdempotency(repo IdempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return idempotency(repo, ttl, false)
}

func idempotency(repo IdempotencyStore, ttl time.Duration, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				if required {
					handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			clientID, ok := auth.ClientIDFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			log := logging.FromContext(r.Context())

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			k := repository.IdempotencyKey{Key: key, ClientID: clientID, Route: routeOf(r)}
			reqHash := computeHash(r.Method, r.URL.Path, body)

			reserved, err := repo.Reserve(r.Context(), k, reqHash, reservationLease)
			if err != nil {
				log.Error("idempotency reservation failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}

			if !reserved {
				replay(w, r, repo, k, reqHash)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			// The response is already written; a cancelled client must not
			// leave the reservation behind.
			ctx := context.WithoutCancel(r.Context())
			if !cacheable(rec.statusCode) {
				if err := repo.Release(ctx, k); err != nil {
					log.Error("idempotency release failed", "error", err, "idempotency_key", key)
				}
				return
			}
			if err := repo.Complete(ctx, k, rec.statusCode, rec.body.Bytes(), ttl); err != nil {
				log.Error("idempotency cache store failed", "error", err, "idempotency_key", key)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, repo IdempotencyStore, k repository.IdempotencyKey, reqHash string) {
	log := logging.FromContext(r.Context())

	cached, err := repo.Get(r.Context(), k)
	if err != nil {
		log.Error("idempotency cache lookup failed", "error", err, "idempotency_key", k.Key)
		handler.RespondAppError(w, handler.ErrInternalError, nil)
		return
	}

	switch {
	case cached == nil:
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
	case cached.RequestHash != reqHash:
		handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
	case !cached.Completed():
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Idempotent-Replayed", "true")
		w.WriteHeader(cached.StatusCode)
		if _, err := w.Write(cached.ResponseBody); err != nil {
			log.Error("failed to write idempotent replay", "error", err, "idempotency_key", k.Key)
		}
	}
}

// cacheable excludes server errors and 409s so a retry with the same key runs
// the request again.
func cacheable(status int) bool {
	return status < http.StatusInternalServerError && status != http.StatusConflict
}

func routeOf(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.Method + " " + r.URL.Path
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
