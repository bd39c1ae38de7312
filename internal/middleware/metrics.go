package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/josh-kwaku/payments-processing/internal/metrics"
)

// Metrics records request count and latency per route pattern. It must wrap
// the ServeMux directly: the mux sets r.Pattern on the request it is given.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.ObserveHTTP(r.Method, routeLabel(r), strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}

func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}
