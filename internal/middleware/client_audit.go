package middleware

import (
	"net"
	"net/http"

	"github.com/josh-kwaku/payments-processing/internal/audit"
	"github.com/josh-kwaku/payments-processing/internal/auth"
)

type auditSubmitter interface {
	Submit(l audit.Lookup) bool
}

// ClientAudit hands the caller's address to the audit pool and carries on
// without waiting for the lookup.
func ClientAudit(auditor auditSubmitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, _ := auth.ClientIDFromContext(r.Context())
			auditor.Submit(audit.Lookup{
				IP:            remoteIP(r.RemoteAddr),
				CorrelationID: CorrelationIDFromContext(r.Context()),
				ClientID:      clientID,
			})
			next.ServeHTTP(w, r)
		})
	}
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
