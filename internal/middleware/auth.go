package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/payments-processing/internal/auth"
	"github.com/josh-kwaku/payments-processing/internal/handler"
	"github.com/josh-kwaku/payments-processing/internal/logging"
)

func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				logging.FromContext(r.Context()).Warn("token rejected", "error", err)
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithClientID(r.Context(), claims.ClientID)
			ctx, logger := logging.With(ctx, "client_id", claims.ClientID)
			if h := requestLoggerFromContext(ctx); h != nil {
				h.logger = logger
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
