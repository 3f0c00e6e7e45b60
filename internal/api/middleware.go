package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stakewatch/passport-node/internal/log"
)

// LogMiddleware returns a middleware that adds general log configuration to each context request
func LogMiddleware(ctx context.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqCtx := log.With(log.CopyFromContext(ctx, r.Context()), "req-id", middleware.GetReqID(r.Context()))
			next.ServeHTTP(w, r.WithContext(reqCtx))
		})
	}
}
