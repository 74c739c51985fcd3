package server

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds request handling by cancelling the context
// after the given duration. Handlers cooperate by passing the request
// context into their outbound calls.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
