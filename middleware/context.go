package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Context key type to avoid collisions
type contextKey string

// RequestIDKey is the context key for request ID
const RequestIDKey contextKey = "request_id"

// GetRequestIDFromContext retrieves the request ID from context, falling back
// to the one chi's RequestID middleware assigned
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID ensures every request carries an ID, honouring X-Request-ID when
// the caller supplies one
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := r.Header.Get(chimw.RequestIDHeader)
		if requestID == "" {
			requestID = GetRequestIDFromContext(ctx)
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(chimw.RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(WithRequestID(ctx, requestID)))
	})
}
