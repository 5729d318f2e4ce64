package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGetRequestIDFromContext(t *testing.T) {
	assert.Empty(t, GetRequestIDFromContext(context.Background()))

	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestIDFromContext(ctx))

	chiCtx := context.WithValue(context.Background(), chimw.RequestIDKey, "chi-7")
	assert.Equal(t, "chi-7", GetRequestIDFromContext(chiCtx))
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestIDFromContext(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get(chimw.RequestIDHeader))
	})

	t.Run("propagated from header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(chimw.RequestIDHeader, "upstream-42")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "upstream-42", seen)
		assert.Equal(t, "upstream-42", w.Header().Get(chimw.RequestIDHeader))
	})
}
