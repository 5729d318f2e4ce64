package handlers

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/casting-agency/app"
	"github.com/upb/casting-agency/config"
	"github.com/upb/casting-agency/internal/testutil"
)

func newDeps(t *testing.T, server *testutil.JWKSServer) *app.Dependencies {
	t.Helper()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			Domain:      "casting-agency.test.auth0.com",
			Audience:    testutil.Audience,
			Algorithms:  []string{"RS256"},
			JWKSURL:     server.URL,
			CacheTTL:    time.Hour,
			HTTPTimeout: time.Second,
		},
	}
	deps, err := app.NewDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	return deps
}

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	HealthCheck()(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeHealth(t, w)
	assert.Equal(t, "ok", resp.Status)
	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)
}

func TestReadinessCheck(t *testing.T) {
	t.Run("fetches keys when the cache is empty", func(t *testing.T) {
		key := testutil.GenerateKey(t)
		server := testutil.NewJWKSServer(t, map[string]*rsa.PublicKey{"abc": &key.PublicKey})
		deps := newDeps(t, server)

		w := httptest.NewRecorder()
		ReadinessCheck(deps)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeHealth(t, w)
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, "loaded", resp.Checks["jwks"])
		assert.Equal(t, 1, server.Calls())

		// served from the cached set afterwards
		w = httptest.NewRecorder()
		ReadinessCheck(deps)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, server.Calls())
	})

	t.Run("identity provider unreachable", func(t *testing.T) {
		server := testutil.NewJWKSServer(t, nil)
		server.SetStatus(http.StatusInternalServerError)
		deps := newDeps(t, server)

		w := httptest.NewRecorder()
		ReadinessCheck(deps)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decodeHealth(t, w)
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "unavailable", resp.Checks["jwks"])
	})

	t.Run("empty key set", func(t *testing.T) {
		server := testutil.NewJWKSServer(t, map[string]*rsa.PublicKey{})
		deps := newDeps(t, server)

		w := httptest.NewRecorder()
		ReadinessCheck(deps)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "empty", decodeHealth(t, w).Checks["jwks"])
	})
}
