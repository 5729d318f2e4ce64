// Package testutil provides RSA key, JWKS server and token helpers for tests.
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/upb/casting-agency/jwks"
)

const (
	// Issuer is the expected issuer used across tests
	Issuer = "https://casting-agency.test.auth0.com/"
	// Audience is the expected audience used across tests
	Audience = "casting-agency"
)

// GenerateKey returns a fresh 2048-bit RSA key
func GenerateKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// JWK converts a public key into its JWKS entry
func JWK(kid string, pub *rsa.PublicKey) jwks.JWK {
	return jwks.JWK{
		Kid: kid,
		Kty: "RSA",
		Alg: "RS256",
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// JWKSServer is an httptest server publishing a replaceable JWKS document
type JWKSServer struct {
	*httptest.Server

	mu     sync.RWMutex
	doc    jwks.Document
	status int
	calls  atomic.Int64
}

// NewJWKSServer starts a server publishing keys, closed when the test ends
func NewJWKSServer(t testing.TB, keys map[string]*rsa.PublicKey) *JWKSServer {
	t.Helper()
	s := &JWKSServer{status: http.StatusOK}
	s.SetKeys(keys)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		s.mu.RLock()
		status, doc := s.status, s.doc
		s.mu.RUnlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(s.Close)
	return s
}

// SetKeys replaces the published keys (simulates rotation)
func (s *JWKSServer) SetKeys(keys map[string]*rsa.PublicKey) {
	doc := jwks.Document{Keys: make([]jwks.JWK, 0, len(keys))}
	for kid, pub := range keys {
		doc.Keys = append(doc.Keys, JWK(kid, pub))
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
}

// SetStatus makes the server answer with status instead of the document
func (s *JWKSServer) SetStatus(status int) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Calls returns how many times the document was requested
func (s *JWKSServer) Calls() int {
	return int(s.calls.Load())
}

// Claims returns a valid claim set for Issuer/Audience expiring in an hour
func Claims(permissions ...string) jwt.MapClaims {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": Issuer,
		"aud": []string{Audience},
		"sub": "auth0|actor-director",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	if permissions != nil {
		claims["permissions"] = permissions
	}
	return claims
}

// Sign signs claims with key under kid using RS256
func Sign(t testing.TB, key *rsa.PrivateKey, kid string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

// SignWith signs claims using method and key material of the caller's choice
func SignWith(t testing.TB, method jwt.SigningMethod, key any, kid string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}
