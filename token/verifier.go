// Package token verifies bearer tokens issued by the identity provider.
package token

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/upb/casting-agency/autherr"
	"github.com/upb/casting-agency/jwks"
)

// DefaultAlgorithms is the signing algorithm allow-list used when none is configured
var DefaultAlgorithms = []string{"RS256"}

// KeyResolver resolves a key identifier to a signing key
type KeyResolver interface {
	Resolve(ctx context.Context, kid string) (jwks.SigningKey, error)
}

// Config holds the expected token parameters
type Config struct {
	// Issuer must equal the iss claim exactly.
	Issuer string

	// Audience must be one of the aud claim values.
	Audience string

	// Algorithms is the allow-list of signing algorithms.
	// Default: RS256
	Algorithms []string

	// Leeway is the clock skew tolerated on exp and nbf.
	Leeway time.Duration
}

// Option customizes a Verifier
type Option func(*Verifier)

// WithClock overrides the time source used for exp/nbf checks
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

// Verifier validates a raw token's signature and standard claims.
// It holds no per-token state and is safe for concurrent use.
type Verifier struct {
	config   Config
	resolver KeyResolver
	now      func() time.Time
}

// NewVerifier creates a verifier resolving keys through resolver
func NewVerifier(config Config, resolver KeyResolver, opts ...Option) *Verifier {
	if len(config.Algorithms) == 0 {
		config.Algorithms = DefaultAlgorithms
	}
	config.Algorithms = slices.Clone(config.Algorithms)

	v := &Verifier{
		config:   config,
		resolver: resolver,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks raw and returns its claims.
//
// The header is decoded without trusting it to pick the key; the algorithm must
// be on the allow-list before any key is looked up. Key-set failures from the
// resolver are returned unchanged. Nothing is retried.
func (v *Verifier) Verify(ctx context.Context, raw string) (*ClaimSet, error) {
	kid, alg, err := v.inspectHeader(raw)
	if err != nil {
		return nil, err
	}

	key, err := v.resolver.Resolve(ctx, kid)
	if err != nil {
		if autherr.KindOf(err) == "" {
			return nil, autherr.New(autherr.KindKeySetUnavailable, err)
		}
		return nil, err
	}
	if key.Algorithm != "" && key.Algorithm != alg {
		return nil, autherr.New(autherr.KindMalformedToken,
			fmt.Errorf("token alg %s does not match key alg %s", alg, key.Algorithm))
	}
	if key.PublicKey == nil {
		return nil, autherr.New(autherr.KindUnknownSigningKey, fmt.Errorf("kid %q has no public key", kid))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(v.config.Algorithms),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(v.config.Issuer),
		jwt.WithAudience(v.config.Audience),
		jwt.WithLeeway(v.config.Leeway),
		jwt.WithTimeFunc(v.now),
	)

	claims := &tokenClaims{}
	_, err = parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return key.PublicKey, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return claims.claimSet(), nil
}

// inspectHeader decodes the header without verifying anything and returns the
// key identifier and algorithm, rejecting algorithms outside the allow-list.
func (v *Verifier) inspectHeader(raw string) (string, string, error) {
	tok, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return "", "", autherr.New(autherr.KindMalformedToken, err)
	}

	alg, _ := tok.Header["alg"].(string)
	if !slices.Contains(v.config.Algorithms, alg) {
		return "", "", autherr.New(autherr.KindMalformedToken, fmt.Errorf("signing algorithm %q not allowed", alg))
	}

	kid, ok := tok.Header["kid"].(string)
	if !ok || kid == "" {
		return "", "", autherr.New(autherr.KindMalformedToken, errors.New("kid header not found"))
	}

	return kid, alg, nil
}

// classify maps parser failures onto the error taxonomy. Expiry wins over
// other claim failures.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return autherr.New(autherr.KindTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return autherr.New(autherr.KindInvalidClaims, err)
	default:
		return autherr.New(autherr.KindMalformedToken, err)
	}
}
