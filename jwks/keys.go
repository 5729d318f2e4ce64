// Package jwks fetches and caches the identity provider's public signing keys.
package jwks

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"
)

// Document is the JSON Web Key Set document served by the identity provider
type Document struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a single JSON Web Key entry of the document
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// SigningKey is an RSA public key published under a key identifier.
// It is immutable once parsed.
type SigningKey struct {
	KeyID     string
	KeyType   string
	Use       string
	Algorithm string
	PublicKey *rsa.PublicKey
}

// KeySet is an immutable snapshot of signing keys keyed by key identifier.
// A refresh replaces the whole set; a KeySet is never modified in place.
type KeySet struct {
	keys      map[string]SigningKey
	fetchedAt time.Time
}

// NewKeySet builds a key set from keys. Later keys win on duplicate identifiers.
func NewKeySet(keys []SigningKey, fetchedAt time.Time) *KeySet {
	m := make(map[string]SigningKey, len(keys))
	for _, k := range keys {
		m[k.KeyID] = k
	}
	return &KeySet{keys: m, fetchedAt: fetchedAt}
}

// Lookup returns the key registered under kid
func (s *KeySet) Lookup(kid string) (SigningKey, bool) {
	if s == nil || kid == "" {
		return SigningKey{}, false
	}
	k, ok := s.keys[kid]
	return k, ok
}

// Len returns the number of keys in the set
func (s *KeySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// KeyIDs returns the key identifiers in the set, sorted
func (s *KeySet) KeyIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.keys))
	for id := range s.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FetchedAt returns when the set was fetched
func (s *KeySet) FetchedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.fetchedAt
}

// SigningKeys converts the document into signing keys.
// Entries that are not RSA signature keys or that fail to decode are skipped.
func (d Document) SigningKeys() []SigningKey {
	keys := make([]SigningKey, 0, len(d.Keys))
	for _, jwk := range d.Keys {
		if jwk.Kty != "RSA" || jwk.Kid == "" {
			continue
		}
		if jwk.Use != "" && jwk.Use != "sig" {
			continue
		}
		pub, err := jwk.RSAPublicKey()
		if err != nil {
			continue
		}
		keys = append(keys, SigningKey{
			KeyID:     jwk.Kid,
			KeyType:   jwk.Kty,
			Use:       jwk.Use,
			Algorithm: jwk.Alg,
			PublicKey: pub,
		})
	}
	return keys
}

// RSAPublicKey decodes the base64url modulus and exponent of the key
func (j JWK) RSAPublicKey() (*rsa.PublicKey, error) {
	if j.N == "" {
		return nil, errors.New("missing n parameter")
	}
	if j.E == "" {
		return nil, errors.New("missing e parameter")
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	if n.Sign() == 0 {
		return nil, errors.New("zero modulus")
	}
	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("unsupported exponent %s", e)
	}

	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}
