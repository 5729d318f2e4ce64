package token

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimSet is the verified payload of a bearer token
type ClaimSet struct {
	Issuer    string
	Audience  []string
	Subject   string
	ExpiresAt time.Time
	NotBefore time.Time // zero when the token carries no nbf
	IssuedAt  time.Time // zero when the token carries no iat

	// Permissions is the token's permission list. HasPermissions is false when
	// the claim is absent, which is distinct from an empty list.
	Permissions    []string
	HasPermissions bool
}

// HasPermission reports whether perm is an exact member of the permission list
func (c *ClaimSet) HasPermission(perm string) bool {
	return slices.Contains(c.Permissions, perm)
}

// tokenClaims is the wire form of the payload
type tokenClaims struct {
	jwt.RegisteredClaims
	Permissions *[]string `json:"permissions,omitempty"`
}

func (c *tokenClaims) claimSet() *ClaimSet {
	set := &ClaimSet{
		Issuer:   c.Issuer,
		Audience: slices.Clone([]string(c.Audience)),
		Subject:  c.Subject,
	}
	if c.ExpiresAt != nil {
		set.ExpiresAt = c.ExpiresAt.Time
	}
	if c.NotBefore != nil {
		set.NotBefore = c.NotBefore.Time
	}
	if c.IssuedAt != nil {
		set.IssuedAt = c.IssuedAt.Time
	}
	if c.Permissions != nil {
		set.Permissions = slices.Clone(*c.Permissions)
		if set.Permissions == nil {
			set.Permissions = []string{}
		}
		set.HasPermissions = true
	}
	return set
}
