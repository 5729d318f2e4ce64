// Package permissions decides whether verified claims grant a required permission.
package permissions

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/upb/casting-agency/autherr"
	"github.com/upb/casting-agency/token"
)

// AuthContext is the proof of authorization handed to a protected operation.
// It is only built by Check and is never mutated afterwards.
type AuthContext struct {
	Claims     token.ClaimSet
	Permission string    // empty when the operation requires no permission
	DecisionID uuid.UUID // correlates the decision with its log line
}

// Subject returns the token subject that was authorized
func (a AuthContext) Subject() string {
	return a.Claims.Subject
}

// Check verifies that claims carry the required permission.
//
// An empty required permission always succeeds. Membership is an exact,
// case-sensitive string match against the permissions claim.
func Check(required string, claims *token.ClaimSet) (AuthContext, error) {
	if claims == nil {
		return AuthContext{}, autherr.New(autherr.KindPermissionsClaimMissing, nil)
	}
	if required == "" {
		return newAuthContext(claims, required), nil
	}
	if !claims.HasPermissions {
		return AuthContext{}, autherr.New(autherr.KindPermissionsClaimMissing, nil)
	}
	if !claims.HasPermission(required) {
		return AuthContext{}, autherr.New(autherr.KindPermissionDenied,
			fmt.Errorf("permission %q not granted", required))
	}
	return newAuthContext(claims, required), nil
}

func newAuthContext(claims *token.ClaimSet, permission string) AuthContext {
	c := *claims
	c.Audience = append([]string(nil), claims.Audience...)
	if claims.Permissions != nil {
		c.Permissions = append([]string{}, claims.Permissions...)
	}
	return AuthContext{
		Claims:     c,
		Permission: permission,
		DecisionID: uuid.New(),
	}
}
