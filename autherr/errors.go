// Package autherr defines the failure taxonomy shared by every stage of the
// authorization pipeline. Each Kind carries a stable machine-readable code,
// a human description and the HTTP status the boundary renders it with.
package autherr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies one failure mode of the pipeline
type Kind string

const (
	KindMissingCredential       Kind = "missing_credential"
	KindMalformedCredential     Kind = "malformed_credential"
	KindUnsupportedScheme       Kind = "unsupported_scheme"
	KindMalformedToken          Kind = "malformed_token"
	KindKeySetUnavailable       Kind = "key_set_unavailable"
	KindUnknownSigningKey       Kind = "unknown_signing_key"
	KindTokenExpired            Kind = "token_expired"
	KindInvalidClaims           Kind = "invalid_claims"
	KindPermissionsClaimMissing Kind = "permissions_claim_missing"
	KindPermissionDenied        Kind = "permission_denied"
)

// descriptor is the wire rendering of a Kind
type descriptor struct {
	code        string
	description string
	status      int
}

var descriptors = map[Kind]descriptor{
	KindMissingCredential: {
		code:        "auth_header_missing",
		description: "No authorization header was found.",
		status:      http.StatusUnauthorized,
	},
	KindMalformedCredential: {
		code:        "auth_header_invalid",
		description: "Authorization header must contain the token type and the token.",
		status:      http.StatusUnauthorized,
	},
	KindUnsupportedScheme: {
		code:        "auth_header_invalid",
		description: "Authorization header must use a Bearer token.",
		status:      http.StatusUnauthorized,
	},
	KindMalformedToken: {
		code:        "invalid_header",
		description: "Unable to parse authentication token.",
		status:      http.StatusBadRequest,
	},
	KindKeySetUnavailable: {
		code:        "invalid_header",
		description: "Unable to fetch signing keys.",
		status:      http.StatusBadRequest,
	},
	KindUnknownSigningKey: {
		code:        "invalid_header",
		description: "Unable to find the appropriate key.",
		status:      http.StatusBadRequest,
	},
	KindTokenExpired: {
		code:        "token_expired",
		description: "Token expired.",
		status:      http.StatusUnauthorized,
	},
	KindInvalidClaims: {
		code:        "invalid_claims",
		description: "Incorrect claims. Please, check the audience and issuer.",
		status:      http.StatusUnauthorized,
	},
	KindPermissionsClaimMissing: {
		code:        "invalid_permission",
		description: "Permission was not specified in the token.",
		status:      http.StatusUnauthorized,
	},
	KindPermissionDenied: {
		code:        "unauthorized",
		description: "You cannot access to this feature.",
		status:      http.StatusUnauthorized,
	},
}

// Code returns the stable machine-readable code for the kind
func (k Kind) Code() string {
	if d, ok := descriptors[k]; ok {
		return d.code
	}
	return "unauthorized"
}

// Description returns the human-readable description for the kind
func (k Kind) Description() string {
	if d, ok := descriptors[k]; ok {
		return d.description
	}
	return "Authentication required."
}

// Status returns the HTTP status the kind is rendered with.
// Unknown kinds map to 401 so that nothing in this core surfaces as a 5xx.
func (k Kind) Status() int {
	if d, ok := descriptors[k]; ok {
		return d.status
	}
	return http.StatusUnauthorized
}

// Error is a pipeline failure of a specific Kind with an optional cause
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Kind.Description(), e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Kind.Description())
}

// Unwrap implements errors.Unwrap
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an error of the given kind wrapping cause (which may be nil)
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// Sentinels for errors.Is comparisons
var (
	ErrMissingCredential       = New(KindMissingCredential, nil)
	ErrMalformedCredential     = New(KindMalformedCredential, nil)
	ErrUnsupportedScheme       = New(KindUnsupportedScheme, nil)
	ErrMalformedToken          = New(KindMalformedToken, nil)
	ErrKeySetUnavailable       = New(KindKeySetUnavailable, nil)
	ErrUnknownSigningKey       = New(KindUnknownSigningKey, nil)
	ErrTokenExpired            = New(KindTokenExpired, nil)
	ErrInvalidClaims           = New(KindInvalidClaims, nil)
	ErrPermissionsClaimMissing = New(KindPermissionsClaimMissing, nil)
	ErrPermissionDenied        = New(KindPermissionDenied, nil)
)

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none
func KindOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf returns the HTTP status for err
func StatusOf(err error) int {
	return KindOf(err).Status()
}
