package middleware

import (
	"net/http"
	"strings"

	"github.com/upb/casting-agency/autherr"
)

// bearerScheme is matched case-sensitively
const bearerScheme = "Bearer"

// ExtractBearerToken returns the raw token from the Authorization header.
// The header must be exactly "Bearer <token>"; the token is returned verbatim.
func ExtractBearerToken(h http.Header) (string, error) {
	values := h.Values("Authorization")
	if len(values) == 0 {
		return "", autherr.New(autherr.KindMissingCredential, nil)
	}
	if len(values) > 1 {
		return "", autherr.New(autherr.KindMalformedCredential, nil)
	}

	parts := strings.Fields(values[0])
	if len(parts) != 2 {
		return "", autherr.New(autherr.KindMalformedCredential, nil)
	}
	if parts[0] != bearerScheme {
		return "", autherr.New(autherr.KindUnsupportedScheme, nil)
	}

	return parts[1], nil
}
