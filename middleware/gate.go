package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/casting-agency/autherr"
	"github.com/upb/casting-agency/internal/observability"
	"github.com/upb/casting-agency/permissions"
	"github.com/upb/casting-agency/token"
	"github.com/upb/casting-agency/utils"
)

// unclassified labels decisions that failed with an error outside the taxonomy
const unclassified autherr.Kind = "unclassified"

// TokenVerifier defines the interface for verifying bearer tokens
type TokenVerifier interface {
	// Verify validates a raw token and returns its claims
	Verify(ctx context.Context, raw string) (*token.ClaimSet, error)
}

// Operation is a protected unit of work. It only runs once authorization has
// succeeded and receives the resulting AuthContext.
type Operation func(w http.ResponseWriter, r *http.Request, authCtx permissions.AuthContext)

// Gate composes extraction, verification and the permission check in front
// of protected operations. It keeps no per-request state.
type Gate struct {
	verifier TokenVerifier
	logger   *zap.Logger
	metrics  observability.Metrics
}

// NewGate creates a new Gate
func NewGate(verifier TokenVerifier, logger *zap.Logger, metrics observability.Metrics) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics()
	}
	return &Gate{
		verifier: verifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// Authorize runs the pipeline for one request and stops at the first failure.
// Errors are returned exactly as the failing stage produced them.
func (g *Gate) Authorize(ctx context.Context, header http.Header, permission string) (permissions.AuthContext, error) {
	raw, err := ExtractBearerToken(header)
	if err != nil {
		return permissions.AuthContext{}, err
	}

	claims, err := g.verifier.Verify(ctx, raw)
	if err != nil {
		return permissions.AuthContext{}, err
	}

	return permissions.Check(permission, claims)
}

// Protect returns a handler that runs op only when the request is authorized
// for permission. An empty permission requires a valid token and nothing else.
func (g *Gate) Protect(permission string, op Operation) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		authCtx, err := g.Authorize(ctx, r.Header, permission)
		if err != nil {
			kind := autherr.KindOf(err)
			if kind == "" {
				g.logger.Error("authorization failed with unclassified error",
					zap.String("request_id", requestID),
					zap.String("required_permission", permission),
					zap.Error(err))
				g.metrics.RecordDecision(ctx, permission, unclassified)
			} else {
				g.logger.Warn("authorization denied",
					zap.String("request_id", requestID),
					zap.String("kind", string(kind)),
					zap.String("code", kind.Code()),
					zap.String("required_permission", permission),
					zap.Error(err))
				g.metrics.RecordDecision(ctx, permission, kind)
			}
			_ = utils.WriteAuthError(w, err)
			return
		}

		g.metrics.RecordDecision(ctx, permission, "")
		g.logger.Debug("authorization granted",
			zap.String("request_id", requestID),
			zap.String("sub", authCtx.Subject()),
			zap.String("required_permission", permission),
			zap.String("decision_id", authCtx.DecisionID.String()))

		op(w, r, authCtx)
	})
}
