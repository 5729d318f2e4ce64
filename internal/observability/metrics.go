package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/upb/casting-agency/autherr"
)

// Metrics records authorization pipeline metrics.
//
// Implementations must be safe for concurrent use and must not panic.
type Metrics interface {
	// RecordDecision records one gate decision. kind is empty when access was granted.
	RecordDecision(ctx context.Context, permission string, kind autherr.Kind)

	// RecordKeySetRefresh records one key-set fetch and the number of keys it produced.
	RecordKeySetRefresh(ctx context.Context, keys int, err error)
}

type otelMetrics struct {
	decisions metric.Int64Counter
	refreshes metric.Int64Counter
	keys      metric.Int64Gauge
}

// NewMetrics creates Metrics backed by the given OpenTelemetry meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	decisions, err := meter.Int64Counter(
		"auth.gate.decisions",
		metric.WithDescription("Authorization decisions by outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	refreshes, err := meter.Int64Counter(
		"auth.jwks.refreshes",
		metric.WithDescription("Key-set fetches from the identity provider"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, err
	}

	keys, err := meter.Int64Gauge(
		"auth.jwks.keys",
		metric.WithDescription("Signing keys in the current key set"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		decisions: decisions,
		refreshes: refreshes,
		keys:      keys,
	}, nil
}

func (m *otelMetrics) RecordDecision(ctx context.Context, permission string, kind autherr.Kind) {
	outcome := "granted"
	if kind != "" {
		outcome = string(kind)
	}
	m.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("permission", permission),
		attribute.String("outcome", outcome),
	))
}

func (m *otelMetrics) RecordKeySetRefresh(ctx context.Context, keys int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if err == nil {
		m.keys.Record(ctx, int64(keys))
	}
}

type noopMetrics struct{}

// NoopMetrics returns Metrics that discard everything.
func NoopMetrics() Metrics {
	return noopMetrics{}
}

func (noopMetrics) RecordDecision(context.Context, string, autherr.Kind) {}

func (noopMetrics) RecordKeySetRefresh(context.Context, int, error) {}
