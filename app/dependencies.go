package app

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/upb/casting-agency/config"
	"github.com/upb/casting-agency/internal/observability"
	"github.com/upb/casting-agency/jwks"
	"github.com/upb/casting-agency/middleware"
	"github.com/upb/casting-agency/token"
)

// meterName scopes the instruments registered by this module
const meterName = "github.com/upb/casting-agency"

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Logger  *zap.Logger
	Metrics observability.Metrics

	// Auth
	KeySet   *jwks.Cache
	Verifier *token.Verifier
	Gate     *middleware.Gate
}

// NewDependencies creates and wires up all application dependencies.
// When logger is nil one is built from the observability configuration.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	if logger == nil {
		var err error
		logger, err = observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	if err := deps.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Initialize key set, verifier and gate
	deps.initAuth(cfg)

	// Optionally fetch the key set before serving
	if cfg.Auth.WarmKeySet {
		if err := deps.warmKeySet(ctx); err != nil {
			return nil, fmt.Errorf("failed to warm key set: %w", err)
		}
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initMetrics registers instruments on the global meter provider
func (d *Dependencies) initMetrics() error {
	metrics, err := observability.NewMetrics(otel.Meter(meterName))
	if err != nil {
		return err
	}
	d.Metrics = metrics
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	fetcher := jwks.NewHTTPFetcher(cfg.Auth.JWKSURL, &http.Client{Timeout: cfg.Auth.HTTPTimeout})
	d.KeySet = jwks.NewCache(fetcher, jwks.Config{
		CacheTTL:           cfg.Auth.CacheTTL,
		MinRefreshInterval: cfg.Auth.MinRefreshInterval,
		FetchTimeout:       cfg.Auth.HTTPTimeout,
	}, jwks.WithLogger(d.Logger), jwks.WithMetrics(d.Metrics))

	d.Verifier = token.NewVerifier(token.Config{
		Issuer:     cfg.Auth.Issuer(),
		Audience:   cfg.Auth.Audience,
		Algorithms: cfg.Auth.Algorithms,
		Leeway:     cfg.Auth.Leeway,
	}, d.KeySet)

	d.Gate = middleware.NewGate(d.Verifier, d.Logger, d.Metrics)

	d.Logger.Info("auth initialized",
		zap.String("issuer", cfg.Auth.Issuer()),
		zap.String("audience", cfg.Auth.Audience),
		zap.String("jwks_url", fetcher.URL()),
		zap.Strings("algorithms", cfg.Auth.Algorithms))
}

func (d *Dependencies) warmKeySet(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.Config.Auth.HTTPTimeout)
	defer cancel()

	set, err := d.KeySet.Refresh(ctx)
	if err != nil {
		return err
	}
	d.Logger.Info("key set warmed", zap.Int("keys", set.Len()))
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	// Sync logger
	_ = d.Logger.Sync()

	return nil
}
