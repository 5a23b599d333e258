package bootstrap

import (
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/business-hub/hub/config"
	"github.com/business-hub/hub/internal/adapters/devidp"
	"github.com/business-hub/hub/internal/adapters/idp"
	redisstore "github.com/business-hub/hub/internal/adapters/redis"
	"github.com/business-hub/hub/internal/observability/statsd"
	"github.com/business-hub/hub/internal/ports"
	"github.com/business-hub/hub/internal/service"
)

// AuthDeps groups the dependencies for building the auth service.
type AuthDeps struct {
	Config      *config.AppConfig
	RedisClient goredis.UniversalClient
	Events      ports.LoginEventRecorder // optional
	Metrics     statsd.Sink              // optional
	Logger      *slog.Logger
}

// BuildAuthService wires the identity provider selected by AUTH_MODE, the
// Redis session store, and the lifecycle options into an AuthService.
func BuildAuthService(deps AuthDeps) (*service.AuthService, error) {
	provider, err := buildIdentityProvider(deps.Config, deps.Logger)
	if err != nil {
		return nil, err
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider:      provider,
		Sessions:      redisstore.NewSessionStore(deps.RedisClient),
		Events:        deps.Events,
		Metrics:       deps.Metrics,
		Logger:        deps.Logger,
		MaxLifetime:   deps.Config.Auth.SessionMaxAge,
		RefreshWindow: deps.Config.Auth.SessionRefreshAfter,
	}), nil
}

//nolint:ireturn // the provider implementation is selected at runtime by config.
func buildIdentityProvider(cfg *config.AppConfig, logger *slog.Logger) (ports.IdentityProvider, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		provider, err := devidp.NewProvider(devidp.Config{
			Identifier: cfg.Auth.Dev.Identifier,
			Email:      cfg.Auth.Dev.Email,
			Role:       cfg.Auth.Dev.Role,
			OTP:        cfg.Auth.Dev.OTP,
		})
		if err != nil {
			return nil, fmt.Errorf("build dev identity provider: %w", err)
		}
		if logger != nil {
			logger.Warn("using mock identity provider; do not use in production")
		}
		return provider, nil
	case config.AuthModeREST:
		provider, err := idp.NewProvider(idp.ProviderConfig{
			BaseURL: cfg.Auth.IdP.BaseURL,
			Timeout: cfg.Auth.IdP.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build identity provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}

// BuildMetrics constructs the StatsD sink from config. Returns a disabled
// client when metrics are off so callers never branch.
func BuildMetrics(cfg *config.AppConfig, logger *slog.Logger) (*statsd.Client, error) {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Observability.StatsDEnabled,
		Address: cfg.Observability.StatsDAddress,
		Prefix:  cfg.Observability.StatsDPrefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build statsd client: %w", err)
	}
	return client, nil
}
