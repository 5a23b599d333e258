package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the identity-provider mode for the application.
type AuthMode string

const (
	// AuthModeREST exchanges credentials against the Business Hub identity API.
	AuthModeREST AuthMode = "rest"
	// AuthModeMock uses a config-driven local provider (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "rest", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: rest, mock)", v)
	}
}

// IdPConfig points at the external identity-provider REST API.
type IdPConfig struct {
	// BaseURL is the root of the identity API, e.g. "https://api.business-hub.example".
	// Login, user-info, and logout paths are resolved against it.
	BaseURL string `env:"BASE_URL"`

	// Timeout bounds every call to the provider.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// Platform is sent with every credential exchange when set.
	Platform string `env:"PLATFORM" envDefault:"web"`
}

// DevIdPConfig controls the mock provider identity.
// Used when AUTH_MODE=mock for development and testing.
type DevIdPConfig struct {
	Identifier string `env:"IDENTIFIER" envDefault:"dev-user"`
	Email      string `env:"EMAIL"      envDefault:"dev@business-hub.example"`
	Role       string `env:"ROLE"       envDefault:"admin"`
	// OTP is the canned one-time code the mock provider accepts.
	OTP string `env:"OTP" envDefault:"000000"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"rest"`

	// IdP configuration (used when Mode=rest).
	IdP IdPConfig `envPrefix:"IDP_"`

	// Dev configuration (used when Mode=mock).
	Dev DevIdPConfig `envPrefix:"DEV_IDP_"`

	// SessionMaxAge is the fixed maximum session lifetime.
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"720h"`

	// SessionRefreshAfter is the sliding update window: a session accessed
	// after this much time since its last refresh is silently extended.
	SessionRefreshAfter time.Duration `env:"SESSION_REFRESH_AFTER" envDefault:"24h"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionMaxAge <= 0 {
		a.SessionMaxAge = 720 * time.Hour
	}
	if a.SessionRefreshAfter <= 0 || a.SessionRefreshAfter > a.SessionMaxAge {
		a.SessionRefreshAfter = 24 * time.Hour
	}
	a.IdP.BaseURL = strings.TrimSuffix(strings.TrimSpace(a.IdP.BaseURL), "/")
}
