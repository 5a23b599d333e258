package devidp

// Package devidp provides a simple, config-driven IdentityProvider for local
// development. It never talks to the network: the first login returns a
// two-factor challenge, and the canned OTP completes it.

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/business-hub/hub/internal/domain/auth"
	"github.com/business-hub/hub/internal/ports"
)

// Config controls the dev identity provider behavior.
type Config struct {
	Identifier string
	Email      string
	Role       string
	OTP        string // canned one-time code; empty disables the 2FA step
}

// Provider implements ports.IdentityProvider for local development.
type Provider struct {
	identity domainauth.Identity
	otp      string
}

var _ ports.IdentityProvider = (*Provider)(nil)

// devToken is the opaque bearer string the dev provider issues.
const devToken = "dev-token"

// NewProvider constructs a dev identity provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Identifier == "" {
		return nil, errors.New("dev idp: Identifier is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev idp: Email is required")
	}
	return &Provider{
		identity: domainauth.Identity{
			ID:          cfg.Identifier,
			Name:        cfg.Identifier,
			Email:       cfg.Email,
			Role:        domainauth.NormalizeRole(cfg.Role),
			AccessToken: devToken,
		},
		otp: cfg.OTP,
	}, nil
}

// Login accepts any password for the configured identifier. When an OTP is
// configured, the exchange stops at a two-factor challenge; the caller
// completes it through Resolve with the dev token.
func (p *Provider) Login(_ context.Context, creds ports.Credentials) (domainauth.Identity, error) {
	if creds.Identifier == "" || creds.Password == "" {
		return domainauth.Identity{}, domainauth.NewFailure(
			domainauth.FailureMissingCredentials, "identifier and password are required")
	}
	if creds.Identifier != p.identity.ID {
		return domainauth.Identity{}, domainauth.NewFailure(
			domainauth.FailureAuthError, fmt.Sprintf("unknown identifier %q", creds.Identifier))
	}

	if p.otp != "" {
		return domainauth.Identity{}, domainauth.TwoFARequired(&domainauth.TwoFactorChallenge{
			Message:     "enter the development one-time code",
			Actions:     []domainauth.ChallengeAction{domainauth.ActionSentEmail},
			Identifier:  creds.Identifier,
			CountryCode: creds.CountryCode,
		})
	}

	return p.identity, nil
}

// Resolve returns the configured identity for the dev token and a minimal
// identity for anything else, mirroring the production decoder's
// never-fails contract.
func (p *Provider) Resolve(_ context.Context, accessToken, identifier string) domainauth.Identity {
	if accessToken == devToken || accessToken == p.otp {
		return p.identity
	}
	return domainauth.MinimalIdentity(identifier, accessToken)
}

// Revoke is a no-op for the dev provider.
func (p *Provider) Revoke(_ context.Context, _ string) error { return nil }
