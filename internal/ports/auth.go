package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/business-hub/hub/internal/domain/auth"
)

// Credentials carries a login submission. Identifier and Password are
// required for a credential exchange; the remaining fields are contextual
// and are sent to the provider only when non-empty.
type Credentials struct {
	Identifier    string
	Password      string
	CountryCode   string
	Platform      string
	ClientInfo    string
	FirebaseToken string
}

// IdentityProvider exchanges credentials or tokens for an Identity against
// the external identity API.
type IdentityProvider interface {
	// Login performs the credential exchange and classifies the response.
	// Any non-success outcome is returned as a *domainauth.Failure; callers
	// recover the classification with errors.As.
	Login(ctx context.Context, creds Credentials) (domainauth.Identity, error)

	// Resolve turns an already-issued bearer token into an Identity. It
	// never fails: when the authoritative user-info call and the local
	// token decode both degrade, it falls back to an identifier-only
	// Identity.
	Resolve(ctx context.Context, accessToken, identifier string) domainauth.Identity

	// Revoke invalidates the token server-side. Best-effort: callers treat
	// a returned error as log-only.
	Revoke(ctx context.Context, accessToken string) error
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// LoginEventRecorder appends credential-exchange outcomes to the audit trail.
type LoginEventRecorder interface {
	Record(ctx context.Context, ev domainauth.LoginEvent) error
}
