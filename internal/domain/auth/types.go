package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleClient    Role = "client"
	RoleStore     Role = "store"
	RoleDataEntry Role = "data-entry"
)

// knownRoles is the closed set of roles the provider may assign.
var knownRoles = map[Role]bool{
	RoleAdmin:     true,
	RoleClient:    true,
	RoleStore:     true,
	RoleDataEntry: true,
}

// NormalizeRole maps a raw role value from the provider into the closed role
// set. It lower-cases strings, takes the first element of list-valued roles,
// and falls back to RoleClient for absent or unknown values.
func NormalizeRole(raw any) Role {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case []string:
		if len(v) > 0 {
			s = v[0]
		}
	case []any:
		if len(v) > 0 {
			if str, ok := v[0].(string); ok {
				s = str
			}
		}
	}

	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if knownRoles[r] {
		return r
	}
	return RoleClient
}

// Identity represents the resolved principal after authentication completes.
// Adapters map provider-specific response shapes into this shape. A fresh
// Identity is produced on every login; it is never mutated afterwards.
type Identity struct {
	ID          string
	Name        string
	Email       string
	Role        Role
	AccessToken string // opaque bearer string, required
}

// MinimalIdentity builds an Identity from nothing but the login identifier.
// It is the terminal fallback when neither the user-info endpoint nor a
// local token decode yields a richer principal.
func MinimalIdentity(identifier, accessToken string) Identity {
	return Identity{
		ID:          identifier,
		Name:        identifier,
		Email:       identifier,
		Role:        RoleClient,
		AccessToken: accessToken,
	}
}

// Session lifetime defaults. The record lives at most MaxLifetime from its
// last refresh; a refresh happens at most once per RefreshWindow.
const (
	SessionMaxLifetime   = 30 * 24 * time.Hour
	SessionRefreshWindow = 24 * time.Hour
)

// Session is the server-side record persisted for an authenticated user.
// ID is an opaque session identifier carried in the session cookie. The
// record is the single source of truth for role-based authorization.
type Session struct {
	ID          string    `json:"id"`
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	IssuedAt    time.Time `json:"issued_at"`
	RefreshedAt time.Time `json:"refreshed_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry at the given time.
func (s Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }

// DueForRefresh reports whether the sliding-refresh window has elapsed since
// the session was last refreshed.
func (s Session) DueForRefresh(now time.Time, window time.Duration) bool {
	return now.Sub(s.RefreshedAt) >= window
}

// Profile is the user-facing part of a hydrated session. It deliberately
// excludes the access token so that logging a profile never leaks it.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// ClientSession is the shape exposed to UI code. The raw token appears only
// at the top level, never nested inside the profile.
type ClientSession struct {
	Token     string    `json:"token"`
	User      Profile   `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionPatch is the narrow update a client may request without a full
// re-login. Only the access token and role can change; nil fields are left
// untouched.
type SessionPatch struct {
	AccessToken *string
	Role        *Role
}

// LoginEvent is an audit record of a single credential-exchange attempt.
type LoginEvent struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Outcome    string    `json:"outcome"` // "success" or a FailureKind
	RemoteAddr string    `json:"remote_addr"`
	CreatedAt  time.Time `json:"created_at"`
}
