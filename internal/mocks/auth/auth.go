package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"

	domainauth "github.com/business-hub/hub/internal/domain/auth"
	"github.com/business-hub/hub/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider   = (*MockIdentityProvider)(nil)
	_ ports.SessionStore       = (*MemorySessionStore)(nil)
	_ ports.LoginEventRecorder = (*MemoryEventRecorder)(nil)
)

// MockIdentityProvider simulates the identity API for tests. Individual calls
// can be overridden with the Func fields; otherwise the deterministic
// defaults apply.
type MockIdentityProvider struct {
	LoginFunc   func(ctx context.Context, creds ports.Credentials) (domainauth.Identity, error)
	ResolveFunc func(ctx context.Context, accessToken, identifier string) domainauth.Identity
	RevokeFunc  func(ctx context.Context, accessToken string) error

	// DefaultIdentity is returned by Login/Resolve when no Func override is set.
	DefaultIdentity domainauth.Identity

	// RevokedTokens records every token passed to Revoke.
	RevokedTokens []string
}

// NewMockIdentityProvider creates a MockIdentityProvider with sensible defaults.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		DefaultIdentity: domainauth.Identity{
			ID:          "mock-user-1",
			Name:        "Mock User",
			Email:       "mock.user@example.com",
			Role:        domainauth.RoleClient,
			AccessToken: "mock-token",
		},
	}
}

func (m *MockIdentityProvider) Login(
	ctx context.Context,
	creds ports.Credentials,
) (domainauth.Identity, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	if creds.Identifier == "" || creds.Password == "" {
		return domainauth.Identity{}, domainauth.NewFailure(
			domainauth.FailureMissingCredentials, "identifier and password are required")
	}
	return m.DefaultIdentity, nil
}

func (m *MockIdentityProvider) Resolve(ctx context.Context, accessToken, identifier string) domainauth.Identity {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, accessToken, identifier)
	}
	identity := m.DefaultIdentity
	identity.AccessToken = accessToken
	return identity
}

func (m *MockIdentityProvider) Revoke(ctx context.Context, accessToken string) error {
	m.RevokedTokens = append(m.RevokedTokens, accessToken)
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, accessToken)
	}
	return nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	sessions map[string]domainauth.Session

	// SaveErr and DeleteErr, when set, are returned by the respective calls.
	SaveErr   error
	DeleteErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if sess.ID == "" {
		return ErrNotFound
	}
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int { return len(m.sessions) }

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// MemoryEventRecorder collects login events in memory.
type MemoryEventRecorder struct {
	Events    []domainauth.LoginEvent
	RecordErr error
}

func (m *MemoryEventRecorder) Record(_ context.Context, ev domainauth.LoginEvent) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Events = append(m.Events, ev)
	return nil
}
