package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/business-hub/hub/internal/domain/auth"
	"github.com/business-hub/hub/internal/observability/statsd"
	"github.com/business-hub/hub/internal/ports"
)

// ErrSessionExpired is returned when a session exists but has passed its expiry.
var ErrSessionExpired = errors.New("session expired")

// revokeTimeout bounds the best-effort provider logout call.
const revokeTimeout = 5 * time.Second

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.IdentityProvider
	Sessions ports.SessionStore
	Events   ports.LoginEventRecorder // optional audit trail
	Metrics  statsd.Sink              // optional
	Logger   *slog.Logger             // optional

	// MaxLifetime and RefreshWindow default to the domain constants when zero.
	MaxLifetime   time.Duration
	RefreshWindow time.Duration
}

// AuthService orchestrates the authentication lifecycle: credential
// exchange, token handoff after OTP, session projection and hydration,
// sliding refresh, and logout.
type AuthService struct {
	provider ports.IdentityProvider
	sessions ports.SessionStore
	events   ports.LoginEventRecorder
	metrics  statsd.Sink
	logger   *slog.Logger

	maxLifetime   time.Duration
	refreshWindow time.Duration

	now func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxLifetime := opts.MaxLifetime
	if maxLifetime <= 0 {
		maxLifetime = domainauth.SessionMaxLifetime
	}
	refreshWindow := opts.RefreshWindow
	if refreshWindow <= 0 {
		refreshWindow = domainauth.SessionRefreshWindow
	}

	return &AuthService{
		provider:      opts.Provider,
		sessions:      opts.Sessions,
		events:        opts.Events,
		metrics:       opts.Metrics,
		logger:        logger,
		maxLifetime:   maxLifetime,
		refreshWindow: refreshWindow,
		now:           time.Now,
	}
}

// LoginInput carries a credential submission plus request context for the
// audit trail.
type LoginInput struct {
	Credentials ports.Credentials
	RemoteAddr  string
}

// LoginResult contains the session issued by a completed login.
type LoginResult struct {
	Session domainauth.Session
}

// Login performs the credential exchange and, on success, projects the
// resolved identity into a fresh persisted session. Classified failures
// (including the two-factor next step) surface as *domainauth.Failure.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	identity, err := s.provider.Login(ctx, input.Credentials)
	s.recordOutcome(ctx, input.Credentials.Identifier, input.RemoteAddr, err)
	if err != nil {
		return nil, err
	}

	session, err := s.project(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: session}, nil
}

// TokenHandoffInput completes authentication after an OTP step: the caller
// already holds a provider-issued access token.
type TokenHandoffInput struct {
	AccessToken string
	Identifier  string
	RemoteAddr  string
}

// CompleteLogin resolves a caller-supplied token into an identity and issues
// a session, skipping the credential exchange entirely.
func (s *AuthService) CompleteLogin(ctx context.Context, input TokenHandoffInput) (*LoginResult, error) {
	if input.AccessToken == "" {
		return nil, domainauth.NewFailure(
			domainauth.FailureMissingCredentials, "access token is required")
	}

	identity := s.provider.Resolve(ctx, input.AccessToken, input.Identifier)
	s.recordOutcome(ctx, input.Identifier, input.RemoteAddr, nil)

	session, err := s.project(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: session}, nil
}

// project copies the identity verbatim into a fresh persisted session record.
func (s *AuthService) project(ctx context.Context, identity domainauth.Identity) (domainauth.Session, error) {
	now := s.now()
	session := domainauth.Session{
		ID:          uuid.New().String(),
		AccessToken: identity.AccessToken,
		UserID:      identity.ID,
		Name:        identity.Name,
		Email:       identity.Email,
		Role:        identity.Role,
		IssuedAt:    now,
		RefreshedAt: now,
		ExpiresAt:   now.Add(s.maxLifetime),
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID, applying the sliding refresh: a
// session accessed after the refresh window is silently extended to a full
// lifetime from now. Expired sessions are torn down and reported as such.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	now := s.now()
	if session.Expired(now) {
		if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", delErr))
		}
		return nil, ErrSessionExpired
	}

	if session.DueForRefresh(now, s.refreshWindow) {
		session.RefreshedAt = now
		session.ExpiresAt = now.Add(s.maxLifetime)
		if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
			// The session is still valid; a failed refresh only shortens it.
			s.logger.WarnContext(ctx, "session refresh failed", "error", saveErr)
		} else {
			s.count("auth.session.refresh", nil)
		}
	}

	return &session, nil
}

// UpdateSession applies the narrow patch (access token and role only) to an
// existing session and persists it.
func (s *AuthService) UpdateSession(
	ctx context.Context,
	sessionID string,
	patch domainauth.SessionPatch,
) (*domainauth.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if patch.AccessToken != nil {
		session.AccessToken = *patch.AccessToken
	}
	if patch.Role != nil {
		session.Role = *patch.Role
	}

	if err := s.sessions.Save(ctx, *session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Hydrate projects the persisted record into the client-visible shape. The
// token appears only at the top level, never inside the profile.
func (s *AuthService) Hydrate(session domainauth.Session) domainauth.ClientSession {
	return domainauth.ClientSession{
		Token: session.AccessToken,
		User: domainauth.Profile{
			ID:    session.UserID,
			Name:  session.Name,
			Email: session.Email,
			Role:  session.Role,
		},
		ExpiresAt: session.ExpiresAt,
	}
}

// Logout tears down the session. The provider-side token revocation is
// best-effort: its failure is logged and never blocks the local teardown.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to log out
	}

	if session, err := s.sessions.Get(ctx, sessionID); err == nil {
		revokeCtx, cancel := context.WithTimeout(ctx, revokeTimeout)
		if revokeErr := s.provider.Revoke(revokeCtx, session.AccessToken); revokeErr != nil {
			s.logger.WarnContext(ctx, "provider token revocation failed", "error", revokeErr)
		}
		cancel()
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// recordOutcome appends the exchange result to the audit trail and counts it.
// Both are best-effort.
func (s *AuthService) recordOutcome(ctx context.Context, identifier, remoteAddr string, result error) {
	outcome := "success"
	var failure *domainauth.Failure
	if errors.As(result, &failure) {
		outcome = string(failure.Kind)
	} else if result != nil {
		outcome = string(domainauth.FailureAuthFailed)
	}

	if outcome == "success" {
		s.count("auth.login.success", nil)
	} else {
		s.count("auth.login.failure", map[string]string{"kind": outcome})
	}

	if s.events == nil {
		return
	}
	ev := domainauth.LoginEvent{
		Identifier: identifier,
		Outcome:    outcome,
		RemoteAddr: remoteAddr,
		CreatedAt:  s.now(),
	}
	if err := s.events.Record(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "record login event failed",
			"identifier", identifier, "outcome", outcome, "error", err)
	}
}

func (s *AuthService) count(name string, tags map[string]string) {
	if s.metrics != nil {
		s.metrics.Count(name, 1, tags)
	}
}
