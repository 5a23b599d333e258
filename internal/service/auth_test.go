package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/business-hub/hub/internal/domain/auth"
	"github.com/business-hub/hub/internal/mocks"
	mockauth "github.com/business-hub/hub/internal/mocks/auth"
	"github.com/business-hub/hub/internal/ports"
	"github.com/business-hub/hub/internal/testutil"
)

func validCreds() ports.Credentials {
	return ports.Credentials{Identifier: "user@example.com", Password: "secret"}
}

type authFixture struct {
	svc      *AuthService
	provider *mockauth.MockIdentityProvider
	sessions *mockauth.MemorySessionStore
	events   *mockauth.MemoryEventRecorder
	now      time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		provider: mockauth.NewMockIdentityProvider(),
		sessions: mockauth.NewMemorySessionStore(),
		events:   &mockauth.MemoryEventRecorder{},
		now:      testutil.TestTime(),
	}
	f.svc = NewAuthService(AuthServiceOptions{
		Provider: f.provider,
		Sessions: f.sessions,
		Events:   f.events,
	})
	f.svc.now = testutil.FixedTimeFunc(f.now)
	return f
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Login(context.Background(), LoginInput{
		Credentials: validCreds(),
		RemoteAddr:  "203.0.113.9",
	})
	require.NoError(t, err)

	sess := result.Session
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "mock-user-1", sess.UserID)
	assert.Equal(t, "mock-token", sess.AccessToken)
	assert.Equal(t, domainauth.RoleClient, sess.Role)
	assert.Equal(t, f.now, sess.IssuedAt)
	assert.Equal(t, f.now, sess.RefreshedAt)
	assert.Equal(t, f.now.Add(domainauth.SessionMaxLifetime), sess.ExpiresAt)

	stored, err := f.sessions.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess, stored)

	require.Len(t, f.events.Events, 1)
	assert.Equal(t, "success", f.events.Events[0].Outcome)
	assert.Equal(t, "203.0.113.9", f.events.Events[0].RemoteAddr)
}

func TestLogin_FailurePassesThrough(t *testing.T) {
	f := newAuthFixture(t)
	f.provider.LoginFunc = func(ctx context.Context, creds ports.Credentials) (domainauth.Identity, error) {
		return domainauth.Identity{}, domainauth.NewFailure(domainauth.FailureAuthError, "bad password")
	}

	_, err := f.svc.Login(context.Background(), LoginInput{Credentials: validCreds()})

	var failure *domainauth.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, domainauth.FailureAuthError, failure.Kind)

	assert.Zero(t, f.sessions.Len(), "no session on a failed exchange")
	require.Len(t, f.events.Events, 1)
	assert.Equal(t, string(domainauth.FailureAuthError), f.events.Events[0].Outcome)
}

func TestLogin_TwoFactorIsNotProjected(t *testing.T) {
	f := newAuthFixture(t)
	f.provider.LoginFunc = func(ctx context.Context, creds ports.Credentials) (domainauth.Identity, error) {
		return domainauth.Identity{}, domainauth.TwoFARequired(&domainauth.TwoFactorChallenge{
			Actions:    []domainauth.ChallengeAction{domainauth.ActionSentSMS},
			Identifier: creds.Identifier,
		})
	}

	_, err := f.svc.Login(context.Background(), LoginInput{Credentials: validCreds()})

	var failure *domainauth.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, domainauth.FailureTwoFARequired, failure.Kind)
	assert.Zero(t, f.sessions.Len())
}

func TestCompleteLogin(t *testing.T) {
	t.Run("resolves token and projects session", func(t *testing.T) {
		f := newAuthFixture(t)

		result, err := f.svc.CompleteLogin(context.Background(), TokenHandoffInput{
			AccessToken: "otp-token",
			Identifier:  "user@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "otp-token", result.Session.AccessToken)
		assert.Equal(t, 1, f.sessions.Len())
	})

	t.Run("empty token is missing credentials", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.CompleteLogin(context.Background(), TokenHandoffInput{Identifier: "user@example.com"})

		var failure *domainauth.Failure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, domainauth.FailureMissingCredentials, failure.Kind)
	})
}

func TestGetSession_SlidingRefresh(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Login(context.Background(), LoginInput{Credentials: validCreds()})
	require.NoError(t, err)
	sessionID := result.Session.ID

	t.Run("inside the window nothing changes", func(t *testing.T) {
		f.svc.now = testutil.FixedTimeFunc(f.now.Add(23 * time.Hour))

		got, err := f.svc.GetSession(context.Background(), sessionID)
		require.NoError(t, err)
		assert.Equal(t, f.now, got.RefreshedAt)
		assert.Equal(t, f.now.Add(domainauth.SessionMaxLifetime), got.ExpiresAt)
	})

	t.Run("past the window the session is extended", func(t *testing.T) {
		accessTime := f.now.Add(25 * time.Hour)
		f.svc.now = testutil.FixedTimeFunc(accessTime)

		got, err := f.svc.GetSession(context.Background(), sessionID)
		require.NoError(t, err)
		assert.Equal(t, accessTime, got.RefreshedAt)
		assert.Equal(t, accessTime.Add(domainauth.SessionMaxLifetime), got.ExpiresAt)

		// The extension is persisted.
		stored, err := f.sessions.Get(context.Background(), sessionID)
		require.NoError(t, err)
		assert.Equal(t, accessTime, stored.RefreshedAt)
	})

	t.Run("a failed refresh save still returns the session", func(t *testing.T) {
		f.sessions.SaveErr = errors.New("redis down")
		defer func() { f.sessions.SaveErr = nil }()
		f.svc.now = testutil.FixedTimeFunc(f.now.Add(72 * time.Hour))

		got, err := f.svc.GetSession(context.Background(), sessionID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}

func TestGetSession_Expired(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Login(context.Background(), LoginInput{Credentials: validCreds()})
	require.NoError(t, err)
	sessionID := result.Session.ID

	f.svc.now = testutil.FixedTimeFunc(f.now.Add(domainauth.SessionMaxLifetime + time.Hour))

	_, err = f.svc.GetSession(context.Background(), sessionID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	assert.Zero(t, f.sessions.Len(), "expired session is torn down")
}

func TestUpdateSession(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Login(context.Background(), LoginInput{Credentials: validCreds()})
	require.NoError(t, err)

	newToken := "rotated-token"
	newRole := domainauth.RoleStore
	got, err := f.svc.UpdateSession(context.Background(), result.Session.ID, domainauth.SessionPatch{
		AccessToken: &newToken,
		Role:        &newRole,
	})
	require.NoError(t, err)
	assert.Equal(t, "rotated-token", got.AccessToken)
	assert.Equal(t, domainauth.RoleStore, got.Role)
	assert.Equal(t, result.Session.UserID, got.UserID, "identity fields untouched")

	t.Run("nil fields leave values alone", func(t *testing.T) {
		got2, err := f.svc.UpdateSession(context.Background(), result.Session.ID, domainauth.SessionPatch{})
		require.NoError(t, err)
		assert.Equal(t, "rotated-token", got2.AccessToken)
		assert.Equal(t, domainauth.RoleStore, got2.Role)
	})
}

func TestHydrate(t *testing.T) {
	f := newAuthFixture(t)

	client := f.svc.Hydrate(domainauth.Session{
		AccessToken: "tok",
		UserID:      "u-1",
		Name:        "Jane",
		Email:       "jane@example.com",
		Role:        domainauth.RoleAdmin,
		ExpiresAt:   f.now.Add(time.Hour),
	})

	assert.Equal(t, "tok", client.Token)
	assert.Equal(t, "u-1", client.User.ID)
	assert.Equal(t, domainauth.RoleAdmin, client.User.Role)
	assert.Equal(t, f.now.Add(time.Hour), client.ExpiresAt)
}

func TestLogout(t *testing.T) {
	t.Run("revokes and deletes", func(t *testing.T) {
		f := newAuthFixture(t)
		result, err := f.svc.Login(context.Background(), LoginInput{Credentials: validCreds()})
		require.NoError(t, err)

		require.NoError(t, f.svc.Logout(context.Background(), result.Session.ID))
		assert.Equal(t, []string{"mock-token"}, f.provider.RevokedTokens)
		assert.Zero(t, f.sessions.Len())
	})

	t.Run("revocation failure does not block teardown", func(t *testing.T) {
		f := newAuthFixture(t)
		f.provider.RevokeFunc = func(ctx context.Context, accessToken string) error {
			return errors.New("provider unreachable")
		}
		result, err := f.svc.Login(context.Background(), LoginInput{Credentials: validCreds()})
		require.NoError(t, err)

		require.NoError(t, f.svc.Logout(context.Background(), result.Session.ID))
		assert.Zero(t, f.sessions.Len())
	})

	t.Run("store delete failure is an error", func(t *testing.T) {
		f := newAuthFixture(t)
		result, err := f.svc.Login(context.Background(), LoginInput{Credentials: validCreds()})
		require.NoError(t, err)

		f.sessions.DeleteErr = errors.New("redis down")
		assert.Error(t, f.svc.Logout(context.Background(), result.Session.ID))
	})

	t.Run("empty session ID is a no-op", func(t *testing.T) {
		f := newAuthFixture(t)
		assert.NoError(t, f.svc.Logout(context.Background(), ""))
		assert.Empty(t, f.provider.RevokedTokens)
	})
}

func TestRecordOutcome_BestEffort(t *testing.T) {
	f := newAuthFixture(t)
	f.events.RecordErr = errors.New("db down")

	_, err := f.svc.Login(context.Background(), LoginInput{Credentials: validCreds()})
	assert.NoError(t, err, "audit trail failure never blocks login")
}

func TestLogin_EventRecorderContract(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	recorder := mocks.NewMockLoginEventRecorder(ctrl)
	recorder.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev domainauth.LoginEvent) error {
			assert.Equal(t, "user@example.com", ev.Identifier)
			assert.Equal(t, "success", ev.Outcome)
			return nil
		})

	svc := NewAuthService(AuthServiceOptions{
		Provider: mockauth.NewMockIdentityProvider(),
		Sessions: mockauth.NewMemorySessionStore(),
		Events:   recorder,
	})

	_, err := svc.Login(context.Background(), LoginInput{Credentials: validCreds()})
	require.NoError(t, err)
}
