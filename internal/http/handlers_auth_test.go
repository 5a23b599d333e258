package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/business-hub/hub/internal/domain/auth"
	"github.com/business-hub/hub/internal/service"
)

// fakeAuthService lets each test script the service layer per method.
type fakeAuthService struct {
	LoginFunc         func(ctx context.Context, input service.LoginInput) (*service.LoginResult, error)
	CompleteLoginFunc func(ctx context.Context, input service.TokenHandoffInput) (*service.LoginResult, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*domainauth.Session, error)
	UpdateSessionFunc func(ctx context.Context, sessionID string, patch domainauth.SessionPatch) (*domainauth.Session, error)
	LogoutFunc        func(ctx context.Context, sessionID string) error
}

func (f *fakeAuthService) Login(ctx context.Context, input service.LoginInput) (*service.LoginResult, error) {
	return f.LoginFunc(ctx, input)
}

func (f *fakeAuthService) CompleteLogin(ctx context.Context, input service.TokenHandoffInput) (*service.LoginResult, error) {
	return f.CompleteLoginFunc(ctx, input)
}

func (f *fakeAuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	return f.GetSessionFunc(ctx, sessionID)
}

func (f *fakeAuthService) UpdateSession(ctx context.Context, sessionID string, patch domainauth.SessionPatch) (*domainauth.Session, error) {
	return f.UpdateSessionFunc(ctx, sessionID, patch)
}

func (f *fakeAuthService) Hydrate(session domainauth.Session) domainauth.ClientSession {
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

func (f *fakeAuthService) Logout(ctx context.Context, sessionID string) error {
	if f.LogoutFunc != nil {
		return f.LogoutFunc(ctx, sessionID)
	}
	return nil
}

func issuedSession() domainauth.Session {
	return domainauth.Session{
		ID:          "sess-1",
		AccessToken: "tok-1",
		UserID:      "u-1",
		Name:        "Jane",
		Email:       "jane@example.com",
		Role:        domainauth.RoleAdmin,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	resp := rec.Result()
	defer func() { _ = resp.Body.Close() }()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginHandler_Success(t *testing.T) {
	var gotInput service.LoginInput
	h := &AuthHandlers{Svc: &fakeAuthService{
		LoginFunc: func(_ context.Context, input service.LoginInput) (*service.LoginResult, error) {
			gotInput = input
			return &service.LoginResult{Session: issuedSession()}, nil
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"identifier":"jane@example.com","password":"pw","country_code":"+966"}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jane@example.com", gotInput.Credentials.Identifier)
	assert.Equal(t, "+966", gotInput.Credentials.CountryCode)
	assert.Equal(t, "203.0.113.9", gotInput.RemoteAddr, "first forwarded hop wins")

	body := decodeBody(t, rec)
	assert.Equal(t, "authenticated", body["status"])
	session, ok := body["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tok-1", session["token"])

	cookie := findCookie(t, rec, SessionCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, "sess-1", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure, "plain HTTP request")
	assert.Greater(t, cookie.MaxAge, 0)
}

func TestLoginHandler_SecureCookieBehindProxy(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{
		LoginFunc: func(_ context.Context, _ service.LoginInput) (*service.LoginResult, error) {
			return &service.LoginResult{Session: issuedSession()}, nil
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"identifier":"jane@example.com","password":"pw"}`))
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	cookie := findCookie(t, rec, SessionCookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
}

func TestLoginHandler_TwoFactorChallenge(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{
		LoginFunc: func(_ context.Context, _ service.LoginInput) (*service.LoginResult, error) {
			return nil, domainauth.TwoFARequired(&domainauth.TwoFactorChallenge{
				Actions:    []domainauth.ChallengeAction{domainauth.ActionSentSMS},
				Identifier: "jane@example.com",
			})
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"identifier":"jane@example.com","password":"pw"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "a pending second factor is not an error")
	body := decodeBody(t, rec)
	assert.Equal(t, "2fa_required", body["status"])
	challenge, ok := body["challenge"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", challenge["identifier"])

	assert.Nil(t, findCookie(t, rec, SessionCookieName), "no session before the OTP step")
}

func TestLoginHandler_FailureStatusMapping(t *testing.T) {
	tests := []struct {
		kind     domainauth.FailureKind
		wantCode int
		wantErr  string
	}{
		{domainauth.FailureMissingCredentials, http.StatusBadRequest, "missing_credentials"},
		{domainauth.FailureValidationError, http.StatusBadRequest, "validation_error"},
		{domainauth.FailureAuthError, http.StatusUnauthorized, "auth_error"},
		{domainauth.FailureAuthFailed, http.StatusBadGateway, "auth_failed"},
		{domainauth.FailureMalformedResponse, http.StatusBadGateway, "malformed_response"},
		{domainauth.FailureNetworkError, http.StatusBadGateway, "network_error"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			h := &AuthHandlers{Svc: &fakeAuthService{
				LoginFunc: func(_ context.Context, _ service.LoginInput) (*service.LoginResult, error) {
					return nil, domainauth.NewFailure(tt.kind, "rejected")
				},
			}}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
				strings.NewReader(`{"identifier":"x","password":"y"}`))
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decodeBody(t, rec)["error"])
		})
	}
}

func TestLoginHandler_UnclassifiedError(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{
		LoginFunc: func(_ context.Context, _ service.LoginInput) (*service.LoginResult, error) {
			return nil, errors.New("session store down")
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"identifier":"x","password":"y"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "login_failed", decodeBody(t, rec)["error"])
}

func TestLoginHandler_InvalidJSON(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{
		LoginFunc: func(_ context.Context, _ service.LoginInput) (*service.LoginResult, error) {
			t.Fatal("service must not be called for a bad body")
			return nil, nil
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeBody(t, rec)["error"])
}

func TestCompleteOTPHandler(t *testing.T) {
	var gotInput service.TokenHandoffInput
	h := &AuthHandlers{Svc: &fakeAuthService{
		CompleteLoginFunc: func(_ context.Context, input service.TokenHandoffInput) (*service.LoginResult, error) {
			gotInput = input
			return &service.LoginResult{Session: issuedSession()}, nil
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/otp",
		strings.NewReader(`{"access_token":"otp-tok","identifier":"jane@example.com"}`))
	rec := httptest.NewRecorder()
	h.CompleteOTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "otp-tok", gotInput.AccessToken)
	assert.Equal(t, "jane@example.com", gotInput.Identifier)
	assert.Equal(t, "authenticated", decodeBody(t, rec)["status"])
	require.NotNil(t, findCookie(t, rec, SessionCookieName))
}

func TestSessionHandler(t *testing.T) {
	t.Run("no cookie is anonymous", func(t *testing.T) {
		h := &AuthHandlers{Svc: &fakeAuthService{
			GetSessionFunc: func(_ context.Context, _ string) (*domainauth.Session, error) {
				t.Fatal("no lookup without a cookie")
				return nil, nil
			},
		}}

		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		rec := httptest.NewRecorder()
		h.Session(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, decodeBody(t, rec)["authenticated"])
	})

	t.Run("valid session is hydrated", func(t *testing.T) {
		sess := issuedSession()
		h := &AuthHandlers{Svc: &fakeAuthService{
			GetSessionFunc: func(_ context.Context, id string) (*domainauth.Session, error) {
				assert.Equal(t, "sess-1", id)
				return &sess, nil
			},
		}}

		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
		rec := httptest.NewRecorder()
		h.Session(rec, req)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["authenticated"])
		session, ok := body["session"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "tok-1", session["token"])
	})

	t.Run("invalid session clears the cookie", func(t *testing.T) {
		h := &AuthHandlers{Svc: &fakeAuthService{
			GetSessionFunc: func(_ context.Context, _ string) (*domainauth.Session, error) {
				return nil, service.ErrSessionExpired
			},
		}}

		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
		rec := httptest.NewRecorder()
		h.Session(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, decodeBody(t, rec)["authenticated"])

		cookie := findCookie(t, rec, SessionCookieName)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Equal(t, -1, cookie.MaxAge)
	})
}

func TestUpdateSessionHandler(t *testing.T) {
	t.Run("without cookie", func(t *testing.T) {
		h := &AuthHandlers{Svc: &fakeAuthService{}}

		req := httptest.NewRequest(http.MethodPatch, "/api/auth/session",
			strings.NewReader(`{"role":"store"}`))
		rec := httptest.NewRecorder()
		h.UpdateSession(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "authentication_required", decodeBody(t, rec)["error"])
	})

	t.Run("role is normalized before patching", func(t *testing.T) {
		var gotPatch domainauth.SessionPatch
		sess := issuedSession()
		h := &AuthHandlers{Svc: &fakeAuthService{
			UpdateSessionFunc: func(_ context.Context, id string, patch domainauth.SessionPatch) (*domainauth.Session, error) {
				assert.Equal(t, "sess-1", id)
				gotPatch = patch
				sess.Role = *patch.Role
				return &sess, nil
			},
		}}

		req := httptest.NewRequest(http.MethodPatch, "/api/auth/session",
			strings.NewReader(`{"role":"STORE","access_token":"rotated"}`))
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
		rec := httptest.NewRecorder()
		h.UpdateSession(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotPatch.Role)
		assert.Equal(t, domainauth.RoleStore, *gotPatch.Role)
		require.NotNil(t, gotPatch.AccessToken)
		assert.Equal(t, "rotated", *gotPatch.AccessToken)
	})

	t.Run("stale cookie", func(t *testing.T) {
		h := &AuthHandlers{Svc: &fakeAuthService{
			UpdateSessionFunc: func(_ context.Context, _ string, _ domainauth.SessionPatch) (*domainauth.Session, error) {
				return nil, service.ErrSessionExpired
			},
		}}

		req := httptest.NewRequest(http.MethodPatch, "/api/auth/session", strings.NewReader(`{}`))
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
		rec := httptest.NewRecorder()
		h.UpdateSession(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "session_invalid", decodeBody(t, rec)["error"])
	})
}

func TestLogoutHandler(t *testing.T) {
	t.Run("tears down and clears the cookie", func(t *testing.T) {
		var loggedOut string
		h := &AuthHandlers{Svc: &fakeAuthService{
			LogoutFunc: func(_ context.Context, id string) error {
				loggedOut = id
				return nil
			},
		}}

		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
		rec := httptest.NewRecorder()
		h.Logout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "sess-1", loggedOut)
		assert.Equal(t, "success", decodeBody(t, rec)["status"])

		cookie := findCookie(t, rec, SessionCookieName)
		require.NotNil(t, cookie)
		assert.Equal(t, -1, cookie.MaxAge)
	})

	t.Run("teardown failure still succeeds for the client", func(t *testing.T) {
		h := &AuthHandlers{Svc: &fakeAuthService{
			LogoutFunc: func(_ context.Context, _ string) error {
				return errors.New("redis down")
			},
		}}

		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
		rec := httptest.NewRecorder()
		h.Logout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "success", decodeBody(t, rec)["status"])
	})

	t.Run("without cookie", func(t *testing.T) {
		h := &AuthHandlers{Svc: &fakeAuthService{
			LogoutFunc: func(_ context.Context, _ string) error {
				t.Fatal("no teardown without a cookie")
				return nil
			},
		}}

		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		rec := httptest.NewRecorder()
		h.Logout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
