package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/business-hub/hub/internal/domain/auth"
	"github.com/business-hub/hub/internal/ports"
	"github.com/business-hub/hub/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Login(ctx context.Context, input service.LoginInput) (*service.LoginResult, error)
	CompleteLogin(ctx context.Context, input service.TokenHandoffInput) (*service.LoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	UpdateSession(ctx context.Context, sessionID string, patch domainauth.SessionPatch) (*domainauth.Session, error)
	Hydrate(session domainauth.Session) domainauth.ClientSession
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// loginBody is the login submission shape.
type loginBody struct {
	Identifier    string `json:"identifier"`
	Password      string `json:"password"`
	CountryCode   string `json:"country_code,omitempty"`
	Platform      string `json:"platform,omitempty"`
	ClientInfo    string `json:"client_info,omitempty"`
	FirebaseToken string `json:"firebase_token,omitempty"`
}

// Login handles the credential exchange.
// POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	result, err := h.Svc.Login(r.Context(), service.LoginInput{
		Credentials: ports.Credentials{
			Identifier:    body.Identifier,
			Password:      body.Password,
			CountryCode:   body.CountryCode,
			Platform:      body.Platform,
			ClientInfo:    body.ClientInfo,
			FirebaseToken: body.FirebaseToken,
		},
		RemoteAddr: remoteAddr(r),
	})
	if err != nil {
		h.writeAuthFailure(w, r, err)
		return
	}

	h.setSessionCookie(w, r, result.Session)
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "authenticated",
		"session": h.Svc.Hydrate(result.Session),
	})
}

// otpBody completes authentication after the OTP step: the client exchanged
// the one-time code with the provider and holds the resulting token.
type otpBody struct {
	AccessToken string `json:"access_token"`
	Identifier  string `json:"identifier"`
}

// CompleteOTP handles the post-OTP token handoff.
// POST /api/auth/otp.
func (h *AuthHandlers) CompleteOTP(w http.ResponseWriter, r *http.Request) {
	var body otpBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.TokenHandoffInput{
		AccessToken: body.AccessToken,
		Identifier:  body.Identifier,
		RemoteAddr:  remoteAddr(r),
	})
	if err != nil {
		h.writeAuthFailure(w, r, err)
		return
	}

	h.setSessionCookie(w, r, result.Session)
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "authenticated",
		"session": h.Svc.Hydrate(result.Session),
	})
}

// Session returns the hydrated session for the current cookie.
// GET /api/auth/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), cookie.Value)
	if err != nil {
		// Session is invalid or expired; clear the cookie.
		h.clearCookie(w, r, SessionCookieName)
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"session":       h.Svc.Hydrate(*session),
	})
}

// sessionPatchBody is the narrow session update a client may request.
type sessionPatchBody struct {
	AccessToken *string `json:"access_token,omitempty"`
	Role        *string `json:"role,omitempty"`
}

// UpdateSession applies a narrow patch (access token and role) to the
// current session, e.g. after a role change, without a full re-login.
// PATCH /api/auth/session.
func (h *AuthHandlers) UpdateSession(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	var body sessionPatchBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	patch := domainauth.SessionPatch{AccessToken: body.AccessToken}
	if body.Role != nil {
		role := domainauth.NormalizeRole(*body.Role)
		patch.Role = &role
	}

	session, err := h.Svc.UpdateSession(r.Context(), cookie.Value, patch)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "session_invalid",
			Err:     err,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"session":       h.Svc.Hydrate(*session),
	})
}

// Logout tears down the session. Always succeeds from the client's
// perspective: provider-side revocation failures are logged only.
// POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), cookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	h.clearCookie(w, r, SessionCookieName)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// writeAuthFailure maps a classified exchange failure onto an HTTP response.
// The two-factor next step is not an error banner: it returns 200 with the
// structured challenge so the UI can transition to the OTP entry step.
func (h *AuthHandlers) writeAuthFailure(w http.ResponseWriter, r *http.Request, err error) {
	var failure *domainauth.Failure
	if !errors.As(err, &failure) {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	if failure.Kind == domainauth.FailureTwoFARequired {
		WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "2fa_required",
			"challenge": failure.Challenge,
		})
		return
	}

	code := http.StatusBadGateway
	switch failure.Kind {
	case domainauth.FailureMissingCredentials, domainauth.FailureValidationError:
		code = http.StatusBadRequest
	case domainauth.FailureAuthError:
		code = http.StatusUnauthorized
	}

	h.logger().WarnContext(r.Context(), "login rejected", "kind", string(failure.Kind))
	WriteError(w, ErrorParams{
		Code:    code,
		ErrCode: strings.ToLower(string(failure.Kind)),
		Err:     failure,
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// clearCookie clears a cookie by setting it to expire immediately, mirroring
// the attributes used when setting it.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// remoteAddr prefers the first X-Forwarded-For hop when present.
func remoteAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	return r.RemoteAddr
}
