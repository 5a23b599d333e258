package idp

// Package idp is the HTTP adapter for the Business Hub identity-provider
// REST API. It performs the credential exchange, classifies every provider
// response into a tagged outcome, and resolves bearer tokens into identities
// with a local-decode fallback.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/business-hub/hub/internal/domain/auth"
	"github.com/business-hub/hub/internal/ports"
)

const (
	loginPath    = "/auth/login"
	userInfoPath = "/auth/me"
	logoutPath   = "/auth/logout"
)

// Provider implements ports.IdentityProvider against the external REST API.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.IdentityProvider = (*Provider)(nil)

// ProviderConfig holds configuration for the identity-provider adapter.
type ProviderConfig struct {
	BaseURL    string
	Timeout    time.Duration // applied only when HTTPClient is nil
	HTTPClient *http.Client  // optional
	Logger     *slog.Logger  // optional
}

// NewProvider creates an identity-provider adapter.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("identity provider base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Provider{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// loginRequest is the wire shape of the credential exchange. Optional fields
// are omitted entirely rather than sent empty.
type loginRequest struct {
	Identifier    string `json:"identifier"`
	Password      string `json:"password"`
	CountryCode   string `json:"country_code,omitempty"`
	Platform      string `json:"platform,omitempty"`
	ClientInfo    string `json:"client_info,omitempty"`
	FirebaseToken string `json:"firebase_token,omitempty"`
}

// loginResponse covers every body shape the provider returns on a 2xx call.
// Pointer fields distinguish "absent" from "empty".
type loginResponse struct {
	AccessToken *string         `json:"access_token"`
	Actions     json.RawMessage `json:"actions"`
	Message     json.RawMessage `json:"message"`
	RetryAfter  *time.Time      `json:"retry_after"`
}

// errorResponse is the provider's error body. Message may be a single
// string or a list of strings.
type errorResponse struct {
	Message json.RawMessage `json:"message"`
}

// Login performs the credential exchange and classifies the result.
// All non-success outcomes are *domainauth.Failure values.
func (p *Provider) Login(ctx context.Context, creds ports.Credentials) (domainauth.Identity, error) {
	if creds.Identifier == "" || creds.Password == "" {
		return domainauth.Identity{}, domainauth.NewFailure(
			domainauth.FailureMissingCredentials, "identifier and password are required")
	}

	payload, err := json.Marshal(loginRequest{
		Identifier:    creds.Identifier,
		Password:      creds.Password,
		CountryCode:   creds.CountryCode,
		Platform:      creds.Platform,
		ClientInfo:    creds.ClientInfo,
		FirebaseToken: creds.FirebaseToken,
	})
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domainauth.Identity{}, domainauth.NewFailure(
			domainauth.FailureNetworkError, fmt.Sprintf("identity provider unreachable: %v", err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			p.logger.WarnContext(ctx, "close login response body", "error", cerr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domainauth.Identity{}, domainauth.NewFailure(
			domainauth.FailureNetworkError, fmt.Sprintf("read identity provider response: %v", err))
	}

	return p.classify(ctx, creds, resp.StatusCode, body)
}

// classify maps (status, body) onto exactly one outcome. Precedence:
// malformed-body-with-error-status, then 401, then 400, then any other
// non-success status, then (within success) access-token shape, two-factor
// shape, and finally malformed response. The exchange never silently
// defaults to success.
func (p *Provider) classify(
	ctx context.Context,
	creds ports.Credentials,
	status int,
	body []byte,
) (domainauth.Identity, error) {
	if status != http.StatusOK && status != http.StatusCreated {
		return domainauth.Identity{}, classifyError(status, body)
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return domainauth.Identity{}, domainauth.NewFailure(
			domainauth.FailureMalformedResponse, "identity provider returned an unparseable body")
	}

	// Access-token presence wins over a simultaneous actions field: a
	// provider returning both has completed the login.
	if lr.AccessToken != nil && *lr.AccessToken != "" {
		return p.Resolve(ctx, *lr.AccessToken, creds.Identifier), nil
	}

	if len(lr.Actions) > 0 && !bytes.Equal(lr.Actions, []byte("null")) {
		return domainauth.Identity{}, classifyChallenge(creds, lr)
	}

	return domainauth.Identity{}, domainauth.NewFailure(
		domainauth.FailureMalformedResponse,
		"identity provider returned neither an access token nor a challenge")
}

// classifyError maps non-2xx statuses onto failure kinds, extracting the
// provider message when the body parses.
func classifyError(status int, body []byte) *domainauth.Failure {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return domainauth.NewFailure(domainauth.FailureMalformedResponse,
			fmt.Sprintf("identity provider returned status %d with an unparseable body", status))
	}

	msg := joinMessage(er.Message)
	switch status {
	case http.StatusUnauthorized:
		if msg == "" {
			msg = "invalid credentials"
		}
		return domainauth.NewFailure(domainauth.FailureAuthError, msg)
	case http.StatusBadRequest:
		if msg == "" {
			msg = "invalid login request"
		}
		return domainauth.NewFailure(domainauth.FailureValidationError, msg)
	default:
		if msg == "" {
			msg = fmt.Sprintf("identity provider returned status %d", status)
		}
		return domainauth.NewFailure(domainauth.FailureAuthFailed, msg)
	}
}

// classifyChallenge parses the two-factor shape. Unknown action tags are
// treated as a malformed response rather than trusted blindly.
func classifyChallenge(creds ports.Credentials, lr loginResponse) *domainauth.Failure {
	actions, ok := parseActions(lr.Actions)
	if !ok {
		return domainauth.NewFailure(domainauth.FailureMalformedResponse,
			"identity provider returned an unrecognized challenge action")
	}

	return domainauth.TwoFARequired(&domainauth.TwoFactorChallenge{
		Message:     joinMessage(lr.Message),
		Actions:     actions,
		RetryAfter:  lr.RetryAfter,
		Identifier:  creds.Identifier,
		CountryCode: creds.CountryCode,
	})
}

// parseActions accepts a single action tag or a list of tags. It fails when
// any tag is outside the known set.
func parseActions(raw json.RawMessage) ([]domainauth.ChallengeAction, bool) {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		a := domainauth.ChallengeAction(one)
		if !a.Valid() {
			return nil, false
		}
		return []domainauth.ChallengeAction{a}, true
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err != nil || len(many) == 0 {
		return nil, false
	}
	actions := make([]domainauth.ChallengeAction, 0, len(many))
	for _, s := range many {
		a := domainauth.ChallengeAction(s)
		if !a.Valid() {
			return nil, false
		}
		actions = append(actions, a)
	}
	return actions, true
}

// joinMessage flattens the provider's message field, which may be a single
// string or a list of strings. Lists are joined with a comma.
func joinMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return one
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return strings.Join(many, ", ")
	}

	return ""
}

// Revoke invalidates the token server-side. Errors are returned for logging
// only; session teardown proceeds regardless.
func (p *Provider) Revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+logoutPath, http.NoBody)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call logout endpoint: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			p.logger.WarnContext(ctx, "close logout response body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("logout endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
