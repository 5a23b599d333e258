package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/business-hub/hub/internal/domain/auth"
)

// Identity field resolution order. Each field is an ordered list of JMESPath
// expressions tried in sequence against the user-info document (and against
// locally decoded token claims); the first non-empty match wins, and the
// login identifier is the terminal fallback. This makes the precedence a
// visible contract instead of an implicit accessor chain.
var (
	idPaths    = []string{"data.id", "user.id", "id", "userId", "sub"}
	namePaths  = []string{"data.name", "user.name", "name", "firstName", "username"}
	emailPaths = []string{"data.email", "user.email", "email"}
	rolePaths  = []string{"data.role", "user.role", "role"}
)

// Resolve turns a bearer token into an Identity. The authoritative path
// queries the user-info endpoint; when that degrades for any reason the
// token payload is decoded locally; when that degrades too, the identifier
// alone populates the Identity. Resolve never fails: the token was already
// validated by a successful exchange or an explicit handoff, so decode
// failure only reduces the richness of the identity.
func (p *Provider) Resolve(ctx context.Context, accessToken, identifier string) domainauth.Identity {
	doc, err := p.fetchUserInfo(ctx, accessToken)
	if err == nil {
		return mapIdentity(doc, identifier, accessToken)
	}
	p.logger.WarnContext(ctx, "user-info lookup failed, decoding token locally",
		"identifier", identifier, "error", err)

	claims, err := decodeTokenClaims(accessToken)
	if err != nil {
		p.logger.WarnContext(ctx, "local token decode failed, using minimal identity",
			"identifier", identifier, "error", err)
		return domainauth.MinimalIdentity(identifier, accessToken)
	}
	return mapIdentity(claims, identifier, accessToken)
}

// fetchUserInfo calls the bearer-authenticated user-info endpoint and
// returns the decoded JSON document.
func (p *Provider) fetchUserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+userInfoPath, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build user-info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call user-info endpoint: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			p.logger.Warn("close user-info response body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user-info endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read user-info response: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode user-info response: %w", err)
	}
	return doc, nil
}

// decodeTokenClaims splits the token into its three segments, base64-decodes
// the payload, and parses it as a claims record. No signature verification
// happens here; the token's validity was established upstream.
func decodeTokenClaims(accessToken string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("parse token payload: %w", err)
	}
	return claims, nil
}

// mapIdentity applies the field resolution order to a JSON-like document.
func mapIdentity(doc any, identifier, accessToken string) domainauth.Identity {
	return domainauth.Identity{
		ID:          resolveString(doc, idPaths, identifier),
		Name:        resolveString(doc, namePaths, identifier),
		Email:       resolveString(doc, emailPaths, identifier),
		Role:        domainauth.NormalizeRole(resolveRaw(doc, rolePaths)),
		AccessToken: accessToken,
	}
}

// resolveString walks the expression list and returns the first non-empty
// string-convertible match, falling back to the supplied default.
func resolveString(doc any, paths []string, fallback string) string {
	if s := stringify(resolveRaw(doc, paths)); s != "" {
		return s
	}
	return fallback
}

// resolveRaw returns the first non-nil, non-empty JMESPath match.
func resolveRaw(doc any, paths []string) any {
	for _, expr := range paths {
		v, err := jmespath.Search(expr, doc)
		if err != nil || v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		return v
	}
	return nil
}

// stringify converts scalar JSON values to their string form. Numeric ids
// are common in provider payloads.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
