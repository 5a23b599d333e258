package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/business-hub/hub/internal/domain/auth"
)

// SessionCookieName is the cookie carrying the opaque session identifier.
const SessionCookieName = "session_id"

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// isExemptPath reports whether a path sits outside the locale/authorization
// surface: API and asset routes carry no locale segment.
func isExemptPath(path string) bool {
	return strings.HasPrefix(path, "/api/") ||
		strings.HasPrefix(path, "/static/") ||
		path == "/healthz"
}

// LocaleOptions configures the locale-resolution middleware.
type LocaleOptions struct {
	Locales      []string
	Default      string
	CookieName   string
	CookieMaxAge time.Duration
}

func (o LocaleOptions) supported(segment string) bool {
	for _, l := range o.Locales {
		if l == segment {
			return true
		}
	}
	return false
}

// LocaleRedirect resolves the locale segment for every browser request. A
// request already carrying a supported locale passes through (the locale is
// persisted to the cookie and placed in the request context); any other
// request is redirected to the same path and query with a locale prepended,
// taken from the cookie when valid and from the configured default
// otherwise. The redirect is terminal: downstream middleware does not run in
// the same pass.
func LocaleRedirect(opts LocaleOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			segment := firstPathSegment(r.URL.Path)
			if opts.supported(segment) {
				persistLocale(w, opts, segment)
				ctx := SetLocaleInContext(r.Context(), segment)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			target := opts.Default
			if c, err := r.Cookie(opts.CookieName); err == nil && opts.supported(c.Value) {
				target = c.Value
			}
			persistLocale(w, opts, target)

			location := "/" + target + r.URL.Path
			if r.URL.RawQuery != "" {
				location += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, location, http.StatusFound)
		})
	}
}

func persistLocale(w http.ResponseWriter, opts LocaleOptions, locale string) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.CookieName,
		Value:    locale,
		Path:     "/",
		MaxAge:   int(opts.CookieMaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

func firstPathSegment(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

// protectedPrefixes are the locale-scoped area prefixes that require an
// authenticated session.
var protectedPrefixes = []string{"/admin", "/client", "/store", "/data-entry"}

// loginPath is the locale-relative login page path.
const loginPath = "/login"

// defaultAreaPath is where an already-authenticated user lands when they
// request the login page.
const defaultAreaPath = "/admin"

// SessionReader is the slice of the auth service the authorizer needs.
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// AuthorizeOptions configures the route-authorization middleware.
type AuthorizeOptions struct {
	Sessions SessionReader
	Locales  []string
}

// Authorize gates locale-prefixed routes on session state:
//
//   - protected path, no session → redirect to the locale's login page with
//     the original path carried in callbackUrl
//   - login page, valid session → redirect to the locale's default area
//   - anything else → allow
//
// The locale used for prefixes and redirect targets is always read from the
// incoming path's first segment, never from a global default. Role-scoped
// authorization inside a protected area is left to downstream handlers; this
// middleware only gates "authenticated or not".
func Authorize(opts AuthorizeOptions) func(http.Handler) http.Handler {
	supported := make(map[string]bool, len(opts.Locales))
	for _, l := range opts.Locales {
		supported[l] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			locale := firstPathSegment(r.URL.Path)
			if !supported[locale] {
				// The locale resolver redirects these before we run.
				next.ServeHTTP(w, r)
				return
			}

			rest := strings.TrimPrefix(r.URL.Path, "/"+locale)
			if rest == "" {
				rest = "/"
			}

			session := sessionFromRequest(r, opts.Sessions)

			switch {
			case isProtectedPath(rest) && session == nil:
				callback := url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, "/"+locale+loginPath+"?callbackUrl="+callback, http.StatusFound)
			case isLoginPath(rest) && session != nil:
				http.Redirect(w, r, "/"+locale+defaultAreaPath, http.StatusFound)
			default:
				ctx := SetSessionInContext(r.Context(), session)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

// sessionFromRequest retrieves and validates a session from the request cookie.
func sessionFromRequest(r *http.Request, sessions SessionReader) *domainauth.Session {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil
	}
	session, err := sessions.GetSession(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return session
}

func isProtectedPath(rest string) bool {
	for _, prefix := range protectedPrefixes {
		if rest == prefix || strings.HasPrefix(rest, prefix+"/") {
			return true
		}
	}
	return false
}

func isLoginPath(rest string) bool {
	return rest == loginPath || strings.HasPrefix(rest, loginPath+"/")
}
