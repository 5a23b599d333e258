package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth         AuthServiceInterface
	CookieDomain string

	// Locale resolution for browser routes.
	Locales       []string
	DefaultLocale string
	LocaleCookie  string
	LocaleMaxAge  time.Duration

	Logger *slog.Logger // optional
}

// NewRouter creates and configures the HTTP router. API routes sit under
// /api/ and bypass the locale/authorization middleware; everything else is a
// browser route that passes through locale resolution and session gating
// before reaching the page handler.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		Logger:       services.Logger,
	}

	registerAuthRoutes(mux, authHandlers)
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	// Browser routes: everything not claimed above. The locale and
	// authorization middleware run before the page handler.
	pages := &PageHandlers{Logger: services.Logger}
	locale := LocaleRedirect(LocaleOptions{
		Locales:      services.Locales,
		Default:      services.DefaultLocale,
		CookieName:   services.LocaleCookie,
		CookieMaxAge: services.LocaleMaxAge,
	})
	authorize := Authorize(AuthorizeOptions{
		Sessions: services.Auth,
		Locales:  services.Locales,
	})
	mux.Handle("/", locale(authorize(http.HandlerFunc(pages.Serve))))

	return mux
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/otp", h.CompleteOTP)
	mux.HandleFunc("GET /api/auth/session", h.Session)
	mux.HandleFunc("PATCH /api/auth/session", h.UpdateSession)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
}
