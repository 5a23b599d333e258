package httpx

import (
	"log/slog"
	"net/http"
)

// PageHandlers serves the locale-prefixed browser routes. Page rendering is
// delegated to the frontend; the server answers with the resolved view state
// so the shell knows which locale and session it is rendering for.
type PageHandlers struct {
	Logger *slog.Logger
}

// Serve answers any browser route that survived locale resolution and
// authorization. By the time it runs, the locale and (when present) the
// session have been placed in the request context by the middleware chain.
func (h *PageHandlers) Serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	view := map[string]any{
		"locale":        GetLocaleFromContext(r.Context()),
		"path":          r.URL.Path,
		"authenticated": false,
	}
	if session := GetSessionFromContext(r.Context()); session != nil {
		view["authenticated"] = true
		view["role"] = string(session.Role)
	}

	WriteJSON(w, http.StatusOK, view)
}
