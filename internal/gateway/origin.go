// ABOUTME: Origin allow-list guard for browser-initiated cross-site requests
// ABOUTME: Rejects disallowed origins with 403 before any body is read

package gateway

import (
	"net/http"
)

// originGuard rejects cross-site requests whose Origin is not on the
// allow-list, before the request body is touched. Requests without an
// Origin header bypass the check entirely: browsers always send Origin
// on cross-site calls, so an absent header means a server-to-server or
// same-site caller. That bypass is only safe on a trusted network.
//
// Preflight and CORS response headers for allowed origins are handled by
// the cors middleware mounted after this guard.
func (g *Gateway) originGuard(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(g.config.CORS.AllowedOrigins))
	for _, o := range g.config.CORS.AllowedOrigins {
		allowed[o] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := allowed[origin]; !ok {
			g.logger.Warn("rejected cross-site request", "origin", origin, "path", r.URL.Path)
			writeError(w, http.StatusForbidden, CodeForbidden, "origin not allowed")
			return
		}

		next.ServeHTTP(w, r)
	})
}
