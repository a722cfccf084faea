// ABOUTME: Session-gated reverse proxy and one-time upstream handoff redirect
// ABOUTME: Injects verified identity headers; first entry at the root triggers handoff

package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/2389/handoff-gateway/internal/auth"
)

// Identity headers injected into upstream requests. They are always
// overwritten, never merged, so a caller cannot smuggle its own values.
const (
	HeaderUserID = "X-Vibe-User-Id"
	HeaderEmail  = "X-Vibe-User-Email"
	HeaderRoles  = "X-Vibe-User-Roles"
)

// handoffResponse is the body the upstream handoff endpoint returns.
type handoffResponse struct {
	Token string `json:"token"`
}

// buildProxy creates the reverse proxy for protected traffic. The
// proxied response is returned unmodified apart from metrics recording.
func (g *Gateway) buildProxy() *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(g.upstream)
			pr.Out.Host = g.upstream.Host

			if id := auth.FromContext(pr.In.Context()); id != nil {
				pr.Out.Header.Set(HeaderUserID, id.UserID)
				pr.Out.Header.Set(HeaderEmail, id.Email)
				pr.Out.Header.Set(HeaderRoles, strings.Join(id.Roles, ","))
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			g.metrics.RecordProxied(resp.StatusCode)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			g.logger.Error("proxying to upstream", "error", err, "path", r.URL.Path)
			g.metrics.RecordProxied(http.StatusBadGateway)
			writeError(w, http.StatusBadGateway, CodeInternalError, "upstream unreachable")
		},
	}
}

// handleProtected gates every request under the protected prefix.
// With no valid session the request is rejected; a safe-method request
// for the protected root starts the upstream handoff; everything else is
// reverse-proxied with identity headers.
func (g *Gateway) handleProtected(w http.ResponseWriter, r *http.Request) {
	session, ok := g.sessionFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeNoSession, "no valid session")
		return
	}

	identity := &auth.Identity{
		UserID: session.UserID,
		Email:  session.Email,
		Roles:  session.Roles,
	}
	r = r.WithContext(auth.WithIdentity(r.Context(), identity))

	if g.isHandoffEntry(r) {
		g.handleHandoff(w, r, identity)
		return
	}

	g.proxy.ServeHTTP(w, r)
}

// isHandoffEntry reports whether this request is the first navigation
// into the app: a safe read of the protected root path.
func (g *Gateway) isHandoffEntry(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	prefix := strings.TrimSuffix(g.config.Upstream.ProtectedPrefix, "/")
	path := strings.TrimSuffix(r.URL.Path, "/")
	return path == prefix
}

// handleHandoff exchanges the local session for a one-time upstream
// access token and redirects the browser to the upstream's
// session-completion endpoint. On upstream failure the request fails;
// there is no fallback to direct proxying.
func (g *Gateway) handleHandoff(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	handoffURL := g.upstream.JoinPath(g.config.Upstream.HandoffPath).String()

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, handoffURL, nil)
	if err != nil {
		g.failHandoff(w, fmt.Errorf("building handoff request: %w", err))
		return
	}
	req.Header.Set(HeaderUserID, identity.UserID)
	req.Header.Set(HeaderEmail, identity.Email)
	req.Header.Set(HeaderRoles, strings.Join(identity.Roles, ","))

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		g.failHandoff(w, fmt.Errorf("calling upstream handoff: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.failHandoff(w, fmt.Errorf("upstream handoff returned status %d", resp.StatusCode))
		return
	}

	var handoff handoffResponse
	if err := json.NewDecoder(resp.Body).Decode(&handoff); err != nil {
		g.failHandoff(w, fmt.Errorf("parsing handoff response: %w", err))
		return
	}
	if handoff.Token == "" {
		g.failHandoff(w, fmt.Errorf("upstream handoff returned no token"))
		return
	}

	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	redirect := g.upstream.JoinPath(g.config.Upstream.CompletePath)
	q := url.Values{}
	q.Set("token", handoff.Token)
	q.Set("next", target)
	redirect.RawQuery = q.Encode()

	g.metrics.RecordHandoff("ok")
	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func (g *Gateway) failHandoff(w http.ResponseWriter, err error) {
	g.logger.Error("upstream handoff failed", "error", err)
	g.metrics.RecordHandoff("failed")
	writeError(w, http.StatusInternalServerError, CodeSSOHandoffFailed, "upstream handoff failed")
}
