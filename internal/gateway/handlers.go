// ABOUTME: HTTP handlers for the assertion exchange and session endpoints
// ABOUTME: Implements /auth/vibe-access, /auth/me, /auth/logout, health, and /migrate

package gateway

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/2389/handoff-gateway/internal/sso"
	"github.com/2389/handoff-gateway/internal/store"
)

// ExchangeRequest is the JSON request body for POST /auth/vibe-access.
type ExchangeRequest struct {
	JWT   string `json:"jwt"`
	Email string `json:"email"`
}

// MeResponse is the JSON response for GET /auth/me.
type MeResponse struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

// handleExchange handles POST /auth/vibe-access.
//
// It verifies the external assertion cryptographically and semantically,
// records the nonce to block replays, checks the local user directory,
// and answers 204 with the session cookie set.
//
// The nonce is recorded before the directory check, so a denied user's
// nonce is burned even though no session was issued. A resubmitted
// assertion can never succeed regardless of how the original attempt
// ended.
func (g *Gateway) handleExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		g.failExchange(w, http.StatusBadRequest, CodeInvalidBody, "content type must be application/json")
		return
	}

	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.failExchange(w, http.StatusBadRequest, CodeInvalidBody, "malformed JSON body")
		return
	}
	if req.JWT == "" || req.Email == "" {
		g.failExchange(w, http.StatusBadRequest, CodeInvalidBody, "jwt and email are required")
		return
	}

	claims, err := g.verifier.Verify(ctx, req.JWT)
	if err != nil {
		g.logger.Warn("assertion verification failed", "error", err)
		g.failExchange(w, http.StatusUnauthorized, CodeJWTInvalid, "assertion verification failed")
		return
	}

	if err := sso.ValidateClaims(claims, g.config.SSO.Issuer, g.config.SSO.Audience, time.Now()); err != nil {
		g.logger.Warn("claim validation failed", "error", err)
		g.failExchange(w, http.StatusUnauthorized, CodeJWTInvalid, "assertion claims invalid")
		return
	}

	if !strings.EqualFold(claims.Email, req.Email) {
		g.failExchange(w, http.StatusUnauthorized, CodeEmailMismatch, "email does not match assertion")
		return
	}

	// Assertions without a nonce skip the replay check. Accepted, but it
	// weakens replay protection to the assertion's own lifetime.
	if claims.ID != "" {
		firstSeen, err := g.store.RecordNonce(ctx, claims.ID, time.Now())
		if err != nil {
			g.logger.Error("recording nonce", "error", err)
			g.failExchange(w, http.StatusInternalServerError, CodeInternalError, "")
			return
		}
		if !firstSeen {
			g.failExchange(w, http.StatusConflict, CodeReplayedJTI, "assertion has already been used")
			return
		}
	}

	user, err := g.store.GetUserByEmail(ctx, claims.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		g.failExchange(w, http.StatusForbidden, CodeUserNotAllowed, "user is not allowed")
		return
	}
	if err != nil {
		g.logger.Error("user lookup failed", "error", err)
		g.failExchange(w, http.StatusInternalServerError, CodeInternalError, "")
		return
	}
	if user.Suspended() {
		g.failExchange(w, http.StatusForbidden, CodeUserSuspended, "user is suspended")
		return
	}

	subject := user.ExternalID
	if subject == "" {
		subject = claims.Subject
	}

	token, err := g.sessions.Issue(subject, user.Email, user.Roles)
	if err != nil {
		g.logger.Error("issuing session", "error", err)
		g.failExchange(w, http.StatusInternalServerError, CodeInternalError, "")
		return
	}

	g.metrics.RecordExchange("")
	g.cookies.Set(w, token)
	w.WriteHeader(http.StatusNoContent)
}

// failExchange records the outcome and writes the error response.
func (g *Gateway) failExchange(w http.ResponseWriter, status int, code, message string) {
	g.metrics.RecordExchange(code)
	writeError(w, status, code, message)
}

// sessionFromRequest resolves the current session from the cookie.
// Invalid, expired, and wrongly-signed tokens are deliberately not
// distinguished from an absent cookie.
func (g *Gateway) sessionFromRequest(r *http.Request) (*MeResponse, bool) {
	token, ok := g.cookies.Read(r)
	if !ok {
		return nil, false
	}

	claims, err := g.sessions.Verify(token)
	if err != nil {
		return nil, false
	}

	return &MeResponse{
		UserID: claims.Subject,
		Email:  claims.Email,
		Roles:  claims.Roles,
	}, true
}

// handleMe handles GET /auth/me.
func (g *Gateway) handleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := g.sessionFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeNoSession, "no valid session")
		return
	}

	if session.Roles == nil {
		session.Roles = []string{}
	}
	writeJSON(w, http.StatusOK, session)
}

// handleLogout handles POST /auth/logout. Clearing the cookie is the
// whole logout; there is no server-side session to revoke.
func (g *Gateway) handleLogout(w http.ResponseWriter, r *http.Request) {
	g.cookies.Clear(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "logged out",
	})
}

// handleHealth handles GET /auth/health, the liveness probe.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleReady handles GET /health/ready, which also checks the database.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := g.store.Ping(r.Context()); err != nil {
		g.logger.Error("readiness check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, CodeInternalError, "database not reachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleMigrate handles GET /migrate, gated by the migration.enabled flag.
func (g *Gateway) handleMigrate(w http.ResponseWriter, r *http.Request) {
	if !g.config.Migration.Enabled {
		writeError(w, http.StatusForbidden, CodeForbidden, "migration endpoint is disabled")
		return
	}

	if err := g.store.Migrate(r.Context()); err != nil {
		g.logger.Error("migration failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeMigrationFailed, "migration failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "schema applied",
	})
}
