// Package auth provides local session tokens and their cookie transport
// for handoff-gateway.
//
// # Session Tokens
//
// Sessions are compact HS256-signed JWTs minted after a successful
// assertion exchange. The payload carries issuer, audience, subject
// (the external user id), email, roles, issued-at, and expiry
// (issued-at plus a short TTL, 600 seconds by default).
//
// Tokens are stateless bearer credentials: verification recomputes the
// HMAC and checks expiry from the token alone, so the gateway keeps no
// session table and scales horizontally without shared session state.
//
//	issuer, _ := auth.NewSessionIssuer(secret, "handoff-gateway", "vibe-app", 10*time.Minute)
//	token, _ := issuer.Issue("u1", "a@b.com", []string{"developer"})
//	claims, _ := issuer.Verify(token)
//
// # Cookie Transport
//
// CookieCodec writes the token as an HttpOnly, Secure cookie. SameSite
// is configurable; cross-site handoff requires SameSite=None, which is
// the most permissive mode that still keeps the cookie out of
// third-party sends. Decoding tolerates malformed cookie pairs by
// skipping them. Clearing re-sets the cookie with MaxAge zero.
//
// # Identity Propagation
//
// The session gate attaches the verified Identity to the request context
// with WithIdentity; downstream handlers read it back with FromContext.
package auth
