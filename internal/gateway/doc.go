// Package gateway implements the authentication handoff and
// session-relay HTTP surface.
//
// # Handoff Path
//
// POST /auth/vibe-access exchanges an externally-signed identity
// assertion for a local session cookie:
//
//	verify signature (JWKS) → validate claims → record nonce →
//	directory lookup → issue session → set cookie
//
// The nonce is recorded before the directory check, so replay protection
// is permanent: a burned nonce never succeeds again, even when the
// original attempt was denied downstream.
//
// # Gateway Path
//
// Requests under the protected prefix are gated by the session cookie.
// A safe-method request for the protected root triggers the one-time
// upstream handoff: the gateway calls the upstream's handoff endpoint
// with identity headers, receives a one-time access token, and answers
// 302 to the upstream's session-completion endpoint. Every other
// protected request is reverse-proxied with identity headers injected
// and the response returned unmodified.
//
// # Error Contract
//
// All failures are JSON bodies of the form {error, code, message?} with
// a stable machine-readable code. Session validation failures are never
// distinguished beyond NO_SESSION.
package gateway
