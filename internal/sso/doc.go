// Package sso verifies identity assertions issued by the external
// identity authority.
//
// # Verification Pipeline
//
// Verification happens in two deliberate stages:
//
//  1. Signature: Verifier checks the RS256 signature against the
//     authority's published key set (JWKS), selecting the key named by
//     the assertion's kid header. Assertions declaring any other
//     algorithm are rejected before key lookup.
//
//  2. Semantics: ValidateClaims checks issuer, audience, expiry,
//     not-before, and the email claim, in that order, with no clock-skew
//     leeway.
//
// # Key Caching
//
// KeyCache fetches the JWKS endpoint lazily and holds the result for a
// configurable TTL (default 10 minutes). The cache is the only shared
// mutable state in the gateway; concurrent refreshes race safely because
// the key material is public and last-writer-wins staleness is bounded
// by the TTL.
//
// # Single-Key Constraint
//
// When an assertion carries no kid hint, the first key in the set is
// used. This is only correct while the authority keeps exactly one
// signing key in rotation; multi-key rotation requires kid hints.
package sso
