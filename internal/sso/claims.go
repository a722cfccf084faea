// ABOUTME: Semantic validation of assertion claims after signature verification
// ABOUTME: Checks issuer, audience, expiry, not-before, and email in order

package sso

import (
	"errors"
	"fmt"
	"time"
)

// ErrClaimInvalid is the base error for claim validation failures.
// Wrapped errors name the failing claim.
var ErrClaimInvalid = errors.New("claim validation failed")

// ValidateClaims checks the assertion's claims against the configured
// issuer and audience. Checks run in a fixed order and the first failure
// aborts. No clock-skew leeway is applied, so verification is sensitive
// to clock drift between the gateway and the authority.
func ValidateClaims(claims *AssertionClaims, issuer, audience string, now time.Time) error {
	if claims.Issuer != issuer {
		return fmt.Errorf("%w: iss %q does not match expected issuer", ErrClaimInvalid, claims.Issuer)
	}

	if !containsAudience(claims.Audience, audience) {
		return fmt.Errorf("%w: aud %v does not include expected audience", ErrClaimInvalid, claims.Audience)
	}

	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now) {
		return fmt.Errorf("%w: exp is in the past", ErrClaimInvalid)
	}

	if claims.NotBefore != nil && claims.NotBefore.After(now) {
		return fmt.Errorf("%w: nbf is in the future", ErrClaimInvalid)
	}

	if claims.Email == "" {
		return fmt.Errorf("%w: email claim is missing or empty", ErrClaimInvalid)
	}

	return nil
}

func containsAudience(aud []string, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
