// ABOUTME: Signature verification for externally-signed identity assertions
// ABOUTME: RS256 only, key selected by kid hint, fails closed on any mismatch

package sso

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verification errors
var (
	// ErrInvalidAssertion covers malformed tokens, bad signatures, and
	// disallowed algorithms
	ErrInvalidAssertion = errors.New("invalid assertion")
)

// AssertionClaims is the claim set carried by an external identity assertion.
type AssertionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks assertion signatures against the authority's key set.
type Verifier struct {
	keys KeyProvider
}

// NewVerifier creates a verifier backed by the given key provider.
func NewVerifier(keys KeyProvider) *Verifier {
	return &Verifier{keys: keys}
}

// Verify parses the assertion, selects the signing key, and checks the
// signature. Only RS256 is accepted; any other declared algorithm is
// rejected before key lookup to prevent algorithm confusion. Temporal and
// semantic claim checks are deliberately not performed here; see
// ValidateClaims.
//
// Key selection: an assertion naming a kid gets exactly that key. Without
// a kid hint the first key in the set is used, which is only safe while a
// single signing key is in rotation.
func (v *Verifier) Verify(ctx context.Context, assertion string) (*AssertionClaims, error) {
	claims := &AssertionClaims{}

	token, err := jwt.ParseWithClaims(assertion, claims, func(token *jwt.Token) (interface{}, error) {
		jwks, err := v.keys.Keys(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading key set: %w", err)
		}

		var key *JWK
		if kid, ok := token.Header["kid"].(string); ok && kid != "" {
			key, err = jwks.KeyByID(kid)
		} else {
			key, err = jwks.First()
		}
		if err != nil {
			return nil, err
		}

		return key.PublicKey()
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}
	if !token.Valid {
		return nil, ErrInvalidAssertion
	}

	return claims, nil
}
