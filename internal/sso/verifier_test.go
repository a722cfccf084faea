// ABOUTME: Tests for assertion signature verification and key selection
// ABOUTME: Covers kid matching, no-kid fallback, algorithm rejection, fail-closed paths

package sso

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKey generates an RSA key pair and the JWK for its public half.
func testKey(t *testing.T, kid string) (*rsa.PrivateKey, JWK) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwk := JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kid,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
	}
	return key, jwk
}

func signAssertion(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func defaultClaims() *AssertionClaims {
	return &AssertionClaims{
		Email: "a@b.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "ext",
			Audience:  jwt.ClaimStrings{"handoff"},
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ID:        "n1",
		},
	}
}

func TestVerifier_ValidAssertion(t *testing.T) {
	key, jwk := testKey(t, "key-1")
	verifier := NewVerifier(&StaticKeys{JWKS: &JWKS{Keys: []JWK{jwk}}})

	assertion := signAssertion(t, key, "key-1", defaultClaims())

	claims, err := verifier.Verify(context.Background(), assertion)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "n1", claims.ID)
}

func TestVerifier_NoKidFallsBackToFirstKey(t *testing.T) {
	key, jwk := testKey(t, "only-key")
	verifier := NewVerifier(&StaticKeys{JWKS: &JWKS{Keys: []JWK{jwk}}})

	assertion := signAssertion(t, key, "", defaultClaims())

	_, err := verifier.Verify(context.Background(), assertion)
	require.NoError(t, err)
}

func TestVerifier_UnknownKid(t *testing.T) {
	key, jwk := testKey(t, "key-1")
	verifier := NewVerifier(&StaticKeys{JWKS: &JWKS{Keys: []JWK{jwk}}})

	assertion := signAssertion(t, key, "key-2", defaultClaims())

	_, err := verifier.Verify(context.Background(), assertion)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAssertion)
}

func TestVerifier_WrongKey(t *testing.T) {
	_, jwk := testKey(t, "key-1")
	otherKey, _ := testKey(t, "key-1")
	verifier := NewVerifier(&StaticKeys{JWKS: &JWKS{Keys: []JWK{jwk}}})

	// Signed by a different private key than the one published
	assertion := signAssertion(t, otherKey, "key-1", defaultClaims())

	_, err := verifier.Verify(context.Background(), assertion)
	assert.ErrorIs(t, err, ErrInvalidAssertion)
}

func TestVerifier_RejectsHMACAlgorithm(t *testing.T) {
	_, jwk := testKey(t, "key-1")
	verifier := NewVerifier(&StaticKeys{JWKS: &JWKS{Keys: []JWK{jwk}}})

	// An HS256 token "signed" with public key material is the classic
	// algorithm-confusion attack shape.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, defaultClaims())
	token.Header["kid"] = "key-1"
	signed, err := token.SignedString([]byte("attacker-chosen-secret"))
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidAssertion)
}

func TestVerifier_EmptyKeySet(t *testing.T) {
	key, _ := testKey(t, "key-1")
	verifier := NewVerifier(&StaticKeys{JWKS: &JWKS{}})

	assertion := signAssertion(t, key, "key-1", defaultClaims())

	_, err := verifier.Verify(context.Background(), assertion)
	assert.ErrorIs(t, err, ErrInvalidAssertion)
}

func TestVerifier_MalformedToken(t *testing.T) {
	_, jwk := testKey(t, "key-1")
	verifier := NewVerifier(&StaticKeys{JWKS: &JWKS{Keys: []JWK{jwk}}})

	for _, tok := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := verifier.Verify(context.Background(), tok)
		assert.ErrorIs(t, err, ErrInvalidAssertion, "token %q", tok)
	}
}

func TestVerifier_ExpiredSignatureStillVerifies(t *testing.T) {
	// Temporal checks belong to ValidateClaims; the signature stage must
	// not reject an expired assertion on its own.
	key, jwk := testKey(t, "key-1")
	verifier := NewVerifier(&StaticKeys{JWKS: &JWKS{Keys: []JWK{jwk}}})

	claims := defaultClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	assertion := signAssertion(t, key, "key-1", claims)

	got, err := verifier.Verify(context.Background(), assertion)
	require.NoError(t, err)

	err = ValidateClaims(got, "ext", "handoff", time.Now())
	assert.ErrorIs(t, err, ErrClaimInvalid)
}
