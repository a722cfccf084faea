// ABOUTME: Session token issuing and verification for the local session domain
// ABOUTME: Uses HS256 signing with configurable secret and short TTL

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum accepted session secret length.
const MinSecretLength = 32

// Session token errors
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrSecretTooShort = errors.New("session secret too short")
)

// SessionClaims is the payload of a local session token.
type SessionClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// SessionIssuer mints and validates short-lived local session tokens.
// Tokens are stateless: everything needed to validate them is in the
// signed encoding, so no server-side session table exists.
type SessionIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewSessionIssuer creates a session issuer with the given secret.
// Returns ErrSecretTooShort if the secret is under MinSecretLength bytes.
func NewSessionIssuer(secret []byte, issuer, audience string, ttl time.Duration) (*SessionIssuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrSecretTooShort, MinSecretLength, len(secret))
	}
	return &SessionIssuer{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}, nil
}

// TTL returns the configured session lifetime.
func (s *SessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed session token for the given identity.
// Expiry is issued-at plus the configured TTL.
func (s *SessionIssuer) Issue(subject, email string, roles []string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates the token signature and expiry and returns the claims.
// Only HS256 is accepted; tokens declaring any other algorithm are
// rejected regardless of signature.
func (s *SessionIssuer) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	return claims, nil
}
