// ABOUTME: Shared test harness for gateway HTTP tests
// ABOUTME: Builds a gateway with a temp sqlite store, fixed keys, and signed assertions

package gateway

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"log/slog"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/2389/handoff-gateway/internal/config"
	"github.com/2389/handoff-gateway/internal/sso"
	"github.com/2389/handoff-gateway/internal/store"
)

const testKid = "test-key"

// testEnv bundles everything a gateway HTTP test needs.
type testEnv struct {
	gateway *Gateway
	store   *store.SQLiteStore
	signKey *rsa.PrivateKey
	cfg     *config.Config
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:   config.ServerConfig{HTTPAddr: "127.0.0.1:0"},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "gateway.db")},
		SSO: config.SSOConfig{
			Issuer:       "ext",
			Audience:     "handoff",
			JWKSURL:      "http://unused.invalid/jwks.json",
			JWKSCacheTTL: time.Minute,
		},
		Session: config.SessionConfig{
			Issuer:         "handoff-gateway",
			Audience:       "vibe-app",
			Secret:         "gateway-test-secret-32-bytes-ok!",
			CookieName:     "vibe_session",
			SameSite:       "none",
			TTL:            10 * time.Minute,
			NonceRetention: 24 * time.Hour,
		},
		Upstream: config.UpstreamConfig{
			BaseURL:         "http://upstream.invalid",
			ProtectedPrefix: "/app",
			HandoffPath:     "/api/sso/handoff",
			CompletePath:    "/sso/complete",
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"https://vibe.example.com"},
		},
		Logging: config.LoggingConfig{Level: "error"},
	}
}

// newTestEnv builds a gateway around a temp store and a fixed key set.
// mutate, if non-nil, adjusts the config before the gateway is built.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig(t)
	if mutate != nil {
		mutate(cfg)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	signKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keys := &sso.StaticKeys{JWKS: &sso.JWKS{Keys: []sso.JWK{{
		Kty: "RSA",
		Use: "sig",
		Kid: testKid,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(signKey.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(signKey.PublicKey.E)).Bytes()),
	}}}}

	logger := slog.New(slog.DiscardHandler)
	gw, err := New(cfg, st, keys, logger)
	require.NoError(t, err)

	return &testEnv{gateway: gw, store: st, signKey: signKey, cfg: cfg}
}

// signAssertion signs claims with the environment's key under testKid.
func (e *testEnv) signAssertion(t *testing.T, claims *sso.AssertionClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid
	signed, err := token.SignedString(e.signKey)
	require.NoError(t, err)
	return signed
}

// validAssertion returns a claim set that passes every check.
func validAssertion(nonce string) *sso.AssertionClaims {
	return &sso.AssertionClaims{
		Email: "a@b.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "ext",
			Audience:  jwt.ClaimStrings{"handoff"},
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ID:        nonce,
		},
	}
}

// seedUser inserts a user record into the test directory.
func (e *testEnv) seedUser(t *testing.T, email string, status store.UserStatus, roles ...string) {
	t.Helper()
	err := e.store.UpsertUser(t.Context(), &store.User{
		Email:      email,
		ExternalID: "u1",
		Status:     status,
		Roles:      roles,
	})
	require.NoError(t, err)
}
