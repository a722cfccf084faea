// ABOUTME: JWKS fetching and caching for the external identity authority
// ABOUTME: Lazily refreshes the public key set on TTL expiry, RSA keys only

package sso

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// Key set errors
var (
	// ErrEmptyKeySet means the authority published a key set with no keys
	ErrEmptyKeySet = errors.New("key set contains no keys")

	// ErrKeyNotFound means no key in the set matches the requested key ID
	ErrKeyNotFound = errors.New("key not found in key set")
)

// JWKS is the key set document published by the identity authority.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK is a single public key entry. Only RSA signing keys are used;
// entries with other key types are carried but never selected.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

// PublicKey converts the JWK into an rsa.PublicKey.
func (k *JWK) PublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type: %s", k.Kty)
	}
	if k.N == "" || k.E == "" {
		return nil, errors.New("RSA key missing n or e parameter")
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e*256 + int(b)
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

// KeyByID finds a key in the set by key ID.
// Returns ErrKeyNotFound if no key matches; never falls back to another key.
func (j *JWKS) KeyByID(kid string) (*JWK, error) {
	for i := range j.Keys {
		if j.Keys[i].Kid == kid {
			return &j.Keys[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, kid)
}

// First returns the first key in the set. This is only safe when exactly
// one signing key is in rotation; callers use it when an assertion carries
// no kid hint.
func (j *JWKS) First() (*JWK, error) {
	if len(j.Keys) == 0 {
		return nil, ErrEmptyKeySet
	}
	return &j.Keys[0], nil
}

// KeyProvider supplies the current key set for assertion verification.
// Tests substitute a StaticKeys to avoid network access.
type KeyProvider interface {
	Keys(ctx context.Context) (*JWKS, error)
}

// KeyCache fetches the authority's JWKS over HTTP and caches it for a TTL.
// Concurrent refreshes may race; last writer wins, which is acceptable
// because the material is public and staleness only matters at TTL
// granularity.
type KeyCache struct {
	url        string
	ttl        time.Duration
	httpClient *http.Client

	mu        sync.RWMutex
	keys      *JWKS
	fetchedAt time.Time
}

// NewKeyCache creates a key cache for the given JWKS endpoint.
func NewKeyCache(url string, ttl time.Duration) *KeyCache {
	return &KeyCache{
		url: url,
		ttl: ttl,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Keys returns the cached key set, refreshing it first if the cache is
// empty or past its TTL.
func (c *KeyCache) Keys(ctx context.Context) (*JWKS, error) {
	c.mu.RLock()
	if c.keys != nil && time.Since(c.fetchedAt) < c.ttl {
		keys := c.keys
		c.mu.RUnlock()
		return keys, nil
	}
	c.mu.RUnlock()

	return c.Refresh(ctx)
}

// Refresh fetches a fresh key set from the endpoint and replaces the cache.
func (c *KeyCache) Refresh(ctx context.Context) (*JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building JWKS request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading JWKS response: %w", err)
	}

	var jwks JWKS
	if err := json.Unmarshal(body, &jwks); err != nil {
		return nil, fmt.Errorf("parsing JWKS: %w", err)
	}
	if len(jwks.Keys) == 0 {
		return nil, ErrEmptyKeySet
	}

	c.mu.Lock()
	c.keys = &jwks
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return &jwks, nil
}

// StaticKeys is a KeyProvider backed by a fixed key set, for tests and
// offline verification.
type StaticKeys struct {
	JWKS *JWKS
}

// Keys returns the fixed key set.
func (s *StaticKeys) Keys(ctx context.Context) (*JWKS, error) {
	if s.JWKS == nil || len(s.JWKS.Keys) == 0 {
		return nil, ErrEmptyKeySet
	}
	return s.JWKS, nil
}
