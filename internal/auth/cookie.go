// ABOUTME: Cookie transport for the session token
// ABOUTME: Fixed security attributes, tolerant decoding, clear via MaxAge zero

package auth

import (
	"net/http"
	"strings"
	"time"
)

// CookieCodec encodes and decodes the session cookie with fixed security
// attributes. HttpOnly and Secure are always set; SameSite is
// configurable because cross-site handoff needs SameSite=None while
// same-site deployments can tighten it.
type CookieCodec struct {
	Name     string
	Domain   string
	Path     string
	SameSite http.SameSite
	MaxAge   time.Duration
}

// NewCookieCodec creates a codec for the named cookie. Path defaults to
// the site root.
func NewCookieCodec(name, domain, sameSite string, maxAge time.Duration) *CookieCodec {
	return &CookieCodec{
		Name:     name,
		Domain:   domain,
		Path:     "/",
		SameSite: ParseSameSite(sameSite),
		MaxAge:   maxAge,
	}
}

// ParseSameSite maps a config string to the http.SameSite policy.
// Unknown values fall back to SameSite=None, the mode the cross-site
// handoff requires.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteNoneMode
	}
}

// Set writes the session cookie with the codec's security attributes.
func (c *CookieCodec) Set(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Domain:   c.Domain,
		Path:     c.Path,
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: c.SameSite,
	})
}

// Clear expires the session cookie by re-setting it with MaxAge zero.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Domain:   c.Domain,
		Path:     c.Path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		SameSite: c.SameSite,
	})
}

// Read extracts the session cookie value from the request.
// Returns false if the cookie is absent.
func (c *CookieCodec) Read(r *http.Request) (string, bool) {
	values := ParseCookieHeader(r.Header.Get("Cookie"))
	v, ok := values[c.Name]
	return v, ok
}

// ParseCookieHeader parses a raw Cookie header into a name→value map.
// Malformed pairs are skipped rather than failing the whole parse.
func ParseCookieHeader(header string) map[string]string {
	values := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			continue
		}
		values[name] = strings.Trim(value, `"`)
	}
	return values
}
