// ABOUTME: Tests for session cookie encoding, decoding, and clearing
// ABOUTME: Covers security attributes and tolerant cookie-header parsing

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCookieCodec_Set(t *testing.T) {
	codec := NewCookieCodec("vibe_session", "example.com", "none", 10*time.Minute)

	rec := httptest.NewRecorder()
	codec.Set(rec, "token-value")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}

	c := cookies[0]
	if c.Name != "vibe_session" || c.Value != "token-value" {
		t.Errorf("cookie = %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if !c.Secure {
		t.Error("cookie must be Secure")
	}
	if c.SameSite != http.SameSiteNoneMode {
		t.Errorf("SameSite = %v, want None", c.SameSite)
	}
	if c.Domain != "example.com" {
		t.Errorf("Domain = %q", c.Domain)
	}
	if c.Path != "/" {
		t.Errorf("Path = %q, want /", c.Path)
	}
	if c.MaxAge != 600 {
		t.Errorf("MaxAge = %d, want 600", c.MaxAge)
	}
}

func TestCookieCodec_Clear(t *testing.T) {
	codec := NewCookieCodec("vibe_session", "", "lax", 10*time.Minute)

	rec := httptest.NewRecorder()
	codec.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	if cookies[0].Value != "" {
		t.Errorf("cleared cookie still has value %q", cookies[0].Value)
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("cleared cookie MaxAge = %d, want negative", cookies[0].MaxAge)
	}
}

func TestCookieCodec_Read(t *testing.T) {
	codec := NewCookieCodec("vibe_session", "", "strict", time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", "other=x; vibe_session=tok123")

	got, ok := codec.Read(req)
	if !ok || got != "tok123" {
		t.Errorf("Read() = %q, %v", got, ok)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := codec.Read(req); ok {
		t.Error("Read() should report absence when no cookie is set")
	}
}

func TestParseCookieHeader_TolerantParse(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   map[string]string
	}{
		{
			name:   "simple",
			header: "a=1; b=2",
			want:   map[string]string{"a": "1", "b": "2"},
		},
		{
			name:   "skips malformed pairs",
			header: "a=1; garbage; =novalue; b=2",
			want:   map[string]string{"a": "1", "b": "2"},
		},
		{
			name:   "quoted value",
			header: `session="abc"`,
			want:   map[string]string{"session": "abc"},
		},
		{
			name:   "empty header",
			header: "",
			want:   map[string]string{},
		},
		{
			name:   "value containing equals",
			header: "jwt=a.b.c=; x=1",
			want:   map[string]string{"jwt": "a.b.c=", "x": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCookieHeader(tt.header)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestParseSameSite(t *testing.T) {
	if ParseSameSite("lax") != http.SameSiteLaxMode {
		t.Error("lax")
	}
	if ParseSameSite("Strict") != http.SameSiteStrictMode {
		t.Error("strict")
	}
	if ParseSameSite("none") != http.SameSiteNoneMode {
		t.Error("none")
	}
	if ParseSameSite("bogus") != http.SameSiteNoneMode {
		t.Error("unknown values should fall back to None")
	}
}
