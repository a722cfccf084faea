// Package config handles configuration loading for handoff-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	session:
//	  secret: "${HANDOFF_SESSION_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	sso:
//	  jwks_cache_ttl: "10m"
//	session:
//	  ttl: "600s"
//	  nonce_retention: "24h"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/handoff/gateway.db"
//
// External identity authority:
//
//	sso:
//	  issuer: "https://sso.example.com"
//	  audience: "vibe-handoff"
//	  jwks_url: "https://sso.example.com/.well-known/jwks.json"
//
// Local session tokens:
//
//	session:
//	  issuer: "handoff-gateway"
//	  audience: "vibe-app"
//	  secret: "${HANDOFF_SESSION_SECRET}"  # min 32 bytes
//	  cookie_name: "vibe_session"
//	  same_site: "none"                    # none, lax, strict
//
// Protected upstream:
//
//	upstream:
//	  base_url: "http://localhost:3000"
//	  protected_prefix: "/app"
//
// # Validation
//
// Load() validates:
//
//   - Session secret minimum length (32 bytes)
//   - Issuer/audience presence for both token domains
//   - Upstream base URL is absolute
//   - Duration format validity
package config
