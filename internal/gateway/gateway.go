// ABOUTME: Gateway wiring: router, middleware, HTTP server lifecycle
// ABOUTME: Assembles the handoff path and the protected-route proxy path

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/handoff-gateway/internal/auth"
	"github.com/2389/handoff-gateway/internal/config"
	"github.com/2389/handoff-gateway/internal/sso"
	"github.com/2389/handoff-gateway/internal/store"
)

// Store is the persistence surface the gateway needs.
// *store.SQLiteStore satisfies it.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	RecordNonce(ctx context.Context, nonce string, firstSeen time.Time) (bool, error)
	DeleteNoncesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Gateway accepts external identity assertions, exchanges them for local
// sessions, and gates and proxies requests to the protected upstream.
type Gateway struct {
	config   *config.Config
	store    Store
	verifier *sso.Verifier
	sessions *auth.SessionIssuer
	cookies  *auth.CookieCodec
	upstream *url.URL
	proxy    *httputil.ReverseProxy
	metrics  *Collector
	registry *prometheus.Registry
	logger   *slog.Logger

	httpServer *http.Server
	done       chan struct{}
}

// New assembles a Gateway from configuration. The key provider is
// injected so tests can substitute a fixed key set without network
// access; production wiring passes an sso.KeyCache.
func New(cfg *config.Config, st Store, keys sso.KeyProvider, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sessions, err := auth.NewSessionIssuer(
		[]byte(cfg.Session.Secret),
		cfg.Session.Issuer,
		cfg.Session.Audience,
		cfg.Session.TTL,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session issuer: %w", err)
	}

	upstream, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream base URL: %w", err)
	}

	registry := prometheus.NewRegistry()
	g := &Gateway{
		config:   cfg,
		store:    st,
		verifier: sso.NewVerifier(keys),
		sessions: sessions,
		cookies:  auth.NewCookieCodec(cfg.Session.CookieName, cfg.Session.CookieDomain, cfg.Session.SameSite, cfg.Session.TTL),
		upstream: upstream,
		metrics:  NewCollector(registry),
		registry: registry,
		logger:   logger.With("component", "gateway"),
		done:     make(chan struct{}),
	}

	g.proxy = g.buildProxy()

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           g.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// routes builds the router: middleware chain, auth endpoints, migration
// endpoint, metrics, and the protected-prefix catch-all.
func (g *Gateway) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(g.requestLogger)
	r.Use(g.originGuard)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   g.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/vibe-access", g.handleExchange)
	r.Get("/auth/me", g.handleMe)
	r.Post("/auth/logout", g.handleLogout)
	r.Get("/auth/health", g.handleHealth)
	r.Get("/health/ready", g.handleReady)
	r.Get("/migrate", g.handleMigrate)

	if g.config.Metrics.Enabled {
		r.Method(http.MethodGet, g.config.Metrics.Path,
			promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{}))
	}

	prefix := strings.TrimSuffix(g.config.Upstream.ProtectedPrefix, "/")
	r.Handle(prefix, http.HandlerFunc(g.handleProtected))
	r.Handle(prefix+"/*", http.HandlerFunc(g.handleProtected))

	return r
}

// requestLogger emits one structured log line per request.
func (g *Gateway) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		g.logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// statusWriter captures the response status code for logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Start begins serving HTTP and launches the nonce retention sweeper.
// It blocks until the server stops.
func (g *Gateway) Start() error {
	go g.sweepNonces()

	g.logger.Info("starting gateway",
		"http_addr", g.config.Server.HTTPAddr,
		"protected_prefix", g.config.Upstream.ProtectedPrefix,
		"upstream", g.config.Upstream.BaseURL,
	)

	if err := g.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and the sweeper.
func (g *Gateway) Shutdown(ctx context.Context) error {
	close(g.done)
	return g.httpServer.Shutdown(ctx)
}

// sweepNonces periodically garbage-collects nonce records older than the
// retention window. Replay protection only needs to outlive the maximum
// assertion lifetime; retention is kept much longer than that.
func (g *Gateway) sweepNonces() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			cutoff := time.Now().Add(-g.config.Session.NonceRetention)
			n, err := g.store.DeleteNoncesBefore(ctx, cutoff)
			cancel()
			if err != nil {
				g.logger.Error("nonce sweep failed", "error", err)
				continue
			}
			if n > 0 {
				g.logger.Info("pruned replay nonces", "count", n)
			}
		}
	}
}

// Handler exposes the assembled router for tests.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}
