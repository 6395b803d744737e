// Package server provides the HTTP REST API for the slideshow editor.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jonathan/slideshow-studio/internal/config"
	"github.com/jonathan/slideshow-studio/internal/generation"
	"github.com/jonathan/slideshow-studio/internal/ingestion"
	"github.com/jonathan/slideshow-studio/internal/llm"
	"github.com/jonathan/slideshow-studio/internal/logging"
	"github.com/jonathan/slideshow-studio/internal/rendering"
	"github.com/jonathan/slideshow-studio/internal/server/middleware"
	"github.com/jonathan/slideshow-studio/internal/server/ratelimit"
	"github.com/jonathan/slideshow-studio/internal/sessions"
)

const shutdownTimeout = 30 * time.Second

// Options wires a Server. Store, LLM, JWT and Passwords are required.
type Options struct {
	Config    *config.Config
	Store     Store
	LLM       llm.Client
	JWT       *config.JWTConfig
	Passwords *config.PasswordConfig
	RateLimit *ratelimit.Config
	Renderer  rendering.Renderer
	Fetcher   *ingestion.Fetcher
	Logger    *logging.Logger
}

// Server represents the HTTP server
type Server struct {
	cfg         *config.Config
	store       Store
	generator   *generation.Generator
	sessions    *sessions.Store
	renderer    rendering.Renderer
	fetcher     *ingestion.Fetcher
	rateLimiter *ratelimit.Limiter
	jwt         *JWTService
	users       *UserService
	logger      *logging.Logger
	handler     http.Handler
	httpServer  *http.Server
}

// New creates a server from opts
func New(opts Options) (*Server, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("server: store is required")
	case opts.LLM == nil:
		return nil, errors.New("server: llm client is required")
	case opts.JWT == nil:
		return nil, errors.New("server: jwt config is required")
	case opts.Passwords == nil:
		return nil, errors.New("server: password config is required")
	}
	cfg := opts.Config
	if cfg == nil {
		d := config.Defaults()
		cfg = &d
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = rendering.NewNativeRenderer()
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = ingestion.NewFetcher(ingestion.Options{UseBrowser: cfg.UseBrowser, Logger: logger})
	}

	s := &Server{
		cfg:   cfg,
		store: opts.Store,
		generator: generation.New(opts.LLM,
			generation.WithTier(llm.ParseTier(cfg.ModelTier)),
			generation.WithLogger(logger),
		),
		sessions: sessions.NewStore(opts.Store, sessions.Options{
			TTL:       cfg.SessionTTL.D(),
			SaveDelay: cfg.PersistDebounce.D(),
			Logger:    logger,
		}),
		renderer:    renderer,
		fetcher:     fetcher,
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		jwt:         NewJWTService(opts.JWT),
		users:       NewUserService(opts.Store, opts.Passwords),
		logger:      logger.Component("server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("/", middleware.AuthMiddleware(s.jwt.AsTokenValidator())(s.protectedRoutes()))

	s.handler = s.withRateLimit(
		middleware.Logging(logger.Component("http"))(
			middleware.CORS(cfg.AllowedOrigins)(mux)))
	return s, nil
}

// protectedRoutes are the endpoints that require a bearer token
func (s *Server) protectedRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/me", s.handleMe)
	mux.HandleFunc("PUT /auth/password", s.handleUpdatePassword)

	// Slideshows
	mux.HandleFunc("GET /slideshows", s.handleListSlideshows)
	mux.HandleFunc("POST /slideshows", s.handleCreateSlideshow)
	mux.HandleFunc("GET /slideshows/{id}", s.handleGetSlideshow)
	mux.HandleFunc("PATCH /slideshows/{id}", s.handleUpdateSlideshow)
	mux.HandleFunc("DELETE /slideshows/{id}", s.handleDeleteSlideshow)

	// Stored slides, bypassing the editor
	mux.HandleFunc("GET /slideshows/{id}/slides", s.handleListSlides)
	mux.HandleFunc("POST /slideshows/{id}/slides", s.handleAppendSlide)
	mux.HandleFunc("PUT /slideshows/{id}/slides", s.handleReplaceSlides)
	mux.HandleFunc("POST /slideshows/{id}/slides/swap", s.handleSwapSlides)
	mux.HandleFunc("PATCH /slides/{id}", s.handleUpdateSlide)
	mux.HandleFunc("DELETE /slides/{id}", s.handleDeleteSlide)

	// Editor
	mux.HandleFunc("GET /slideshows/{id}/editor", s.handleEditorSnapshot)
	mux.HandleFunc("POST /slideshows/{id}/editor/generate", s.handleGenerate)
	mux.HandleFunc("POST /slideshows/{id}/editor/slides", s.handleEditorAddSlide)
	mux.HandleFunc("PATCH /slideshows/{id}/editor/slides/{slide_id}", s.handleEditorPatchSlide)
	mux.HandleFunc("POST /slideshows/{id}/editor/slides/{slide_id}/move", s.handleEditorMoveSlide)
	mux.HandleFunc("DELETE /slideshows/{id}/editor/slides/{slide_id}", s.handleEditorDeleteSlide)
	mux.HandleFunc("POST /slideshows/{id}/editor/slides/{slide_id}/background", s.handleEditorBackground)
	mux.HandleFunc("POST /slideshows/{id}/editor/slides/{slide_id}/regenerate", s.handleRegenerate)
	mux.HandleFunc("PUT /slideshows/{id}/editor/masters/{category}", s.handleSetMaster)
	mux.HandleFunc("POST /slideshows/{id}/editor/apply-all", s.handleApplyToAll)
	mux.HandleFunc("POST /slideshows/{id}/editor/select", s.handleSelect)
	mux.HandleFunc("POST /slideshows/{id}/editor/flush", s.handleFlush)
	mux.HandleFunc("POST /slideshows/{id}/editor/reset", s.handleReset)

	// Export
	mux.HandleFunc("GET /slideshows/{id}/export.json", s.handleExportJSON)
	mux.HandleFunc("GET /slideshows/{id}/slides/{index}/image", s.handleSlideImage)
	mux.HandleFunc("GET /slideshows/{id}/export.zip", s.handleExportZip)

	return mux
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves on the configured port until ctx is canceled or the process
// receives SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // generation and zip export are slow
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.Close(context.Background())
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.Close(shutdownCtx)
	s.logger.Info("server stopped")
	return nil
}

// Close saves every open editor and stops background work
func (s *Server) Close(ctx context.Context) {
	if err := s.sessions.CloseAll(ctx); err != nil {
		s.logger.Error("failed to save open editors", "error", err)
	}
	s.rateLimiter.Stop()
}

// handleHealth reports liveness and database reachability
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"status": "ok", "open_editors": s.sessions.Len()})
}

// withRateLimit rejects requests over their rule's limit with 429
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID uses the remote IP. Forwarded headers are not trusted.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Round(time.Second).Seconds())
		secs = max(secs, 1)
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	s.logger.Warn("rate limit exceeded", "path", r.URL.Path, "method", r.Method, "limit", info.Limit)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
