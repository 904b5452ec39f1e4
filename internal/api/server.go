// Package api serves the CoursePilot HTTP API: typed huma operations over a
// chi router, plus the raw SSE event stream.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/coursepilot/coursepilot/internal/bus"
	"github.com/coursepilot/coursepilot/internal/ratelimit"
	"github.com/coursepilot/coursepilot/internal/search"
	"github.com/coursepilot/coursepilot/internal/sse"
	"github.com/coursepilot/coursepilot/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// DefaultMessageRateLimit is the per-client budget of /api/v1/messages per minute.
const DefaultMessageRateLimit = 600

// Pinger is a store that can report its own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the components the server calls into.
type Deps struct {
	Services   Services
	Bus        *bus.Bus
	SSEManager *sse.Manager
	Local      store.KV
	Synced     Pinger
	Index      *search.SearchIndex
	Logger     *slog.Logger
}

// Config tunes the HTTP surface.
type Config struct {
	AllowedOrigins   []string
	MessageRateLimit int // per minute; 0 uses the default
	MessageTimeout   time.Duration
	SyncOutbox       string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	deps     Deps
	services Services
	cfg      Config

	router         *chi.Mux
	api            huma.API
	sseHandler     *sse.Handler
	messageLimiter *ratelimit.KeyedRateLimiter
	logger         *slog.Logger
}

// NewServer creates a server with every route registered.
func NewServer(deps Deps, cfg Config) *Server {
	if cfg.MessageRateLimit <= 0 {
		cfg.MessageRateLimit = DefaultMessageRateLimit
	}
	if cfg.MessageTimeout <= 0 {
		cfg.MessageTimeout = DefaultMessageTimeout
	}

	s := &Server{
		deps:           deps,
		services:       deps.Services,
		cfg:            cfg,
		router:         chi.NewRouter(),
		messageLimiter: ratelimit.PerMinute(cfg.MessageRateLimit),
		logger:         deps.Logger,
	}
	if deps.SSEManager != nil {
		s.sseHandler = sse.NewHandler(deps.SSEManager, deps.Logger)
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("CoursePilot API", Version)
	humaConfig.Info.Description = "Settings, stats, notes, summaries and automation commands for CoursePilot."
	// Bodies are enveloped, so the $schema link transformer has nothing to annotate.
	humaConfig.CreateHooks = nil
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API { return s.api }

// Close releases the rate limiter.
func (s *Server) Close() error {
	s.messageLimiter.Stop()
	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	s.router.Use(limitPath(messagesPath, s.messageLimiter.Middleware))
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerMessageRoutes()
	s.registerSettingsRoutes()
	s.registerNoteRoutes()
	s.registerSummaryRoutes()
	s.registerCommandRoutes()
	s.registerSyncRoutes()

	if s.sseHandler != nil {
		s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	}
}
