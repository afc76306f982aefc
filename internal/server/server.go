// Package server exposes question extraction over a small JSON HTTP API.
// Clients log in with their LMS credentials once and receive a bearer token
// bound to a server-side LMS session.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/hyperifyio/lmsquiz/internal/lms"
	"github.com/hyperifyio/lmsquiz/internal/quiz"
)

const (
	DefaultSessionTTL = 8 * time.Hour
	maxBodyBytes      = 10 << 20
)

// Config configures the HTTP API.
type Config struct {
	// CORSOrigins defaults to "*".
	CORSOrigins []string
	// SessionSecret signs tokens; empty means a random per-process key.
	SessionSecret string
	SessionTTL    time.Duration
	// BaseURL is the LMS used when a login request does not name one.
	BaseURL string
	// AllowBaseURLOverride lets login requests pick another LMS.
	AllowBaseURLOverride bool
	// Session is applied to every LMS session the server opens. Its Logger
	// is replaced by Logger.
	Session lms.Options
	Logger  zerolog.Logger
}

// Server holds the session store and token issuer behind the router.
type Server struct {
	cfg       Config
	tokens    *TokenIssuer
	sessions  *sessionStore
	extractor quiz.Extractor
	log       zerolog.Logger
}

// New builds a Server from cfg.
func New(cfg Config) (*Server, error) {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = lms.DefaultBaseURL
	}
	tokens, err := NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	cfg.Session.Logger = cfg.Logger
	return &Server{
		cfg:       cfg,
		tokens:    tokens,
		sessions:  newSessionStore(),
		extractor: quiz.NewHeuristicExtractor(cfg.Logger, cfg.Session.Extraction),
		log:       cfg.Logger,
	}, nil
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)
	r.Use(hlog.NewHandler(s.log))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(api chi.Router) {
		api.Post("/login", s.handleLogin)
		api.Post("/extract/html", s.handleExtractHTML)
		api.Group(func(pr chi.Router) {
			pr.Use(s.requireSession)
			pr.Post("/logout", s.handleLogout)
			pr.Post("/extract", s.handleExtract)
		})
	})
	return r
}
