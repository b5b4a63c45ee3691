// Package web serves the PluralKit web pages.
package web

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/csrf"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/pkweb/internal/config"
	"github.com/ziadkadry99/pkweb/internal/oauth"
	"github.com/ziadkadry99/pkweb/internal/pkapi"
	"github.com/ziadkadry99/pkweb/internal/session"
	"github.com/ziadkadry99/pkweb/internal/view"
)

// Options holds the dependencies of a Server.
type Options struct {
	Config    *config.Config
	API       *pkapi.Client
	Sessions  *session.Manager
	Exchanger oauth.Exchanger
	Logger    *zap.Logger
}

// Server is the pkweb HTTP front-end.
type Server struct {
	cfg        *config.Config
	api        *pkapi.Client
	loader     *view.Loader
	sessions   *session.Manager
	exchanger  oauth.Exchanger
	render     *Renderer
	logger     *zap.Logger
	loginURL   string
	upgrader   websocket.Upgrader
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all routes registered.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	render, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       opts.Config,
		api:       opts.API,
		loader:    view.NewLoader(opts.API, opts.Config.API.MemberStrategy, opts.Logger),
		sessions:  opts.Sessions,
		exchanger: opts.Exchanger,
		render:    render,
		logger:    opts.Logger.Named("web"),
	}
	if s.cfg.OAuthConfigured() {
		s.loginURL = oauth.LoginURL(s.cfg.OAuth)
	}
	if s.cfg.Server.AllowAll {
		s.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}

	csrfKey, err := s.csrfKey()
	if err != nil {
		return nil, err
	}
	s.router = s.buildRouter(csrfKey)
	return s, nil
}

func (s *Server) csrfKey() ([]byte, error) {
	if s.cfg.Server.CSRFKey != "" {
		sum := sha256.Sum256([]byte(s.cfg.Server.CSRFKey))
		return sum[:], nil
	}
	s.logger.Warn("server.csrf_key is not set; form tokens reset on restart")
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating csrf key: %w", err)
	}
	return key, nil
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter(csrfKey []byte) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.sessions.Middleware)
	r.Use(session.RequireToken(s.cfg.Session.ProtectedPaths))

	r.NotFound(s.handleNotFound)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/static/*", s.handleStatic)

	r.Get("/login", s.handleLogin)
	r.Get("/system/{id}", s.handleSystem)
	r.Get("/ws/system/{id}", s.handleSystemSocket)
	r.Get("/me", s.handleMe)

	// Form routes
	protect := csrf.Protect(csrfKey,
		csrf.Secure(s.cfg.Server.SecureCookies),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
	)
	r.Group(func(r chi.Router) {
		if !s.cfg.Server.SecureCookies {
			r.Use(plaintext)
		}
		r.Use(protect)
		r.Get("/", s.handleHome)
		r.Post("/token", s.handleToken)
		r.Post("/logout", s.handleLogout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			corsOpts := cors.Options{
				AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
				AllowedMethods:   []string{"GET", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type"},
				AllowCredentials: false,
				MaxAge:           300,
			}
			if s.cfg.Server.AllowAll {
				corsOpts.AllowedOrigins = []string{"*"}
			}
			r.Use(cors.Handler(corsOpts))
			r.Use(middleware.Timeout(60 * time.Second))
			r.Get("/systems/{id}", s.handleAPISystem)
		})
	})

	return r
}

// plaintext marks requests as served over plain HTTP so the CSRF check
// does not demand an HTTPS Referer.
func plaintext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("pkweb listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
