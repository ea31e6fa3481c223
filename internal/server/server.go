package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/contact-keeper/internal/auth"
	"github.com/hongminglow/contact-keeper/internal/config"
	"github.com/hongminglow/contact-keeper/internal/http/handlers"
	"github.com/hongminglow/contact-keeper/internal/middleware"
	"github.com/hongminglow/contact-keeper/internal/service"
	"github.com/hongminglow/contact-keeper/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, log *zap.Logger) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL())
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, store, tokens, hasher, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          zap.NewStdLog(log),
	}

	return &Server{inner: httpServer}
}

// NewHandler builds the routed, middleware-wrapped API handler.
func NewHandler(cfg config.Config, store storage.Store, tokens *auth.TokenManager, hasher *auth.PasswordHasher, log *zap.Logger) http.Handler {
	router := mux.NewRouter()
	requireAuth := middleware.RequireAuth(tokens, log)

	handlers.NewHealthHandler(time.Now(), log).Register(router)
	handlers.NewAuthHandler(service.NewUserService(store, hasher, tokens), log).Register(router, requireAuth)
	handlers.NewContactHandler(service.NewContactService(store), log).Register(router, requireAuth)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(log, middleware.Recover(log, router)))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
