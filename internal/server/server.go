// Package server
//
// @title Partyline API
// @version 1.0
// @description Server-rendered pages, server actions and the auth API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/partyline-dev/partyline/internal/actions"
	"github.com/partyline-dev/partyline/internal/auth"
	"github.com/partyline-dev/partyline/internal/config"
	"github.com/partyline-dev/partyline/internal/database"
	"github.com/partyline-dev/partyline/internal/interruptors"
)

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	db      *gorm.DB
	config  *config.Config
	logger  zerolog.Logger
	auth    *auth.Service
	actions *actions.Actions
	gate    *interruptors.Gate
	version string
}

// New opens the configured database and builds the server around it
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := database.Open(cfg.Database, zlog)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	return NewWithDB(cfg, db, zlog, version)
}

// NewWithDB builds the server on an already migrated database
func NewWithDB(cfg *config.Config, db *gorm.DB, zlog zerolog.Logger, version string) (*Server, error) {
	authService, err := NewAuthService(cfg, db, zlog)
	if err != nil {
		return nil, err
	}

	server := &Server{
		db:      db,
		config:  cfg,
		logger:  zlog,
		auth:    authService,
		actions: actions.New(authService, zlog),
		gate:    interruptors.NewGate(authService, zlog),
		version: version,
	}

	server.setupRouter()

	return server, nil
}

// NewAuthService builds the auth collaborator from configuration. Without a
// configured secret the one persisted in the config table is used.
func NewAuthService(cfg *config.Config, db *gorm.DB, zlog zerolog.Logger) (*auth.Service, error) {
	secret := cfg.Auth.Secret
	if secret == "" {
		var err error
		secret, err = auth.LoadOrCreateSecret(db)
		if err != nil {
			return nil, err
		}
		zlog.Debug().Msg("Loaded auth secret from database")
	}

	opts := auth.DefaultOptions()
	opts.BaseURL = cfg.Auth.BaseURL
	opts.TrustedOrigins = cfg.Auth.TrustedOrigins
	opts.Secret = secret
	opts.Cookie.Secure = cfg.Auth.CookieSecure
	if cfg.Auth.SessionTTL > 0 {
		opts.SessionExpiresIn = cfg.Auth.SessionTTL
	}
	if cfg.Auth.SessionRefresh > 0 {
		opts.SessionUpdateAge = cfg.Auth.SessionRefresh
	}

	svc, err := auth.New(db, opts, zlog)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}
	return svc, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(commonHeaders(s.config.IsDevelopment()))

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)

	s.auth.RegisterRoutes(s.router)
	s.router.POST("/_actions/:name", s.handleAction)

	for _, r := range s.routes() {
		s.mount(r)
	}
}

func (s *Server) allowedOrigins() []string {
	origins := make([]string, 0, len(s.config.Auth.TrustedOrigins)+1)
	seen := map[string]bool{}
	for _, o := range append([]string{s.config.Auth.BaseURL}, s.config.Auth.TrustedOrigins...) {
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	return origins
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		evt := s.logger.Info()
		if len(c.Errors) > 0 {
			evt = s.logger.Error().Str("errors", c.Errors.String())
		}

		evt.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	status := "online"
	code := http.StatusOK
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"service":   "partyline",
		"version":   s.version,
		"database":  s.config.Database.Mode,
	})
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	addr := ":" + s.config.Server.Port

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		database.Close(s.db)
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Flush WAL writes
	if err := database.Close(s.db); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
	} else {
		s.logger.Info().Msg("Database closed successfully")
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
