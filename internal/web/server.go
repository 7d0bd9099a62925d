// Package web serves the chat page, the FAQ and a small JSON API over one
// conversation per browser session.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"recyclebot/internal/config"
	"recyclebot/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 10 * time.Second

// Server is the HTTP front end.
type Server struct {
	cfg      config.ServerConfig
	engine   *gin.Engine
	registry *session.Registry
	log      zerolog.Logger
	demo     bool
}

// NewServer wires middlewares, templates and routes.
// demo only changes the welcome and FAQ copy.
func NewServer(cfg config.ServerConfig, registry *session.Registry, log zerolog.Logger, demo bool) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "recyclebot_session"
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(Logging(log))
	engine.SetHTMLTemplate(tmpl)

	s := &Server{
		cfg:      cfg,
		engine:   engine,
		registry: registry,
		log:      log,
		demo:     demo,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	s.engine.GET("/", s.getChat)
	s.engine.POST("/ask", s.postAsk)
	s.engine.GET("/faq", s.getFAQ)

	v1 := s.engine.Group("/api/v1")
	v1.GET("/history", s.getHistory)
	v1.POST("/ask", s.postAskJSON)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run starts the HTTP listener and shuts down gracefully when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
