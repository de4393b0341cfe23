package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"

	"padronizador/internal/config"
	"padronizador/internal/logging"
	"padronizador/internal/pipeline"
)

//go:embed templates/*.html help.md
var assets embed.FS

type Server struct {
	cfg       config.Config
	log       logging.Logger
	svc       *pipeline.ProcessingService
	router    *chi.Mux
	templates *template.Template
	helpHTML  template.HTML
}

func NewServer(cfg config.Config, log logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.Nop()
	}

	templates, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	help, err := assets.ReadFile("help.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read help text: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		log:       log,
		svc:       pipeline.NewProcessingService(cfg, log),
		router:    chi.NewRouter(),
		templates: templates,
		helpHTML:  template.HTML(markdown.ToHTML(help, nil, nil)),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Heartbeat("/healthz"))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Post("/preview", s.handlePreview)
	s.router.Post("/normalize", s.handleNormalize)
	s.router.Post("/download", s.handleDownload)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/columns", s.handleAPIColumns)
		r.Post("/normalize", s.handleAPINormalize)
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves the dashboard until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.HTTPReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.HTTPWriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down dashboard")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
