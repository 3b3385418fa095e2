// Package server exposes the bird generator over HTTP with gin.
package server

import (
	"log/slog"
	"runtime"

	"github.com/chazu/birdomatic/pkg/engine"
	"github.com/chazu/birdomatic/pkg/kernel"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// Server holds what the handlers share. Requests never share a Record:
// each one decodes its own.
type Server struct {
	kernel kernel.Kernel
	engine *engine.Engine
	log    *slog.Logger

	// builds bounds concurrent tessellations.
	builds *semaphore.Weighted
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMaxBuilds limits how many tessellations run at once.
func WithMaxBuilds(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.builds = semaphore.NewWeighted(int64(n))
		}
	}
}

// New creates a Server generating with k.
func New(k kernel.Kernel, opts ...Option) *Server {
	s := &Server{
		kernel: k,
		engine: engine.NewEngine(engine.Concurrent()),
		log:    slog.Default(),
		builds: semaphore.NewWeighted(int64(runtime.NumCPU())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetupRouter builds the gin engine. With withSentry set, panics and
// errors are reported through the Sentry hub.
func (s *Server) SetupRouter(withSentry bool) *gin.Engine {
	router := gin.New()

	router.Use(s.recovery())
	if withSentry {
		router.Use(sentrygin.New(sentrygin.Options{
			Repanic: true,
			Timeout: sentryTimeout,
		}))
	}
	router.Use(s.requestTracking())

	router.GET("/healthz", s.health)

	api := router.Group("/api")
	{
		api.GET("/fields", s.fields)
		api.POST("/generate", s.generate)
		api.POST("/preset", s.preset)
		api.POST("/export.stl", s.exportSTL)
		api.POST("/preview.png", s.previewPNG)
	}

	return router
}
