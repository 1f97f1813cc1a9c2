// Package server exposes quiz sessions over a JSON HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/quizgate/internal/session"
)

type Options struct {
	Orchestrator *session.Orchestrator
	Store        session.Store
	Logger       *slog.Logger

	// AllowedOrigins enables CORS for browser clients. Empty disables it.
	AllowedOrigins []string

	// RequestTimeout bounds the oracle calls of a single request.
	RequestTimeout time.Duration
}

type Server struct {
	orch    *session.Orchestrator
	store   session.Store
	logger  *slog.Logger
	timeout time.Duration
	locks   *keyedMutex
	engine  *gin.Engine
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		orch:    opts.Orchestrator,
		store:   opts.Store,
		logger:  logger.With("component", "server"),
		timeout: opts.RequestTimeout,
		locks:   newKeyedMutex(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  opts.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Content-Type", "Accept", "Origin"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.healthz)

	api := r.Group("/api/sessions")
	{
		api.POST("", s.createSession)
		api.GET("/:id", s.getSession)
		api.DELETE("/:id", s.deleteSession)
		api.POST("/:id/round", s.startRound)
		api.POST("/:id/answers", s.submitAnswers)
		api.POST("/:id/gate", s.resolveGate)
	}

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.DebugContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds())
	}
}
