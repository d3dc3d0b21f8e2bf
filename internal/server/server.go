// Package server exposes the attempt service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/englevel/internal/attempt"
	"github.com/abhisek/englevel/internal/placement"
	"github.com/abhisek/englevel/internal/store"
)

// AttemptService is the part of attempt.Service the API drives.
type AttemptService interface {
	Start(ctx context.Context, learnerID string) (*attempt.View, error)
	Get(ctx context.Context, sessionID string) (*attempt.View, error)
	Answer(ctx context.Context, sessionID, answer string) (*attempt.AnswerResult, error)
	Complete(ctx context.Context, sessionID string) (*placement.Result, error)
	Discard(ctx context.Context, sessionID string) error
	History(ctx context.Context, learnerID string, opts store.QueryOpts) ([]store.AttemptRecord, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the server.
type Options struct {
	Addr      string
	Mode      string  // gin mode
	RateLimit float64 // requests per second per client, 0 disables
	RateBurst int
}

// Server is the HTTP API.
type Server struct {
	engine  *gin.Engine
	http    *http.Server
	svc     AttemptService
	db      Pinger
	metrics *Metrics
	logger  *zap.Logger
}

// New builds the router. db may be nil.
func New(svc AttemptService, db Pinger, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	s := &Server{
		engine:  gin.New(),
		svc:     svc,
		db:      db,
		metrics: NewMetrics(),
		logger:  logger,
	}
	s.engine.Use(gin.Recovery(), s.metrics.Middleware(), s.accessLog())
	if opts.RateLimit > 0 {
		s.engine.Use(RateLimit(opts.RateLimit, opts.RateBurst, s.metrics))
	}
	s.routes()

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", s.metrics.Handler())

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/attempts", s.startAttempt)
		v1.GET("/attempts/:id", s.getAttempt)
		v1.POST("/attempts/:id/answers", s.submitAnswer)
		v1.POST("/attempts/:id/complete", s.completeAttempt)
		v1.DELETE("/attempts/:id", s.discardAttempt)
		v1.GET("/learners/:id/attempts", s.learnerAttempts)
	}
	s.engine.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found")
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down http server")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
