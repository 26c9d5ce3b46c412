// Package apihttp exposes a read-only HTTP surface over the running
// supervisor: health, account snapshot, tracked positions and the decision
// journal. It never accepts orders; all trading flows through the engine.
package apihttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vigil/internal/gateway"
	"vigil/internal/journal"
	"vigil/internal/ledger"
	"vigil/internal/logger"
)

// ServerConfig carries the read-only dependencies of the API server.
type ServerConfig struct {
	Addr      string
	Exchange  gateway.Exchange
	Positions ledger.Store
	Decisions *journal.DecisionLog
}

// Server serves the /api routes on a single gin engine.
type Server struct {
	addr   string
	router *gin.Engine
}

// NewServer builds the server and mounts all routes.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Exchange == nil {
		return nil, errors.New("api server requires an exchange")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9991"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r := newRouter(cfg.Exchange, cfg.Positions, cfg.Decisions)
	r.register(router.Group("/api"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Handler exposes the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Infof("api server listening on %s", s.addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}
