// Package server exposes the sensor collector over HTTP with gin.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jondoveston/sensortop/internal/sensor"
	"golang.org/x/time/rate"
)

const limiterIdle = 5 * time.Minute

// SnapshotCollector produces one snapshot per call.
type SnapshotCollector interface {
	Collect(ctx context.Context) *sensor.Snapshot
}

type Options struct {
	ListenAddr      string
	SensorPath      string
	RequireAJAX     bool
	RateLimit       float64
	RateBurst       int
	ShutdownTimeout time.Duration
}

type Server struct {
	opts      Options
	collector SnapshotCollector
	exporter  *Exporter
	limiter   *RateLimiter
	logger    *slog.Logger
	engine    *gin.Engine
}

func New(opts Options, collector SnapshotCollector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.SensorPath == "" {
		opts.SensorPath = "/sensor"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		opts:      opts,
		collector: collector,
		exporter:  NewExporter(),
		logger:    logger,
	}
	if opts.RateLimit > 0 {
		s.limiter = NewRateLimiter(rate.Limit(opts.RateLimit), opts.RateBurst)
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.logger, s.exporter))

	chain := []gin.HandlerFunc{}
	if s.opts.RequireAJAX {
		chain = append(chain, RequireAJAX())
	}
	if s.limiter != nil {
		chain = append(chain, s.limiter.Middleware())
	}
	chain = append(chain, NoCache(), s.handleSensor)
	r.GET(s.opts.SensorPath, chain...)

	r.GET("/metrics", gin.WrapH(s.exporter.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleSensor(c *gin.Context) {
	start := time.Now()
	snap := s.collector.Collect(c.Request.Context())
	s.exporter.ObserveCollect(time.Since(start))
	s.exporter.Observe(snap)

	body, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		s.logger.Error("encode snapshot", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode snapshot"})
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// Run serves until ctx is done, then shuts down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if s.limiter != nil {
		go s.limiter.Cleanup(ctx, limiterIdle)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("sensor endpoint listening", "addr", ln.Addr().String(), "path", s.opts.SensorPath)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down http server", "timeout", s.opts.ShutdownTimeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
