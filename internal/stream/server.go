package stream

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpequegn/polybench/internal/scheduler"
)

// Server exposes a scheduler's result tree and live progress feed over
// HTTP: GET /results for the last completed run, GET /ws for a live
// WebSocket progress feed, GET /metrics for Prometheus scraping.
type Server struct {
	engine  *gin.Engine
	hub     *Hub
	metrics *Metrics

	mu     sync.RWMutex
	latest *scheduler.BenchmarkResults
}

// NewServer builds a Server with routes registered but not yet listening.
func NewServer(metrics *Metrics) *Server {
	s := &Server{
		engine:  gin.New(),
		hub:     NewHub(),
		metrics: metrics,
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/results", func(c *gin.Context) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.latest == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no run completed yet"})
			return
		}
		c.JSON(http.StatusOK, s.latest)
	})
	s.engine.GET("/ws", s.hub.ServeWS)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// SetLatestResults publishes a freshly completed run to GET /results and
// feeds its measurements into the nanos-per-op histogram.
func (s *Server) SetLatestResults(results *scheduler.BenchmarkResults) {
	s.mu.Lock()
	s.latest = results
	s.mu.Unlock()

	for _, suite := range results.Suites {
		for _, b := range suite.Benchmarks {
			for lang, m := range b.Measurements {
				s.metrics.recordNanosPerOp(lang, m.NanosPerOp())
			}
		}
	}
}

// ProgressHandler adapts the server's hub and metrics into a
// scheduler.ProgressHandler for a Scheduler to report into.
func (s *Server) ProgressHandler() scheduler.ProgressHandler {
	return func(event scheduler.ProgressEvent) {
		s.hub.Broadcast(event)

		switch event.Type {
		case scheduler.EventBenchmarkStarted:
			s.metrics.recordRunStarted(event.Lang)
		case scheduler.EventRunCompleted:
			outcome := "ok"
			if event.Err != nil {
				outcome = "error"
			}
			s.metrics.recordBenchmarkOutcome(event.Lang, outcome)
		}
	}
}

// Run starts the HTTP server, blocking until it returns an error (including
// on graceful shutdown via the caller closing the listener).
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
