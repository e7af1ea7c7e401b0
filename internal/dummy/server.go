// Package dummy is a local target server with predictable and misbehaving
// endpoints, used to exercise a run without hitting a real site.
package dummy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ServerConfig struct {
	Host      string
	Port      int
	StaticDir string // optional, served for non-API paths
}

func DefaultConfig() ServerConfig {
	return ServerConfig{Host: "localhost", Port: 3000}
}

func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type scenario struct {
	code  int
	delay time.Duration
}

var (
	errorCodes = []int{400, 401, 403, 500, 502, 503}

	randomScenarios = []scenario{
		{200, 100 * time.Millisecond},
		{200, 500 * time.Millisecond},
		{404, 50 * time.Millisecond},
		{500, 200 * time.Millisecond},
		{503, 1000 * time.Millisecond},
	}
)

// Counters are the server's own view of the traffic it received.
type Counters struct {
	Total      int
	Successful int
	Failed     int
	ByEndpoint map[string]int
}

type Server struct {
	cfg    ServerConfig
	engine *gin.Engine
	logger zerolog.Logger

	mu         sync.Mutex
	started    time.Time
	total      int
	successful int
	failed     int
	byEndpoint map[string]int

	// swapped in tests
	sleep func(ctx context.Context, d time.Duration)
	intn  func(n int) int
}

func New(cfg ServerConfig, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		started:    time.Now(),
		byEndpoint: make(map[string]int),
		sleep:      sleepCtx,
		intn:       rand.Intn,
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.cors(), s.track())

	api := r.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/slow", s.handleSlow)
	api.GET("/error", s.handleError)
	api.GET("/random", s.handleRandom)
	api.GET("/stats", s.handleStats)
	r.NoRoute(s.handleFallback)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", "http://"+srv.Addr).Msg("target server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	c := s.Counters()
	s.logger.Info().
		Int("total", c.Total).
		Int("successful", c.Successful).
		Int("failed", c.Failed).
		Dur("uptime", s.uptime()).
		Msg("target server stopped")
	return nil
}

func (s *Server) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	by := make(map[string]int, len(s.byEndpoint))
	for k, v := range s.byEndpoint {
		by[k] = v
	}
	return Counters{
		Total:      s.total,
		Successful: s.successful,
		Failed:     s.failed,
		ByEndpoint: by,
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// track counts every completed response. Preflight requests never reach it.
func (s *Server) track() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		p := c.Request.URL.Path
		s.record(p, status)

		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", p).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) record(p string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if status >= 200 && status < 400 {
		s.successful++
	} else {
		s.failed++
	}
	s.byEndpoint[p]++
}

func (s *Server) uptime() time.Duration {
	return time.Since(s.started)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"uptime":    s.uptime().Milliseconds(),
		"message":   "Server is running",
	})
}

// handleSlow answers after 2 to 5 seconds.
func (s *Server) handleSlow(c *gin.Context) {
	delay := time.Duration(s.intn(3000)+2000) * time.Millisecond
	s.sleep(c.Request.Context(), delay)

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Slow response completed",
		"delay":   delay.Milliseconds(),
	})
}

func (s *Server) handleError(c *gin.Context) {
	code := errorCodes[s.intn(len(errorCodes))]
	c.JSON(code, gin.H{
		"error":   "Simulated error",
		"code":    code,
		"message": "This is a test error response",
	})
}

func (s *Server) handleRandom(c *gin.Context) {
	sc := randomScenarios[s.intn(len(randomScenarios))]
	s.sleep(c.Request.Context(), sc.delay)

	c.JSON(sc.code, gin.H{
		"status":  sc.code,
		"message": "Random scenario response",
		"delay":   sc.delay.Milliseconds(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	counters := s.Counters()
	up := s.uptime()

	rate := 0.0
	if up > 0 {
		rate = float64(counters.Total) / up.Seconds()
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"totalRequests":      counters.Total,
		"successfulRequests": counters.Successful,
		"failedRequests":     counters.Failed,
		"uptime":             up.Milliseconds(),
		"requestRate":        math.Round(rate*100) / 100,
		"requestsByEndpoint": counters.ByEndpoint,
		"startTime":          s.started.UTC().Format(time.RFC3339Nano),
	})
}

const notFoundHTML = "<h1>404 Not Found</h1><p>The requested resource was not found.</p>"

func (s *Server) handleFallback(c *gin.Context) {
	p := c.Request.URL.Path
	if strings.HasPrefix(p, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	if s.cfg.StaticDir == "" {
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(notFoundHTML))
		return
	}

	if p == "/" {
		p = "/index.html"
	}
	// Clean against a rooted path so ".." can never climb out of StaticDir.
	file := filepath.Join(s.cfg.StaticDir, filepath.FromSlash(path.Clean("/"+p)))

	info, err := os.Stat(file)
	switch {
	case err == nil && !info.IsDir():
		c.File(file)
	case err == nil || errors.Is(err, os.ErrNotExist):
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(notFoundHTML))
	default:
		c.String(http.StatusInternalServerError, "500 Internal Server Error")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
