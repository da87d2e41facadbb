// Package server exposes the HTTP surface: catalogue lookup, download relay,
// download history and health.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tubegrab/tubegrab/internal/history"
	"github.com/tubegrab/tubegrab/internal/relay"
	"github.com/tubegrab/tubegrab/internal/resolver"
)

// Options tune the HTTP surface.
type Options struct {
	// RateRPS and RateBurst configure the process-wide request throttle.
	// Zero RateRPS disables throttling.
	RateRPS   float64
	RateBurst int

	// ResolveTimeout bounds metadata/catalogue resolution. It does not
	// apply to the download stream itself.
	ResolveTimeout time.Duration
}

// Server wires the resolver, relay and history store behind the HTTP routes.
type Server struct {
	resolver resolver.Resolver
	relay    *relay.Relay
	history  history.Store
	logger   *zap.Logger
	limiter  *rate.Limiter
	opts     Options
	started  time.Time
	engine   *gin.Engine
}

func New(res resolver.Resolver, rel *relay.Relay, hist history.Store, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		resolver: res,
		relay:    rel,
		history:  hist,
		logger:   logger,
		opts:     opts,
		started:  time.Now(),
	}
	if opts.RateRPS > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RateRPS)
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateRPS), burst)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(s.recovery(), s.requestLogger(), s.throttle())

	api := engine.Group("/api")
	api.POST("/video-info", s.handleVideoInfo)
	api.POST("/download", s.handleDownload)
	api.GET("/history", s.handleHistoryList)
	api.DELETE("/history", s.handleHistoryClear)
	api.DELETE("/history/:id", s.handleHistoryRemove)

	engine.GET("/healthz", s.handleHealth)

	s.engine = engine
	return s
}

// Handler returns the root http.Handler for the service.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Truncate(time.Second).String(),
	})
}
