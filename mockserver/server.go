package mockserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// Version is reported by the root endpoint
	Version = "1.0.0"

	shutdownTimeout = 5 * time.Second
)

// DefaultTokens are the bearer tokens accepted when none are configured
var DefaultTokens = []string{"demo-token-123", "test-token-456"}

// Options configures a Server
type Options struct {
	// Tokens are the accepted bearer tokens
	Tokens []string
	// CompileDuration is how long a compile job stays InQueue
	CompileDuration time.Duration
	// BacktestDuration is how long a backtest runs before completing
	BacktestDuration time.Duration
	// RateLimit is the sustained request rate per second; zero disables limiting
	RateLimit float64
	// Burst is the token bucket size used with RateLimit
	Burst int
}

// DefaultOptions returns options with the default tokens and instant jobs
func DefaultOptions() Options {
	return Options{
		Tokens: append([]string(nil), DefaultTokens...),
		Burst:  10,
	}
}

// Server is an in-memory implementation of the cloud API
type Server struct {
	opts    Options
	store   *Store
	engine  *gin.Engine
	logger  zerolog.Logger
	started time.Time
}

// New creates a server with a fresh store
func New(opts Options, logger zerolog.Logger) *Server {
	if len(opts.Tokens) == 0 {
		opts.Tokens = append([]string(nil), DefaultTokens...)
	}
	if opts.RateLimit > 0 && opts.Burst <= 0 {
		opts.Burst = 1
	}

	s := &Server{
		opts:    opts,
		store:   NewStore(opts.CompileDuration, opts.BacktestDuration),
		logger:  logger.With().Str("component", "mockserver").Logger(),
		started: time.Now(),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Store returns the backing store
func (s *Server) Store() *Store {
	return s.store
}

// Tokens returns the accepted bearer tokens
func (s *Server) Tokens() []string {
	return append([]string(nil), s.opts.Tokens...)
}

func (s *Server) routes() *gin.Engine {
	var limiter *rate.Limiter
	if s.opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.RateLimit), s.opts.Burst)
	}
	auth := AuthMiddleware(s.opts.Tokens)
	limit := RateLimitMiddleware(limiter)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(s.logger))
	r.Use(MetricsMiddleware())

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/data/*filepath", auth, limit, s.handleDataFile)

	api := r.Group("/api/v2")
	api.Use(auth, limit)
	{
		api.GET("/authenticate", s.handleAuthenticate)

		api.POST("/projects/create", s.handleCreateProject)
		api.POST("/projects/read", s.handleReadProjects)
		api.POST("/projects/update", s.handleUpdateProject)
		api.POST("/projects/delete", s.handleDeleteProject)

		api.POST("/files/create", s.handleCreateFile)
		api.POST("/files/read", s.handleReadFiles)
		api.POST("/files/update", s.handleUpdateFile)
		api.POST("/files/delete", s.handleDeleteFile)

		api.POST("/compile/create", s.handleCreateCompile)
		api.POST("/compile/read", s.handleReadCompile)

		api.POST("/backtests/create", s.handleCreateBacktest)
		api.POST("/backtests/read", s.handleReadBacktests)
		api.POST("/backtests/update", s.handleUpdateBacktest)
		api.POST("/backtests/delete", s.handleDeleteBacktest)
		api.POST("/backtests/read/report", s.handleReadBacktestReport)

		api.POST("/live/create", s.handleCreateLive)
		api.POST("/live/read", s.handleReadLive)
		api.POST("/live/update/stop", s.handleStopLive)
		api.POST("/live/update/liquidate", s.handleLiquidateLive)
		api.POST("/live/read/log", s.handleReadLiveLog)

		api.POST("/data/read", s.handleReadData)
	}

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Mock cloud server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down mock cloud server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("Mock cloud server stopped")
	return nil
}
