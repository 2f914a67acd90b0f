package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/thenoname-gurl/Brain/internal/profile"
	"github.com/thenoname-gurl/Brain/plugin/brain"
	"github.com/thenoname-gurl/Brain/server/internal/observability"
	ratelimit "github.com/thenoname-gurl/Brain/server/middleware"
	apiv1 "github.com/thenoname-gurl/Brain/server/router/api/v1"
	"github.com/thenoname-gurl/Brain/server/runner/persist"
)

type Server struct {
	Profile *profile.Profile
	Brain   *brain.Brain
	Metrics *observability.Metrics

	echoServer *echo.Echo
	persister  *persist.Runner
}

// NewServer wires the HTTP routes, middleware and the persistence runner around b.
func NewServer(profile *profile.Profile, b *brain.Brain, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	metrics := observability.NewMetrics()
	s := &Server{
		Profile: profile,
		Brain:   b,
		Metrics: metrics,
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(observability.RequestLogger(logger, metrics))
	s.echoServer = echoServer

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	echoServer.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	limiter := ratelimit.NewRateLimiter(profile.RateLimit, profile.RateBurst)
	api := echoServer.Group("/api/v1", limiter.Middleware(metrics.RecordRateLimited))
	apiv1.NewAPIV1Service(profile, b, metrics).RegisterRoutes(api)

	s.persister = persist.NewRunner(b.Store(), profile.SaveInterval, func(_ int, err error) {
		metrics.RecordFlush(err)
	})
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start serves HTTP and runs the persistence runner until ctx is done or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener

	go s.persister.Run(ctx)

	slog.Info("brain server started", "address", address, "mode", s.Profile.Mode, "driver", s.Profile.Driver)
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to start echo server")
	}
	return nil
}

// Shutdown stops accepting requests and closes the store, flushing what is pending.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.Brain.Store().Close(ctx); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
	slog.Info("brain stopped properly")
}
