// Package server exposes the voice pipeline over HTTP.
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

	"github.com/hrygo/talkagent/internal/profile"
	"github.com/hrygo/talkagent/plugin/ai/agent"
	"github.com/hrygo/talkagent/plugin/ai/metrics"
	apierrors "github.com/hrygo/talkagent/server/internal/errors"
	ratelimit "github.com/hrygo/talkagent/server/middleware"
	apiv1 "github.com/hrygo/talkagent/server/router/api/v1"
	"github.com/hrygo/talkagent/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	listener   net.Listener
}

// NewServer builds the HTTP surface over pipeline.
func NewServer(profile *profile.Profile, store *store.Store, pipeline *agent.Pipeline, metricsService metrics.MetricsService) *Server {
	s := &Server{
		Store:   store,
		Profile: profile,
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = errorHandler
	echoServer.Use(middleware.Recover())
	echoServer.Use(requestLogger())
	s.echoServer = echoServer

	apiV1Service := apiv1.NewAPIV1Service(profile, store, pipeline, metricsService)
	apiV1Service.RegisterRoutes(echoServer, ratelimit.NewRateLimiter(ratelimit.DefaultRate, ratelimit.DefaultBurst))

	return s
}

// Handler returns the HTTP handler for use with httptest.Server.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start listens on the profile's address and serves until Shutdown.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}
	s.listener = listener
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	slog.Info("talkagent server started", "address", listener.Addr().String(), "mode", s.Profile.Mode)
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}
	slog.Info("server stopped properly")
}

// errorHandler renders APIError and echo.HTTPError as {code, message}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *apierrors.APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		code := apierrors.ErrCodeInternal
		switch httpErr.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusBadRequest:
			code = apierrors.ErrCodeInvalidArgument
		}
		apiErr = &apierrors.APIError{Code: code, Message: fmt.Sprint(httpErr.Message)}
		if err := c.JSON(httpErr.Code, apiErr); err != nil {
			slog.Error("failed to write error response", "error", err)
		}
		return
	default:
		apiErr = apierrors.Internal("internal error", err)
	}

	status := apiErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("path", c.Path()),
			slog.String("error", apiErr.Error()))
	}
	if err := c.JSON(status, apiErr); err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			slog.Debug("http request",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.Int("status", c.Response().Status),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()))
			return nil
		}
	}
}
