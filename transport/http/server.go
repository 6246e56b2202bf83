package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/slighter12/sysprop-go/config"
	"github.com/slighter12/sysprop-go/dispatch"
	"github.com/slighter12/sysprop-go/logger"
)

type Server struct {
	dispatcher *dispatch.Dispatcher
	config     *config.Config
	echo       *echo.Echo
	pages      *Pages
}

func NewServer(cfg *config.Config, dispatcher *dispatch.Dispatcher) (*Server, error) {
	pages, err := NewPages()
	if err != nil {
		return nil, err
	}
	s := &Server{
		dispatcher: dispatcher,
		config:     cfg,
		echo:       echo.New(),
		pages:      pages,
	}
	s.setupEcho()
	return s, nil
}

func (s *Server) setupEcho() {
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = s.config.Server.Debug
	s.echo.Renderer = s.pages

	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
			}
			logger.Default().LogAttrs(c.Request().Context(), level, "HTTP request", attrs...)
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	RegisterRoutes(s.echo, s)
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	addr := s.config.Addr()
	logger.Info("HTTP server starting to listen", "address", addr, "tools", s.dispatcher.Registry().Len())
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routed handler, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}
