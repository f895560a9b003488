// Package server hosts the module's HTTP surfaces (the connection-manager
// admin API) on a preconfigured echo instance.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	appErrors "github.com/oakbridge/mqconnect/pkg/errors"
)

type Config struct {
	Port         string        `env:"PORT" env-default:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"10s"`
}

type Server struct {
	echo *echo.Echo
	cfg  Config
	log  *slog.Logger
}

// New builds a Server with recovery, request-id, and request-logging
// middleware installed. AppErrors returned by handlers are rendered as JSON
// with the status registered for their code.
func New(cfg Config, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Info("request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"latency", time.Since(start),
			)
			return err
		}
	})

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var appErr *appErrors.AppError
		if appErrors.As(err, &appErr) {
			_ = c.JSON(appErrors.HTTPStatus(appErr), appErr)
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}

	return &Server{echo: e, cfg: cfg, log: log}
}

func (s *Server) Start() error {
	s.log.Info("starting http server", "port", s.cfg.Port)
	err := s.echo.Start(":" + s.cfg.Port)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Echo exposes the underlying echo instance for route registration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
