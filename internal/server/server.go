package server

import (
	"context"
	"net/http"
	"time"

	"github.com/atlasview/atlasview/pkg/compare"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Config wires the HTTP API to a data source.
type Config struct {
	Fetcher     compare.Fetcher
	Indicator   string // used when a request names none
	Palette     []string
	Concurrency int
	Log         *logrus.Logger
}

// Server exposes chart data to the browser map.
type Server struct {
	cfg Config
	e   *echo.Echo
}

func New(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = logrus.New()
	}
	if len(cfg.Palette) == 0 {
		cfg.Palette = compare.DefaultPalette
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := cfg.Log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.Round(time.Millisecond),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Debug("request")
			return nil
		},
	}))

	s := &Server{cfg: cfg, e: e}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.e.Group("/api")
	api.GET("/chart", s.handleChart)
	api.GET("/indicators", s.handleIndicators)
	api.GET("/names", s.handleNames)
	api.GET("/search", s.handleSearch)
	api.GET("/palette", s.handlePalette)
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.cfg.Log.Infof("Starting server on %s", addr)
	if err := s.e.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
