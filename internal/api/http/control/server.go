package control

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/oshokin/server-keeper/internal/domain/artifact"
	"github.com/oshokin/server-keeper/internal/domain/instance"
	"github.com/oshokin/server-keeper/internal/logger"
	"github.com/oshokin/server-keeper/internal/metrics"
	"github.com/oshokin/server-keeper/internal/service/process"
)

// ProcessController is the process lifecycle the API drives.
type ProcessController interface {
	Status(ctx context.Context) instance.Status
	Start(ctx context.Context) process.StartResult
	Stop(ctx context.Context) process.StopResult
	Info(ctx context.Context) *instance.Snapshot
}

// Installer installs artifacts.
type Installer interface {
	Install(ctx context.Context, req artifact.InstallRequest) (*artifact.InstallResult, error)
}

// Server holds the HTTP API dependencies.
type Server struct {
	// echo is the router with middleware attached.
	echo *echo.Echo
	// controller owns the managed process.
	controller ProcessController
	// installer resolves and stores artifacts.
	installer Installer
}

// NewServer creates the API with all routes configured.
func NewServer(controller ProcessController, installer Installer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:       e,
		controller: controller,
		installer:  installer,
	}

	// Global middleware.
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(contextLogger())
	e.Use(requestLogger())
	e.Use(middleware.CORS())
	e.Use(metrics.EchoMiddleware())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Process lifecycle.
	e.GET("/status", s.getStatus)
	e.GET("/start", s.startServer)
	e.GET("/stop", s.stopServer)
	e.GET("/process", s.getProcess)

	// Artifacts.
	e.POST("/install", s.install)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// contextLogger scopes the request context logger to the request ID.
func contextLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			ctx := logger.WithName(req.Context(), "http")
			ctx = logger.WithKV(ctx, "request_id", requestID)

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

// requestLogger writes one line per request through the context logger.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()

			if v.Error != nil {
				logger.WarnKV(ctx, "HTTP request failed",
					"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "error", v.Error)

				return nil
			}

			logger.DebugKV(ctx, "HTTP request",
				"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)

			return nil
		},
	})
}
