package control

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oshokin/server-keeper/internal/domain/artifact"
	"github.com/oshokin/server-keeper/internal/logger"
)

const (
	installSuccessPrefix = "install_success_"
	installFailedPrefix  = "install_failed: "
)

func (s *Server) getStatus(c echo.Context) error {
	status := s.controller.Status(c.Request().Context())

	return c.JSON(http.StatusOK, statusResponse{Status: status.String()})
}

func (s *Server) startServer(c echo.Context) error {
	result := s.controller.Start(c.Request().Context())

	return c.JSON(http.StatusOK, messageResponse{Message: string(result)})
}

func (s *Server) stopServer(c echo.Context) error {
	result := s.controller.Stop(c.Request().Context())

	return c.JSON(http.StatusOK, messageResponse{Message: string(result)})
}

func (s *Server) getProcess(c echo.Context) error {
	info := s.controller.Info(c.Request().Context())

	response := processResponse{
		Executable: info.Executable,
		Uptime:     info.Uptime(time.Now()).Truncate(time.Second).String(),
		PID:        info.PID,
		Generation: info.Generation,
		Running:    info.Running,
	}

	if !info.StartedAt.IsZero() {
		startedAt := info.StartedAt
		response.StartedAt = &startedAt
	}

	if info.LastExit != nil {
		response.LastExit = &exitResponse{
			At:    info.LastExit.At,
			Error: info.LastExit.Err,
			Code:  info.LastExit.Code,
		}
	}

	return c.JSON(http.StatusOK, response)
}

func (s *Server) install(c echo.Context) error {
	ctx := c.Request().Context()

	var body installRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, installResponse{
			Message: installFailedPrefix + "invalid request body: " + bindErrorMessage(err),
		})
	}

	channel, err := artifact.ParseChannel(body.DistributionChannel)
	if err != nil {
		return c.JSON(http.StatusBadRequest, installResponse{
			Message: installFailedPrefix + err.Error(),
		})
	}

	// The version is forwarded to the vendor API as-is.
	result, err := s.installer.Install(ctx, artifact.InstallRequest{
		Channel: channel,
		Version: body.Version,
	})
	if err != nil {
		return c.JSON(http.StatusOK, installResponse{
			Message: installFailedPrefix + err.Error(),
		})
	}

	response := installResponse{
		Message: installSuccessPrefix + channel.String(),
	}

	if result.Verified {
		hash := result.Digest
		response.Hash = &hash
	} else {
		logger.WarnKV(ctx, "Installed artifact is unverified", "channel", channel.String(), "path", result.Path)
	}

	return c.JSON(http.StatusOK, response)
}

// bindErrorMessage extracts the client-facing part of a bind error.
func bindErrorMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if message, ok := he.Message.(string); ok {
			return message
		}
	}

	return err.Error()
}
