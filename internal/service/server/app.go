package server

import (
	"github.com/oshokin/server-keeper/internal/api/grpc/health"
	"github.com/oshokin/server-keeper/internal/api/http/control"
	"github.com/oshokin/server-keeper/internal/config"
	"github.com/oshokin/server-keeper/internal/service/installer"
	"github.com/oshokin/server-keeper/internal/service/process"
)

// app holds the wired components of one controller instance.
// It is unexported to keep the command decoupled from the composition.
type app struct {
	// settings are the validated configuration.
	settings *config.Config
	// controller owns the managed process.
	controller *process.Controller
	// health publishes gRPC health statuses.
	health *health.Server
	// api is the HTTP control API.
	api *control.Server
}

// newApp wires every component from settings.
func newApp(settings *config.Config) *app {
	healthServer := health.NewServer()

	controller := process.New(process.Options{
		Command:     settings.JavaCommand,
		Args:        settings.JavaArgs,
		WorkDir:     settings.WorkDir,
		StopCommand: settings.StopCommand,
	}, healthServer.ProcessChanged)

	return &app{
		settings:   settings,
		controller: controller,
		health:     healthServer,
		api:        control.NewServer(controller, installer.NewFromConfig(settings)),
	}
}
