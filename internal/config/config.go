package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/server-keeper/internal/logger"
)

// Config holds the settings of the keeper service.
type Config struct {
	// ListenAddress is the address of the HTTP control API.
	ListenAddress string `yaml:"listen_addr"`
	// GRPCListenAddress enables the gRPC health endpoint when set.
	GRPCListenAddress string `yaml:"grpc_listen_addr"`
	// WorkDir is the directory holding server artifacts; the managed process runs inside it.
	WorkDir string `yaml:"work_dir"`
	// JavaCommand is the interpreter used to launch the managed server.
	JavaCommand string `yaml:"java_command"`
	// JavaArgs are the arguments passed to JavaCommand.
	JavaArgs []string `yaml:"java_args"`
	// StopCommand is written to the server console to request a graceful stop.
	StopCommand string `yaml:"stop_command"`
	// HTTPTimeout bounds every outbound vendor request, download included.
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	// ShutdownTimeout bounds how long the keeper waits for the managed server on exit.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// VendorRateLimit is the maximum number of outbound vendor requests per second.
	VendorRateLimit float64 `yaml:"vendor_rate_limit"`
	// PaperAPIURL is the base URL of the PaperMC project API.
	PaperAPIURL string `yaml:"paper_api_url"`
	// FabricMetaURL is the base URL of the Fabric meta API.
	FabricMetaURL string `yaml:"fabric_meta_url"`
	// LogLevel is the minimum level of emitted log entries.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for keeper settings.
	DefaultConfigFilename = "server-keeper-settings.yaml"

	// DefaultListenAddress is where the HTTP control API listens by default.
	DefaultListenAddress = "127.0.0.1:8000"

	// DefaultWorkDir is the default directory of the managed server.
	DefaultWorkDir = "minecraft_server"

	// DefaultJavaCommand is the default interpreter of the managed server.
	DefaultJavaCommand = "java"

	// DefaultStopCommand is the console command that stops a Minecraft server.
	DefaultStopCommand = "stop"

	// DefaultHTTPTimeout is the default bound for outbound requests.
	DefaultHTTPTimeout = 10 * time.Minute

	// DefaultShutdownTimeout is the default wait for the managed server on exit.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultVendorRateLimit is the default outbound request rate.
	DefaultVendorRateLimit = 10

	// DefaultPaperAPIURL is the PaperMC v2 project endpoint.
	DefaultPaperAPIURL = "https://api.papermc.io/v2/projects/paper"

	// DefaultFabricMetaURL is the Fabric meta v2 endpoint.
	DefaultFabricMetaURL = "https://meta.fabricmc.net/v2"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeTimeout is returned for negative durations.
	errNegativeTimeout = errors.New("timeout must not be negative")
	// errUnknownLogLevel is returned for log levels zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns a configuration populated with defaults.
func Default() *Config {
	cfg := new(Config)
	applyDefaults(cfg)

	return cfg
}

// DefaultJavaArgs returns the default arguments of the managed server.
func DefaultJavaArgs() []string {
	return []string{"-jar", "server.jar", "nogui"}
}

// Load reads configuration from the provided path and validates it.
// A missing file at the default path is not an error: defaults are used instead.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the provided settings for formatting errors.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	applyDefaults(settings)

	if _, err := net.ResolveTCPAddr("tcp", settings.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if settings.GRPCListenAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.GRPCListenAddress); err != nil {
			return fmt.Errorf("invalid gRPC listen address: %w", err)
		}
	}

	if settings.HTTPTimeout < 0 || settings.ShutdownTimeout < 0 {
		return errNegativeTimeout
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%q: %w", settings.LogLevel, errUnknownLogLevel)
	}

	for name, raw := range map[string]string{
		"paper API URL":   settings.PaperAPIURL,
		"fabric meta URL": settings.FabricMetaURL,
	} {
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return nil
}

// applyDefaults sets every empty field to its default value.
func applyDefaults(settings *Config) {
	if settings.ListenAddress == "" {
		settings.ListenAddress = DefaultListenAddress
	}

	if settings.WorkDir == "" {
		settings.WorkDir = DefaultWorkDir
	}

	if settings.JavaCommand == "" {
		settings.JavaCommand = DefaultJavaCommand
	}

	if len(settings.JavaArgs) == 0 {
		settings.JavaArgs = DefaultJavaArgs()
	}

	if strings.TrimSpace(settings.StopCommand) == "" {
		settings.StopCommand = DefaultStopCommand
	}

	if settings.HTTPTimeout == 0 {
		settings.HTTPTimeout = DefaultHTTPTimeout
	}

	if settings.ShutdownTimeout == 0 {
		settings.ShutdownTimeout = DefaultShutdownTimeout
	}

	if settings.VendorRateLimit <= 0 {
		settings.VendorRateLimit = DefaultVendorRateLimit
	}

	if settings.PaperAPIURL == "" {
		settings.PaperAPIURL = DefaultPaperAPIURL
	}

	if settings.FabricMetaURL == "" {
		settings.FabricMetaURL = DefaultFabricMetaURL
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}
}
