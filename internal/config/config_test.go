package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaults and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Empty config gets defaults.
	settings := new(Config)

	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultListenAddress, settings.ListenAddress)
	require.Equal(t, DefaultWorkDir, settings.WorkDir)
	require.Equal(t, DefaultJavaArgs(), settings.JavaArgs)
	require.Equal(t, DefaultStopCommand, settings.StopCommand)
	require.Equal(t, DefaultHTTPTimeout, settings.HTTPTimeout)

	// Bad listen address.
	settings = &Config{
		ListenAddress: "bad:address",
	}

	require.Error(t, Validate(settings))

	// Bad gRPC address.
	settings = &Config{
		GRPCListenAddress: "nope",
	}

	require.Error(t, Validate(settings))

	// Unknown log level.
	settings = &Config{
		LogLevel: "chatty",
	}

	require.ErrorIs(t, Validate(settings), errUnknownLogLevel)

	// Negative timeout.
	settings = &Config{
		ShutdownTimeout: -time.Second,
	}

	require.ErrorIs(t, Validate(settings), errNegativeTimeout)

	// Bad vendor URL.
	settings = &Config{
		PaperAPIURL: "not a url",
	}

	require.Error(t, Validate(settings))

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		ListenAddress: "127.0.0.1:18000",
		WorkDir:       filepath.Join(dir, "server"),
		JavaArgs:      []string{"-Xmx2G", "-jar", "server.jar", "nogui"},
		HTTPTimeout:   time.Minute,
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ListenAddress, loaded.ListenAddress)
	require.Equal(t, settings.WorkDir, loaded.WorkDir)
	require.Equal(t, settings.JavaArgs, loaded.JavaArgs)
	require.Equal(t, time.Minute, loaded.HTTPTimeout)

	// File exists with restricted permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoad_MissingFile distinguishes the implicit default path from an explicit one.
func TestLoad_MissingFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// TestSave_NilConfig rejects a nil configuration.
func TestSave_NilConfig(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Save(filepath.Join(t.TempDir(), "x.yaml"), nil), errConfigIsNotSet)
}
