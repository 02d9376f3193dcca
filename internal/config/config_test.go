package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PDFDirectory = t.TempDir()
	return cfg
}

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	// Keep a developer's .env out of the test run.
	args = append([]string{"--env-file="}, args...)
	return Load("mcp-remit-reader", args, io.Discard)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "mcp-remit-reader", cfg.ServerName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, int64(50*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, "csv", cfg.ExportFormat)
	assert.True(t, cfg.Metrics)

	currentDir, _ := os.Getwd()
	assert.Equal(t, currentDir, cfg.PDFDirectory)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "server mode", mutate: func(c *Config) { c.Mode = ModeServer }},
		{name: "invalid mode", mutate: func(c *Config) { c.Mode = "invalid" }, wantErr: "mode must be either"},
		{
			name:    "invalid port in server mode",
			mutate:  func(c *Config) { c.Mode = ModeServer; c.Port = 70000 },
			wantErr: "port must be between 1 and 65535",
		},
		{name: "port ignored in stdio mode", mutate: func(c *Config) { c.Port = 0 }},
		{name: "empty directory", mutate: func(c *Config) { c.PDFDirectory = "" }, wantErr: "cannot be empty"},
		{name: "zero max size", mutate: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "must be positive"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "invalid log format"},
		{name: "bad export format", mutate: func(c *Config) { c.ExportFormat = "pdf" }, wantErr: "invalid export format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidate_CreatesDirectory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PDFDirectory = filepath.Join(t.TempDir(), "nested", "remits")

	require.NoError(t, cfg.Validate())
	info, err := os.Stat(cfg.PDFDirectory)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "0.0.0.0"
	cfg.Port = 9090

	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
	assert.True(t, cfg.IsStdioMode())
	assert.False(t, cfg.IsServerMode())
	assert.False(t, cfg.IsDebug())

	cfg.Mode = ModeServer
	cfg.LogLevel = "debug"
	assert.True(t, cfg.IsServerMode())
	assert.True(t, cfg.IsDebug())
	assert.Contains(t, cfg.String(), "Mode: server")
	assert.Contains(t, cfg.String(), "Port: 9090")
}

func TestLoad_Flags(t *testing.T) {
	dir := t.TempDir()

	cfg, err := load(t,
		"--mode=server", "--host=0.0.0.0", "--port=9090", "--dir="+dir,
		"--log-level=DEBUG", "--log-format=json", "--max-file-size=1000",
		"--format=xlsx", "--metrics=false",
	)
	require.NoError(t, err)

	assert.Equal(t, ModeServer, cfg.Mode)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, dir, cfg.PDFDirectory)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, int64(1000), cfg.MaxFileSize)
	assert.Equal(t, "xlsx", cfg.ExportFormat)
	assert.False(t, cfg.Metrics)
}

func TestLoad_Environment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REMIT_MODE", "server")
	t.Setenv("REMIT_PORT", "3000")
	t.Setenv("REMIT_DIR", dir)
	t.Setenv("REMIT_LOG_LEVEL", "warn")
	t.Setenv("REMIT_MAX_FILE_SIZE", "200000000")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, ModeServer, cfg.Mode)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, dir, cfg.PDFDirectory)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, int64(200000000), cfg.MaxFileSize)
}

func TestLoad_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("REMIT_MODE", "server")
	t.Setenv("REMIT_PORT", "3000")

	cfg, err := load(t, "--mode=stdio", "--port=8888", "--dir="+t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, 8888, cfg.Port)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "remit.env")
	require.NoError(t, os.WriteFile(envFile, []byte("REMIT_LOG_FORMAT=json\nREMIT_FORMAT=json\n"), 0o600))
	// godotenv sets these in the process; restore them afterwards.
	t.Setenv("REMIT_LOG_FORMAT", "")
	t.Setenv("REMIT_FORMAT", "")
	require.NoError(t, os.Unsetenv("REMIT_LOG_FORMAT"))
	require.NoError(t, os.Unsetenv("REMIT_FORMAT"))

	cfg, err := Load("mcp-remit-reader", []string{"--env-file=" + envFile, "--dir=" + dir}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, "json", cfg.ExportFormat)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := load(t, "--mode=invalid", "--dir="+dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode must be either 'stdio' or 'server'")

	_, err = load(t, "--mode=server", "--port=99999", "--dir="+dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be between 1 and 65535")

	_, err = load(t, "--no-such-flag")
	assert.Error(t, err)

	_, err = load(t, "--version")
	assert.ErrorIs(t, err, ErrVersionRequested)
}
