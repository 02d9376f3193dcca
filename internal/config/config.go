package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Log formats
	LogFormatText = "text"
	LogFormatJSON = "json"

	// Default values
	DefaultPort         = 8080
	DefaultHost         = "127.0.0.1"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = LogFormatText
	DefaultMaxFileSize  = 50 * 1024 * 1024 // 50MB, the upload limit
	DefaultExportFormat = "csv"
	DefaultEnvFile      = ".env"

	// EnvPrefix prefixes every environment variable, e.g. REMIT_PORT.
	EnvPrefix = "REMIT"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// ErrVersionRequested is returned by Load when --version is given.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the remittance reader
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDFDirectory bounds every path the MCP tools may open
	PDFDirectory string

	// Application configuration
	Version      string
	ServerName   string
	LogLevel     string
	LogFormat    string
	MaxFileSize  int64 // Maximum PDF file size in bytes
	ExportFormat string
	Metrics      bool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:         ModeStdio, // stdio is what MCP clients launch
		Host:         DefaultHost,
		Port:         DefaultPort,
		PDFDirectory: currentDir,
		Version:      "1.0.0",
		ServerName:   "mcp-remit-reader",
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		MaxFileSize:  DefaultMaxFileSize,
		ExportFormat: DefaultExportFormat,
		Metrics:      true,
	}
}

// LoadFromFlags parses os.Args and the environment into a configuration
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[0], os.Args[1:], os.Stderr)
}

// Load builds a configuration from args, REMIT_* environment variables and
// an optional .env file, in that order of precedence. Usage goes to out.
func Load(program string, args []string, out io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	if hasVersionFlag(args) {
		return nil, ErrVersionRequested
	}

	v := viper.New()
	setupViperEnvironment(v, cfg)

	fs := pflag.NewFlagSet(program, pflag.ContinueOnError)
	fs.SetOutput(out)
	defineCommandLineFlags(fs, cfg)
	fs.Usage = usage(fs, program, out)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := fs.GetString("env-file")
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	populateConfigFromViper(v, cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("log-format", cfg.LogFormat)
	v.SetDefault("max-file-size", cfg.MaxFileSize)
	v.SetDefault("format", cfg.ExportFormat)
	v.SetDefault("metrics", cfg.Metrics)
}

func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for the HTTP upload API")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("dir", cfg.PDFDirectory, "Directory containing remittance PDF files")
	fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", cfg.LogFormat, "Log format (text, json)")
	fs.Int64("max-file-size", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.String("format", cfg.ExportFormat, "Default export format (csv, xlsx, json)")
	fs.Bool("metrics", cfg.Metrics, "Expose Prometheus metrics on /metrics (server mode only)")
	fs.String("env-file", DefaultEnvFile, "Optional dotenv file with REMIT_* variables")
}

func usage(fs *pflag.FlagSet, program string, out io.Writer) func() {
	return func() {
		fmt.Fprintf(out, "Usage of %s:\n", program)
		fmt.Fprintf(out, "\nMCP Remit Reader - extracts claim records from remittance advice PDFs\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  %s                                          # stdio mode, current directory\n", program)
		fmt.Fprintf(out, "  %s --dir=/path/to/remits                    # stdio mode with custom directory\n", program)
		fmt.Fprintf(out, "  %s --mode=server --host=0.0.0.0 --port=8081 # upload API on all interfaces\n", program)
		fmt.Fprintf(out, "\nEnvironment Variables:\n")
		fmt.Fprintf(out, "  REMIT_MODE, REMIT_HOST, REMIT_PORT, REMIT_DIR, REMIT_LOG_LEVEL,\n")
		fmt.Fprintf(out, "  REMIT_LOG_FORMAT, REMIT_MAX_FILE_SIZE, REMIT_FORMAT, REMIT_METRICS\n")
	}
}

func hasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.PDFDirectory = v.GetString("dir")
	cfg.LogLevel = strings.ToLower(v.GetString("log-level"))
	cfg.LogFormat = strings.ToLower(v.GetString("log-format"))
	cfg.MaxFileSize = v.GetInt64("max-file-size")
	cfg.ExportFormat = strings.ToLower(v.GetString("format"))
	cfg.Metrics = v.GetBool("metrics")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Create the PDF directory if it doesn't exist
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.LogFormat)
	}

	switch c.ExportFormat {
	case "csv", "xlsx", "json":
	default:
		return fmt.Errorf("invalid export format: %s (must be one of: csv, xlsx, json)", c.ExportFormat)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, LogFormat: %s, "+
		"MaxFileSize: %d, ExportFormat: %s, Metrics: %t}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.LogFormat,
		c.MaxFileSize, c.ExportFormat, c.Metrics)
}

// IsServerMode returns true if the HTTP upload API should run
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
