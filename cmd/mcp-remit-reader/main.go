package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-remit-reader/internal/config"
	"github.com/a3tai/mcp-remit-reader/internal/extract"
	"github.com/a3tai/mcp-remit-reader/internal/httpapi"
	"github.com/a3tai/mcp-remit-reader/internal/logging"
	"github.com/a3tai/mcp-remit-reader/internal/mcp"
	"github.com/a3tai/mcp-remit-reader/internal/metrics"
	"github.com/a3tai/mcp-remit-reader/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the process logger. Logs always go to stderr since
// stdio mode owns stdout for the MCP protocol.
func setupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	logger := logging.New(w, cfg.LogLevel, cfg.LogFormat).With("mode", cfg.Mode)
	slog.SetDefault(logger)
	return logger
}

// app holds the wired components shared by both modes.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	service *extract.Service
	mcp     *mcp.Server
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	guard, err := pdf.NewDirectoryGuard(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to guard PDF directory: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	opts := []extract.Option{extract.WithGuard(guard), extract.WithLogger(logger)}
	if cfg.Metrics {
		a.metrics = metrics.New()
		opts = append(opts, extract.WithMetrics(a.metrics))
	}
	a.service = extract.NewService(cfg.MaxFileSize, opts...)

	a.mcp, err = mcp.NewServer(cfg, a.service, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	return a, nil
}

// runServerMode serves the upload API, with MCP over HTTP on /mcp, until
// ctx is done.
func (a *app) runServerMode(ctx context.Context) error {
	opts := []httpapi.Option{
		httpapi.WithLogger(a.logger),
		httpapi.WithMCP(a.mcp.HTTPHandler()),
	}
	if a.metrics != nil {
		opts = append(opts, httpapi.WithMetrics(a.metrics))
	}

	srv, err := httpapi.NewServer(a.cfg, a.service, opts...)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// runStdioMode serves MCP until the parent closes stdin or ctx is done.
func (a *app) runStdioMode(ctx context.Context) error {
	return a.mcp.Run(ctx)
}

func (a *app) run(ctx context.Context) error {
	if a.cfg.IsServerMode() {
		return a.runServerMode(ctx)
	}
	return a.runStdioMode(ctx)
}

func main() {
	cfg, err := config.LoadFromFlags()
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(os.Stdout)
		return
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg, os.Stderr)
	logger.Debug("config.loaded", "config", cfg.String())

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("startup.failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := a.run(ctx); err != nil {
		logger.Error("server.failed", "error", err)
		stop()
		os.Exit(1)
	}
	logger.Info("server.stopped")
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP Remittance Reader\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
