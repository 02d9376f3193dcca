package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-remit-reader/internal/config"
	"github.com/a3tai/mcp-remit-reader/internal/descriptions"
	"github.com/a3tai/mcp-remit-reader/internal/export"
	"github.com/a3tai/mcp-remit-reader/internal/extract"
	"github.com/a3tai/mcp-remit-reader/internal/pdf"
)

// maxListedFiles bounds the directory listing in server info.
const maxListedFiles = 10

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *extract.Service
	finder    *pdf.Finder
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *extract.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if service == nil {
		return nil, errors.New("extract service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		finder:    pdf.NewFinder(service.Validator()),
		mcpServer: mcpServer,
		logger:    logger,
	}
	s.registerTools()

	return s, nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ClaimsExtractFile,
		mcp.WithDescription(descriptions.ClaimsExtractFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the remittance PDF, absolute or relative to the configured directory"),
		),
		mcp.WithString("format",
			mcp.Description("Record encoding: json (default) or csv; xlsx requires output"),
			mcp.Enum("json", "csv", "xlsx"),
		),
		mcp.WithString("output",
			mcp.Description("Optional file to write the export to, inside the configured directory"),
		),
	), s.handleClaimsExtractFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.PDFValidateFile,
		mcp.WithDescription(descriptions.PDFValidateFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	), s.handlePDFValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ClaimsListFiles,
		mcp.WithDescription(descriptions.ClaimsListFilesDescription),
		mcp.WithString("directory",
			mcp.Description("Directory to search (uses the configured directory if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional words to match against file names"),
		),
	), s.handleClaimsListFiles)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ClaimsServerInfo,
		mcp.WithDescription(descriptions.ClaimsServerInfoDescription),
	), s.handleClaimsServerInfo)
}

func (s *Server) handleClaimsExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()
	formatArg, _ := args["format"].(string)
	output, _ := args["output"].(string)

	format, err := s.resolveFormat(formatArg, output)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if format == export.FormatXLSX && output == "" {
		return mcp.NewToolResultError("xlsx output requires an output path"), nil
	}

	rep, err := s.service.ExtractFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := formatReportSummary(rep)

	if output != "" {
		written, err := s.writeExport(rep, format, output)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text += fmt.Sprintf("Export written: %s (%s)\n", written, format)
		return mcp.NewToolResultText(text), nil
	}

	var buf bytes.Buffer
	if err := s.service.Export(&buf, format, rep); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text += "\nRecords (" + string(format) + "):\n" + buf.String()
	return mcp.NewToolResultText(text), nil
}

// resolveFormat picks the explicit format, then the output extension.
// Inline results default to json, files to the configured format.
func (s *Server) resolveFormat(formatArg, output string) (export.Format, error) {
	if formatArg != "" {
		return export.ParseFormat(formatArg)
	}
	if output == "" {
		return export.FormatJSON, nil
	}
	if ext := strings.TrimPrefix(filepath.Ext(output), "."); ext != "" {
		return export.ParseFormat(ext)
	}
	return export.ParseFormat(s.config.ExportFormat)
}

func (s *Server) writeExport(rep *extract.Report, format export.Format, output string) (string, error) {
	target, err := s.service.Resolve(output)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), config.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	if err := s.service.Export(f, format, rep); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close output file: %w", err)
	}
	s.logger.Info("mcp.export.ok", "run_id", rep.RunID, "path", target, "format", format)
	return target, nil
}

func (s *Server) handlePDFValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Validate(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages, %d bytes)", result.Path, result.Pages, result.Size)
		if result.Warnings != "" {
			responseText += "\nWarnings: " + result.Warnings
		}
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleClaimsListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	directory := s.config.PDFDirectory
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}
	query, _ := args["query"].(string)

	resolved, err := s.service.Resolve(directory)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("security validation failed: %v", err)), nil
	}

	files, err := s.finder.Find(resolved, query, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(files) == 0 {
		text := fmt.Sprintf("No PDF files found in directory: %s", resolved)
		if query != "" {
			text += fmt.Sprintf(" (searched for: %s)", query)
		}
		return mcp.NewToolResultText(text), nil
	}
	return mcp.NewToolResultText(formatFileList(resolved, query, files)), nil
}

func (s *Server) handleClaimsServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.finder.Find(s.config.PDFDirectory, "", maxListedFiles+1)
	if err != nil {
		s.logger.Warn("mcp.server_info.list_failed", "error", err)
	}
	return mcp.NewToolResultText(s.formatServerInfo(files)), nil
}

func formatReportSummary(rep *extract.Report) string {
	text := fmt.Sprintf("Extracted %d claim record(s) from %s\n", len(rep.Records), rep.Path)
	text += fmt.Sprintf("Run ID: %s\n", rep.RunID)
	text += fmt.Sprintf("Pages: %d\n", rep.Stats.Pages)
	text += fmt.Sprintf("Multi-page blocks: %d\n", rep.Stats.Stitched)
	if rep.Stats.ProfilePage < 0 {
		text += "Column landmarks: not found (Date Of Service, Service Code and Modifier are empty)\n"
	}
	if rep.Stats.Unresolved > 0 {
		text += fmt.Sprintf("Blocks without located service lines: %d\n", rep.Stats.Unresolved)
	}
	if rep.Stats.Truncated > 0 {
		text += fmt.Sprintf("Blocks running off the last page: %d\n", rep.Stats.Truncated)
	}
	text += fmt.Sprintf("Charge total: %s\n", rep.Summary.ChargeTotal.StringFixed(2))
	text += fmt.Sprintf("Payment total: %s\n", rep.Summary.PaymentTotal.StringFixed(2))
	if rep.Summary.Skipped > 0 {
		text += fmt.Sprintf("Unparsable amounts skipped: %d\n", rep.Summary.Skipped)
	}
	return text
}

func formatFileList(directory, query string, files []pdf.FileInfo) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", len(files), directory)
	if query != "" {
		text += fmt.Sprintf("Search query: %s\n", query)
	}
	text += "\nFiles:\n"

	for i, file := range files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
	}
	return text
}

func (s *Server) formatServerInfo(files []pdf.FileInfo) string {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Default Directory: %s\n", s.config.PDFDirectory)
	text += fmt.Sprintf("Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Default Export Format: %s\n\n", s.config.ExportFormat)

	if len(files) > 0 {
		text += "Directory Contents:\n"
		for i, file := range files {
			if i >= maxListedFiles {
				text += "   ... and more\n"
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "Directory Contents: No PDF files found in default directory\n\n"
	}

	text += "Available Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		desc := descriptions.GetToolDescription(name)
		summary, _, _ := strings.Cut(desc, "\n")
		text += fmt.Sprintf("  • %s: %s\n", name, summary)
	}
	return text
}

// Run serves MCP over standard I/O until ctx is done or stdin closes.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("mcp.stdio.start", "dir", s.config.PDFDirectory)

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// HTTPHandler exposes the same tools over MCP streamable HTTP.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer)
}
