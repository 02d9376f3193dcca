// Package httpapi serves remittance extraction over plain HTTP uploads.
package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/a3tai/mcp-remit-reader/internal/config"
	"github.com/a3tai/mcp-remit-reader/internal/export"
	"github.com/a3tai/mcp-remit-reader/internal/extract"
	"github.com/a3tai/mcp-remit-reader/internal/metrics"
)

const (
	// UploadField is the multipart field that carries the PDF.
	UploadField = "pdf_file"

	// multipartOverhead is allowed on top of the file size limit for
	// boundaries and part headers.
	multipartOverhead = 1 << 20

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes m on GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMCP mounts an MCP streamable HTTP handler on /mcp.
func WithMCP(h http.Handler) Option {
	return func(s *Server) { s.mcp = h }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server is the upload API.
type Server struct {
	config  *config.Config
	service *extract.Service
	metrics *metrics.Metrics
	mcp     http.Handler
	logger  *slog.Logger
	engine  *gin.Engine
}

// NewServer builds the router.
func NewServer(cfg *config.Config, service *extract.Service, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if service == nil {
		return nil, errors.New("extract service cannot be nil")
	}

	s := &Server{
		config:  cfg,
		service: service,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if !cfg.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.health)
	r.POST("/parse-pdf", s.parsePDF)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	if s.mcp != nil {
		r.Any("/mcp", gin.WrapH(s.mcp))
	}

	s.engine = r
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http.listen", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http.shutdown", "addr", srv.Addr)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) parsePDF(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", s.config.ExportFormat))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxFileSize+multipartOverhead)

	fh, err := c.FormFile(UploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		case s.emptySelection(c):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF file provided"})
		}
		return
	}
	if fh.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}

	file, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	rep, err := s.service.ExtractReader(c.Request.Context(), fh.Filename, file)
	if err != nil {
		s.logger.Warn("http.parse.failed", "file", fh.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := s.service.Export(&buf, format, rep); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.AttachmentName(fh.Filename, format)))
	c.Header("X-Run-ID", rep.RunID)
	c.Header("X-Record-Count", strconv.Itoa(len(rep.Records)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// emptySelection reports whether the upload field was sent without a
// file name, which multipart parsing stores as a plain value.
func (s *Server) emptySelection(c *gin.Context) bool {
	if c.Request.MultipartForm == nil {
		return false
	}
	_, ok := c.Request.MultipartForm.Value[UploadField]
	return ok
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}
