// Package extract runs the claims engine against files on disk or uploads
// and encodes the results.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-remit-reader/internal/claims"
	"github.com/a3tai/mcp-remit-reader/internal/export"
	"github.com/a3tai/mcp-remit-reader/internal/metrics"
	"github.com/a3tai/mcp-remit-reader/internal/pdf"
)

// Report is the outcome of one extraction run.
type Report struct {
	RunID   string               `json:"run_id"`
	Path    string               `json:"path"`
	Records []claims.ClaimRecord `json:"records"`
	Stats   claims.Stats         `json:"stats"`
	Summary claims.Summary       `json:"summary"`
}

// Option configures a Service.
type Option func(*Service)

// WithGuard confines ExtractFile and Validate to a directory tree.
func WithGuard(guard *pdf.DirectoryGuard) Option {
	return func(s *Service) { s.guard = guard }
}

// WithMetrics records every run on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger for the service and the engine it drives.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithParser replaces the default claims parser.
func WithParser(p *claims.Parser) Option {
	return func(s *Service) { s.parser = p }
}

// WithTempDir sets where uploads are spooled. Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(s *Service) { s.tempDir = dir }
}

// Service validates a document, runs the parser over it and totals the
// result. It is safe for concurrent use.
type Service struct {
	validator *pdf.Validator
	guard     *pdf.DirectoryGuard
	parser    *claims.Parser
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tempDir   string
}

// NewService creates a service that rejects files larger than maxFileSize.
func NewService(maxFileSize int64, opts ...Option) *Service {
	s := &Service{
		validator: pdf.NewValidator(maxFileSize),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.parser == nil {
		s.parser = claims.NewParser(claims.WithLogger(s.logger))
	}
	return s
}

// Validator returns the service's file validator.
func (s *Service) Validator() *pdf.Validator { return s.validator }

// Root returns the guarded directory, or "" when paths are not confined.
func (s *Service) Root() string {
	if s.guard == nil {
		return ""
	}
	return s.guard.Root()
}

// Resolve applies the directory guard, if any, to path.
func (s *Service) Resolve(path string) (string, error) {
	if s.guard == nil {
		if path == "" {
			return "", fmt.Errorf("path cannot be empty")
		}
		return filepath.Abs(path)
	}
	return s.guard.Resolve(path)
}

// Validate reports whether path can be processed.
func (s *Service) Validate(path string) (*pdf.ValidationResult, error) {
	resolved, err := s.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ValidateFile(resolved), nil
}

// ExtractFile runs the engine over the PDF at path.
func (s *Service) ExtractFile(ctx context.Context, path string) (*Report, error) {
	resolved, err := s.Resolve(path)
	if err != nil {
		s.metrics.ObserveFailure(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.run(ctx, uuid.NewString(), resolved, resolved)
}

// ExtractReader spools r to a temporary file and runs the engine over it.
// name is reported as the document path. The temporary file is removed
// before returning.
func (s *Service) ExtractReader(ctx context.Context, name string, r io.Reader) (*Report, error) {
	runID := uuid.NewString()
	tmp := filepath.Join(s.tempDirOrDefault(), "remit-"+runID+".pdf")

	if err := s.spool(tmp, r); err != nil {
		s.metrics.ObserveFailure(metrics.OutcomeInvalid)
		return nil, err
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("extract.tmp.remove_failed", "run_id", runID, "error", err)
		}
	}()

	return s.run(ctx, runID, tmp, name)
}

// Export encodes the report's records.
func (s *Service) Export(w io.Writer, f export.Format, rep *Report) error {
	return export.Write(w, f, rep.Records)
}

func (s *Service) spool(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	limit := s.validator.MaxFileSize()
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = s.validator.ValidateSize(n)
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("spool upload: %w", err)
	}
	return nil
}

func (s *Service) tempDirOrDefault() string {
	if s.tempDir != "" {
		return s.tempDir
	}
	return os.TempDir()
}

func (s *Service) run(ctx context.Context, runID, path, display string) (*Report, error) {
	start := time.Now()
	logger := s.logger.With("run_id", runID, "path", display)

	if err := s.validator.Check(path); err != nil {
		s.metrics.ObserveFailure(metrics.OutcomeInvalid)
		return nil, err
	}

	doc, err := pdf.Open(path, pdf.WithLogger(logger))
	if err != nil {
		s.metrics.ObserveFailure(metrics.OutcomeError)
		return nil, err
	}
	defer doc.Close()

	res, err := s.parser.Run(ctx, claims.FromPDF(doc))
	if err != nil {
		s.metrics.ObserveFailure(metrics.OutcomeError)
		logger.Error("extract.run.failed", "error", err)
		return nil, fmt.Errorf("extract %s: %w", display, err)
	}

	rep := &Report{
		RunID:   runID,
		Path:    display,
		Records: res.Records,
		Stats:   res.Stats,
		Summary: claims.Summarize(res.Records),
	}
	s.metrics.ObserveRun(res.Stats, len(res.Records))

	logger.Info("extract.run.ok",
		"records", len(rep.Records),
		"pages", rep.Stats.Pages,
		"unresolved", rep.Stats.Unresolved,
		"truncated", rep.Stats.Truncated,
		"charge_total", rep.Summary.ChargeTotal.StringFixed(2),
		"payment_total", rep.Summary.PaymentTotal.StringFixed(2),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rep, nil
}
