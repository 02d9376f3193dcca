package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfMagic = []byte("%PDF-")

// ValidationResult reports whether a file can be processed.
type ValidationResult struct {
	Path     string `json:"path"`
	Valid    bool   `json:"valid"`
	Pages    int    `json:"pages,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Message  string `json:"message,omitempty"`
	Warnings string `json:"warnings,omitempty"`
}

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// MaxFileSize returns the configured size limit in bytes.
func (v *Validator) MaxFileSize() int64 {
	return v.maxFileSize
}

// ValidateFile checks the file and reports the outcome. Validation
// failures are returned in the result, not as an error.
func (v *Validator) ValidateFile(path string) *ValidationResult {
	result := &ValidationResult{Path: path}

	info, err := v.check(path)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.Size = info.Size()

	pages, err := countPages(path)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.Pages = pages

	if err := validateStructure(path); err != nil {
		result.Warnings = err.Error()
	}

	result.Valid = true
	return result
}

// Check performs the fast checks needed before a file is opened: it
// exists, is a regular non-empty file within the size limit, and starts
// with the PDF header.
func (v *Validator) Check(path string) error {
	_, err := v.check(path)
	return err
}

func (v *Validator) check(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	if err := v.ValidateFileInfo(path, info); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open file: %w", err)
	}
	defer f.Close()

	if err := CheckHeader(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return info, nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("%w: %s", ErrNotPDF, filePath)
	}

	return v.ValidateSize(fileInfo.Size())
}

// ValidateSize checks a byte count against the configured limit.
func (v *Validator) ValidateSize(size int64) error {
	if size == 0 {
		return ErrEmptyFile
	}
	if size > v.maxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrFileTooLarge, size, v.maxFileSize)
	}
	return nil
}

// CheckHeader verifies that r starts with the PDF magic bytes.
func CheckHeader(r io.Reader) error {
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(r, head); err != nil {
		return ErrNotPDF
	}
	if !bytes.Equal(head, pdfMagic) {
		return ErrNotPDF
	}
	return nil
}

func countPages(path string) (int, error) {
	f, reader, err := lpdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()
	return reader.NumPage(), nil
}

// validateStructure runs pdfcpu's relaxed validation. Remittance files
// produced by payer systems frequently carry minor structural defects
// that text extraction tolerates, so problems are surfaced as warnings.
func validateStructure(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.Validate(f, conf)
}
