package pdf

import (
	"errors"
	"fmt"
)

// AccessError describes a failure while reading a document.
type AccessError struct {
	Op   string `json:"operation"`
	Path string `json:"path,omitempty"`
	Err  error  `json:"error"`
}

func (e *AccessError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("pdf %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pdf %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// Common error variables
var (
	ErrDocumentClosed = errors.New("document is closed")
	ErrInvalidPage    = errors.New("invalid page number")
	ErrNotPDF         = errors.New("file is not a PDF")
	ErrFileTooLarge   = errors.New("file too large")
	ErrEmptyFile      = errors.New("file is empty")
)
