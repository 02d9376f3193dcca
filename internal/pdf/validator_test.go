package pdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-remit-reader/internal/pdf/pdftest"
)

func TestValidator_ValidateFile(t *testing.T) {
	validator := NewValidator(1024 * 1024) // 1MB limit
	dir := t.TempDir()

	valid := pdftest.Write(t, "valid.pdf", [][]pdftest.Line{{{X: 50, Y: 700, Text: "PATIENT: DOE"}}})

	notPDF := filepath.Join(dir, "fake.pdf")
	require.NoError(t, os.WriteFile(notPDF, []byte("just some text"), 0o600))

	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	tests := []struct {
		name        string
		path        string
		expectValid bool
		message     string
	}{
		{name: "valid pdf", path: valid, expectValid: true},
		{name: "empty path", path: "", message: "path cannot be empty"},
		{name: "non-existent file", path: "/non/existent/file.pdf", message: "does not exist"},
		{name: "directory", path: dir, message: "directory"},
		{name: "missing header", path: notPDF, message: "not a PDF"},
		{name: "empty file", path: empty, message: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.ValidateFile(tt.path)
			require.NotNil(t, result)
			assert.Equal(t, tt.path, result.Path)
			assert.Equal(t, tt.expectValid, result.Valid)
			if tt.expectValid {
				assert.Equal(t, 1, result.Pages)
				assert.Positive(t, result.Size)
				return
			}
			assert.Contains(t, result.Message, tt.message)
		})
	}
}

func TestValidator_ValidateSize(t *testing.T) {
	validator := NewValidator(100)
	assert.Equal(t, int64(100), validator.MaxFileSize())

	assert.NoError(t, validator.ValidateSize(100))
	assert.ErrorIs(t, validator.ValidateSize(0), ErrEmptyFile)
	assert.ErrorIs(t, validator.ValidateSize(101), ErrFileTooLarge)
}

func TestValidator_CheckRejectsWrongExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remit.txt")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o600))

	err := NewValidator(1024).Check(path)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestCheckHeader(t *testing.T) {
	assert.NoError(t, CheckHeader(strings.NewReader("%PDF-1.7\n...")))
	assert.ErrorIs(t, CheckHeader(strings.NewReader("%PD")), ErrNotPDF)
	assert.ErrorIs(t, CheckHeader(strings.NewReader("<html>")), ErrNotPDF)
}
