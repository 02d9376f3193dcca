package pdf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo describes a PDF found on disk.
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Finder lists candidate PDF files under a directory.
type Finder struct {
	validator *Validator
}

// NewFinder creates a finder that skips files the validator would reject
// without opening them.
func NewFinder(validator *Validator) *Finder {
	return &Finder{validator: validator}
}

// Find walks directory and returns the PDF files whose names match query.
// Hidden directories are skipped. A limit <= 0 means no limit.
func (f *Finder) Find(directory, query string, limit int) ([]FileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}
	if _, err := os.Stat(absDirectory); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	files := []FileInfo{}

	err = filepath.WalkDir(absDirectory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, the walk goes on.
			return nil //nolint:nilerr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != absDirectory {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 || !isPDFName(d.Name()) {
			return nil
		}
		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr
		}
		if err := f.validator.ValidateFileInfo(path, info); err != nil {
			return nil //nolint:nilerr
		}
		if !matchesQuery(info.Name(), query) {
			return nil
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}
	return files, nil
}

func isPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// matchesQuery reports whether every word of query appears in some word
// of the file name. query must already be lower case.
func matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}
	name := strings.TrimSuffix(strings.ToLower(filename), ".pdf")
	if strings.Contains(name, query) {
		return true
	}

	words := splitWords(name)
	for _, q := range splitWords(query) {
		found := false
		for _, w := range words {
			if strings.Contains(w, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(" _-.()[]", r)
	})
}
