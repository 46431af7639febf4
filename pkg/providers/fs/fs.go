// Package fs implements the filesystem backend for recipe file operations.
// Every path is checked against an allow-list of base directories before any
// I/O happens; recipes cannot touch files outside it.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/engine"
)

// Backend implements engine.FilesystemBackend with allow-listed base
// directories.
type Backend struct {
	log     zerolog.Logger
	allowed []string
}

var _ engine.FilesystemBackend = (*Backend)(nil)

// NewBackend creates a filesystem backend. allowedDirs are the base
// directories recipes may read and write under; an empty list allows any
// path.
func NewBackend(log zerolog.Logger, allowedDirs []string) (*Backend, error) {
	resolved := make([]string, 0, len(allowedDirs))
	for _, dir := range allowedDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve allowed directory %q: %w", dir, err)
		}
		resolved = append(resolved, abs)
	}
	return &Backend{
		log:     log.With().Str("component", "fs").Logger(),
		allowed: resolved,
	}, nil
}

// ReadFile reads the file's text content.
func (b *Backend) ReadFile(path string) (string, error) {
	abs, err := b.checkPath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		return "", engine.NewNotFoundError(fmt.Sprintf("file not found: %s", path), err)
	}
	if err != nil {
		return "", engine.NewBackendError(fmt.Sprintf("failed to read %s", path), err)
	}
	return string(data), nil
}

// WriteFile writes content to the file, creating parent directories.
func (b *Backend) WriteFile(path, content string) error {
	abs, err := b.checkPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return engine.NewBackendError(fmt.Sprintf("failed to create parent directory for %s", path), err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return engine.NewBackendError(fmt.Sprintf("failed to write %s", path), err)
	}
	b.log.Debug().Str("path", abs).Int("bytes", len(content)).Msg("file written")
	return nil
}

// CopyFile copies src to dst, creating parent directories.
func (b *Backend) CopyFile(src, dst string) error {
	content, err := b.ReadFile(src)
	if err != nil {
		return err
	}
	return b.WriteFile(dst, content)
}

// checkPath resolves a path and verifies it sits under an allowed base
// directory.
func (b *Backend) checkPath(path string) (string, error) {
	if path == "" {
		return "", engine.NewValidationError("file path is empty", nil)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", engine.NewValidationError(fmt.Sprintf("invalid file path %q", path), err)
	}
	if len(b.allowed) == 0 {
		return abs, nil
	}
	for _, base := range b.allowed {
		rel, err := filepath.Rel(base, abs)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)) {
			return abs, nil
		}
	}
	return "", engine.NewValidationError(fmt.Sprintf("path %q is outside the allowed directories", path), nil)
}
