// Package ocr extracts text from screen regions and image files by shelling
// out to the tesseract CLI. Screen capture is injected so the package stays
// free of display dependencies.
package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/engine"
	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

// CaptureFunc captures a screen region to an image file at path.
type CaptureFunc func(ctx context.Context, region recipe.Region, path string) error

// Backend implements engine.OCRBackend over the tesseract CLI.
type Backend struct {
	log     zerolog.Logger
	binary  string
	tempDir string
	capture CaptureFunc
}

var _ engine.OCRBackend = (*Backend)(nil)

// NewBackend creates an OCR backend. capture provides region screenshots;
// it may be nil when only file-based extraction is needed.
func NewBackend(log zerolog.Logger, capture CaptureFunc) *Backend {
	binary, _ := exec.LookPath("tesseract")
	return &Backend{
		log:     log.With().Str("component", "ocr").Logger(),
		binary:  binary,
		tempDir: os.TempDir(),
		capture: capture,
	}
}

// Available reports whether the tesseract binary was found on PATH.
func (b *Backend) Available() bool {
	return b.binary != ""
}

// ExtractTextFromRegion captures the screen region and extracts its text.
func (b *Backend) ExtractTextFromRegion(ctx context.Context, region recipe.Region) (string, error) {
	if b.capture == nil {
		return "", engine.NewBackendError("no screen capture available for region OCR", nil)
	}

	imagePath := filepath.Join(b.tempDir, fmt.Sprintf("ocr_region_%d.png", time.Now().UnixNano()))
	defer os.Remove(imagePath)

	if err := b.capture(ctx, region, imagePath); err != nil {
		return "", engine.NewBackendError("failed to capture screen region", err)
	}
	return b.ExtractTextFromImage(ctx, imagePath)
}

// ExtractTextFromImage extracts text from an image file.
func (b *Backend) ExtractTextFromImage(ctx context.Context, imagePath string) (string, error) {
	if !b.Available() {
		return "", engine.NewBackendError("tesseract is not installed", nil)
	}
	if _, err := os.Stat(imagePath); err != nil {
		return "", engine.NewNotFoundError(fmt.Sprintf("image not found: %s", imagePath), err)
	}

	// "stdout" makes tesseract print the recognized text instead of
	// writing an output file.
	cmd := exec.CommandContext(ctx, b.binary, imagePath, "stdout")
	out, err := cmd.Output()
	if err != nil {
		return "", engine.NewBackendError("tesseract failed", err)
	}

	text := strings.TrimSpace(string(out))
	b.log.Debug().Str("image", imagePath).Int("chars", len(text)).Msg("text extracted")
	return text, nil
}
