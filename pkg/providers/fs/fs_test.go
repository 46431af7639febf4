package fs

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/engine"
)

func TestReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBackend(zerolog.Nop(), []string{dir})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	path := filepath.Join(dir, "sub", "out.txt")
	if err := b.WriteFile(path, "hello"); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := b.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q", got)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBackend(zerolog.Nop(), []string{dir})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "nested", "dst.txt")
	if err := b.WriteFile(src, "payload"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := b.CopyFile(src, dst); err != nil {
		t.Fatalf("copy failed: %v", err)
	}

	got, err := b.ReadFile(dst)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != "payload" {
		t.Errorf("got %q", got)
	}
}

func TestPathOutsideAllowListIsRejected(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	b, err := NewBackend(zerolog.Nop(), []string{dir})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	cases := []string{
		filepath.Join(outside, "x.txt"),
		filepath.Join(dir, "..", "escape.txt"),
	}
	for _, path := range cases {
		if err := b.WriteFile(path, "x"); !engine.IsValidation(err) {
			t.Errorf("write to %q: expected a validation error, got %v", path, err)
		}
		if _, err := b.ReadFile(path); !engine.IsValidation(err) {
			t.Errorf("read of %q: expected a validation error, got %v", path, err)
		}
	}
}

func TestMissingFileIsNotFound(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBackend(zerolog.Nop(), []string{dir})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	_, err = b.ReadFile(filepath.Join(dir, "absent.txt"))
	if !engine.IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestEmptyAllowListAllowsAnyPath(t *testing.T) {
	b, err := NewBackend(zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	path := filepath.Join(t.TempDir(), "free.txt")
	if err := b.WriteFile(path, "ok"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}
