package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

// mockUI is a configurable in-memory UIBackend. Zero-value behavior is a
// single window with no elements; tests override the function fields they
// care about.
type mockUI struct {
	findWindowFn   func(ctx context.Context, sel recipe.WindowSelector, app string) (WindowHandle, error)
	findElementsFn func(ctx context.Context, win WindowHandle, q ElementQuery) ([]ElementHandle, error)
	clickFn        func(ctx context.Context, el ElementHandle, verify bool) error
	typeTextFn     func(ctx context.Context, el ElementHandle, text string, verify bool) error
	sendHotkeyFn   func(ctx context.Context, win WindowHandle, keys string) error
	readTextFn     func(ctx context.Context, el ElementHandle) (string, error)
	verifyStateFn  func(ctx context.Context, el ElementHandle, state string) (bool, error)

	mu       sync.Mutex
	typed    []string
	clicks   int
	captures int
	closed   bool
}

func (m *mockUI) FindWindow(ctx context.Context, sel recipe.WindowSelector, app string) (WindowHandle, error) {
	if m.findWindowFn != nil {
		return m.findWindowFn(ctx, sel, app)
	}
	return "window", nil
}

func (m *mockUI) ForegroundWindow(ctx context.Context, app string) (WindowHandle, error) {
	return "window", nil
}

func (m *mockUI) FindElements(ctx context.Context, win WindowHandle, q ElementQuery) ([]ElementHandle, error) {
	if m.findElementsFn != nil {
		return m.findElementsFn(ctx, win, q)
	}
	return nil, nil
}

func (m *mockUI) Click(ctx context.Context, el ElementHandle, verify bool) error {
	m.mu.Lock()
	m.clicks++
	m.mu.Unlock()
	if m.clickFn != nil {
		return m.clickFn(ctx, el, verify)
	}
	return nil
}

func (m *mockUI) TypeText(ctx context.Context, el ElementHandle, text string, verify bool) error {
	m.mu.Lock()
	m.typed = append(m.typed, text)
	m.mu.Unlock()
	if m.typeTextFn != nil {
		return m.typeTextFn(ctx, el, text, verify)
	}
	return nil
}

func (m *mockUI) SendHotkey(ctx context.Context, win WindowHandle, keys string) error {
	if m.sendHotkeyFn != nil {
		return m.sendHotkeyFn(ctx, win, keys)
	}
	return nil
}

func (m *mockUI) ReadText(ctx context.Context, el ElementHandle) (string, error) {
	if m.readTextFn != nil {
		return m.readTextFn(ctx, el)
	}
	return "", nil
}

func (m *mockUI) VerifyState(ctx context.Context, el ElementHandle, state string) (bool, error) {
	if m.verifyStateFn != nil {
		return m.verifyStateFn(ctx, el, state)
	}
	return true, nil
}

func (m *mockUI) CaptureDiagnostic(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures++
	return fmt.Sprintf("diagnostic_%d.png", m.captures), nil
}

func (m *mockUI) CaptureScreen(ctx context.Context, filename string) (string, error) {
	return filename, nil
}

func (m *mockUI) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockProcess tracks launched applications in memory.
type mockProcess struct {
	running  map[string]bool
	launches int
	launchFn func(ctx context.Context, path string, args []string, workDir string) (int, bool, error)
}

func newMockProcess() *mockProcess {
	return &mockProcess{running: make(map[string]bool)}
}

func (m *mockProcess) Launch(ctx context.Context, path string, args []string, workDir string) (int, bool, error) {
	if m.launchFn != nil {
		return m.launchFn(ctx, path, args, workDir)
	}
	if m.running[path] {
		return 0, true, nil
	}
	m.launches++
	m.running[path] = true
	return 4200 + m.launches, false, nil
}

func (m *mockProcess) IsRunning(ctx context.Context, name string) (bool, error) {
	return m.running[name], nil
}

func (m *mockProcess) Terminate(ctx context.Context, name string, force bool) error {
	delete(m.running, name)
	return nil
}

// mockFS is a map-backed FilesystemBackend.
type mockFS struct {
	files map[string]string
}

func newMockFS() *mockFS {
	return &mockFS{files: make(map[string]string)}
}

func (m *mockFS) ReadFile(path string) (string, error) {
	content, ok := m.files[path]
	if !ok {
		return "", NewNotFoundError(fmt.Sprintf("file not found: %s", path), nil)
	}
	return content, nil
}

func (m *mockFS) WriteFile(path, content string) error {
	m.files[path] = content
	return nil
}

func (m *mockFS) CopyFile(src, dst string) error {
	content, ok := m.files[src]
	if !ok {
		return NewNotFoundError(fmt.Sprintf("file not found: %s", src), nil)
	}
	m.files[dst] = content
	return nil
}

// mockOCR returns a fixed recognition result.
type mockOCR struct {
	text      string
	available bool
}

func (m *mockOCR) ExtractTextFromRegion(ctx context.Context, region recipe.Region) (string, error) {
	return m.text, nil
}

func (m *mockOCR) ExtractTextFromImage(ctx context.Context, imagePath string) (string, error) {
	return m.text, nil
}

func (m *mockOCR) Available() bool {
	return m.available
}
