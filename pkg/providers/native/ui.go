// Package native drives the desktop through robotgo. It exposes a flat
// element model: windows are located by process and title, and element
// queries resolve against window titles. Interactions (click, type, hotkey,
// capture) operate on the focused window.
package native

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/rs/zerolog"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/engine"
	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

// window is the backend's resolved window reference.
type window struct {
	PID   int
	Title string
}

// UIBackend implements engine.UIBackend on top of robotgo.
type UIBackend struct {
	log          zerolog.Logger
	artifactsDir string

	// mu guards the window cache. Cached entries live until Close.
	mu    sync.Mutex
	cache map[string]*window
}

var _ engine.UIBackend = (*UIBackend)(nil)

// NewUIBackend creates a native UI backend. Diagnostic and screenshot
// artifacts are written under artifactsDir.
func NewUIBackend(log zerolog.Logger, artifactsDir string) *UIBackend {
	return &UIBackend{
		log:          log.With().Str("component", "native_ui").Logger(),
		artifactsDir: artifactsDir,
		cache:        make(map[string]*window),
	}
}

// FindWindow resolves a window by selector. Title matching is a
// case-insensitive substring match, the way window titles change as
// documents are opened and modified.
func (b *UIBackend) FindWindow(ctx context.Context, sel recipe.WindowSelector, app string) (engine.WindowHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if sel.ProcessID != 0 {
		title := robotgo.GetTitle(sel.ProcessID)
		if title == "" {
			return nil, engine.NewNotFoundError(fmt.Sprintf("no window for process %d", sel.ProcessID), nil)
		}
		return &window{PID: sel.ProcessID, Title: title}, nil
	}

	pids, err := b.candidatePIDs(app)
	if err != nil {
		return nil, engine.NewBackendError("failed to enumerate processes", err)
	}
	for _, pid := range pids {
		title := robotgo.GetTitle(pid)
		if title == "" {
			continue
		}
		if sel.Name != "" && !containsFold(title, sel.Name) {
			continue
		}
		return &window{PID: pid, Title: title}, nil
	}

	// Without an app hint, fall back to matching the active window.
	if app == "" && sel.Name != "" {
		if title := robotgo.GetTitle(); containsFold(title, sel.Name) {
			return &window{Title: title}, nil
		}
	}

	return nil, nil
}

// ForegroundWindow returns the tracked application's foremost window, or the
// currently active window when no application is tracked.
func (b *UIBackend) ForegroundWindow(ctx context.Context, app string) (engine.WindowHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	cached, ok := b.cache[app]
	b.mu.Unlock()
	if ok {
		return cached, nil
	}

	if app != "" {
		pids, err := b.candidatePIDs(app)
		if err != nil {
			return nil, engine.NewBackendError("failed to enumerate processes", err)
		}
		for _, pid := range pids {
			if title := robotgo.GetTitle(pid); title != "" {
				win := &window{PID: pid, Title: title}
				b.mu.Lock()
				b.cache[app] = win
				b.mu.Unlock()
				return win, nil
			}
		}
		return nil, nil
	}

	title := robotgo.GetTitle()
	if title == "" {
		return nil, nil
	}
	return &window{Title: title}, nil
}

// FindElements resolves element queries against the flat window model. A
// name query matches when the window title contains it; attribute queries
// that need an accessibility tree (automation_id, control_type, class_name)
// match nothing, so the resolver falls through to its name-based candidates.
func (b *UIBackend) FindElements(ctx context.Context, win engine.WindowHandle, q engine.ElementQuery) ([]engine.ElementHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, err := asWindow(win)
	if err != nil {
		return nil, err
	}
	if q.AutomationID != "" || q.ControlType != "" || q.ClassName != "" {
		return nil, nil
	}
	if q.Name != "" && containsFold(w.Title, q.Name) {
		return []engine.ElementHandle{w}, nil
	}
	return nil, nil
}

// Click focuses the element's window and clicks its center.
func (b *UIBackend) Click(ctx context.Context, el engine.ElementHandle, verify bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w, err := asWindow(el)
	if err != nil {
		return err
	}
	if err := b.focus(w); err != nil {
		return err
	}

	if w.PID != 0 {
		x, y, width, height := robotgo.GetBounds(w.PID)
		if width > 0 && height > 0 {
			robotgo.Move(x+width/2, y+height/2)
		}
	}
	robotgo.Click("left", false)

	if verify && w.PID != 0 && robotgo.GetTitle(w.PID) == "" {
		return engine.NewNotReadyError("window disappeared after click", nil)
	}
	b.log.Debug().Str("window", w.Title).Msg("clicked")
	return nil
}

// TypeText focuses the element's window, when one is given, and types the
// text. Verification is not possible in the flat model and is skipped.
func (b *UIBackend) TypeText(ctx context.Context, el engine.ElementHandle, text string, verify bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if el != nil {
		w, err := asWindow(el)
		if err != nil {
			return err
		}
		if err := b.focus(w); err != nil {
			return err
		}
	}
	robotgo.TypeStr(text)
	return nil
}

// SendHotkey sends a key combination such as "ctrl+s" or "alt+f4". A
// non-nil win is focused first.
func (b *UIBackend) SendHotkey(ctx context.Context, win engine.WindowHandle, keys string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if win != nil {
		w, err := asWindow(win)
		if err != nil {
			return err
		}
		if err := b.focus(w); err != nil {
			return err
		}
	}

	key, mods, err := parseHotkey(keys)
	if err != nil {
		return err
	}
	if err := robotgo.KeyTap(key, mods...); err != nil {
		return engine.NewBackendError(fmt.Sprintf("failed to send hotkey %q", keys), err)
	}
	return nil
}

// ReadText reads the element's text content. The flat model exposes the
// window title as the element's text.
func (b *UIBackend) ReadText(ctx context.Context, el engine.ElementHandle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w, err := asWindow(el)
	if err != nil {
		return "", err
	}
	if w.PID != 0 {
		if title := robotgo.GetTitle(w.PID); title != "" {
			return title, nil
		}
	}
	return w.Title, nil
}

// VerifyState reports whether the element's window is in the expected state.
// Visibility maps to the window still being resolvable; other states cannot
// be observed in the flat model and report true for a live window.
func (b *UIBackend) VerifyState(ctx context.Context, el engine.ElementHandle, state string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	w, err := asWindow(el)
	if err != nil {
		return false, err
	}
	if w.PID != 0 {
		return robotgo.GetTitle(w.PID) != "", nil
	}
	return w.Title != "", nil
}

// CaptureDiagnostic captures the full screen to a timestamped artifact.
func (b *UIBackend) CaptureDiagnostic(ctx context.Context) (string, error) {
	name := fmt.Sprintf("failure_%s.png", time.Now().Format("20060102_150405"))
	return b.CaptureScreen(ctx, name)
}

// CaptureScreen captures the full screen to the named file under the
// artifacts directory.
func (b *UIBackend) CaptureScreen(ctx context.Context, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(b.artifactsDir, 0755); err != nil {
		return "", engine.NewBackendError("failed to create artifacts directory", err)
	}
	path := filepath.Join(b.artifactsDir, filename)
	if err := robotgo.SaveCapture(path); err != nil {
		return "", engine.NewBackendError("failed to capture screen", err)
	}
	return path, nil
}

// CaptureRegion captures a screen region to the given image file. It is the
// capture hook for region OCR.
func (b *UIBackend) CaptureRegion(ctx context.Context, region recipe.Region, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := robotgo.SaveCapture(path, region.X, region.Y, region.Width, region.Height); err != nil {
		return engine.NewBackendError("failed to capture screen region", err)
	}
	return nil
}

// Close releases cached window references.
func (b *UIBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache = make(map[string]*window)
	return nil
}

// focus raises the window.
func (b *UIBackend) focus(w *window) error {
	if w.PID == 0 {
		return nil
	}
	if err := robotgo.ActivePid(w.PID); err != nil {
		return engine.NewNotReadyError(fmt.Sprintf("failed to focus window of process %d", w.PID), err)
	}
	return nil
}

// candidatePIDs returns the pids whose process name matches the app hint,
// or every pid when the hint is empty.
func (b *UIBackend) candidatePIDs(app string) ([]int, error) {
	procs, err := robotgo.Process()
	if err != nil {
		return nil, err
	}
	want := normalizeProcName(app)
	var pids []int
	for _, p := range procs {
		if want != "" && normalizeProcName(p.Name) != want {
			continue
		}
		pids = append(pids, p.Pid)
	}
	return pids, nil
}

// asWindow unwraps a handle produced by this backend.
func asWindow(h interface{}) (*window, error) {
	w, ok := h.(*window)
	if !ok {
		return nil, engine.NewValidationError("handle was not produced by the native backend", nil)
	}
	return w, nil
}

// parseHotkey splits "ctrl+shift+s" into robotgo's key plus modifiers. The
// last segment is the key.
func parseHotkey(keys string) (string, []interface{}, error) {
	parts := strings.Split(keys, "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return "", nil, engine.NewValidationError(fmt.Sprintf("invalid hotkey %q", keys), nil)
	}

	key := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	var mods []interface{}
	for _, part := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "ctrl", "control":
			mods = append(mods, "control")
		case "alt", "option":
			mods = append(mods, "alt")
		case "shift":
			mods = append(mods, "shift")
		case "cmd", "command", "super", "win":
			mods = append(mods, "command")
		default:
			return "", nil, engine.NewValidationError(fmt.Sprintf("unknown modifier %q in hotkey %q", part, keys), nil)
		}
	}
	return key, mods, nil
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// normalizeProcName lowercases a process name and strips path and .exe so
// "C:\Windows\notepad.exe" and "notepad" compare equal.
func normalizeProcName(name string) string {
	if name == "" {
		return ""
	}
	name = strings.ToLower(filepath.Base(name))
	return strings.TrimSuffix(name, ".exe")
}
