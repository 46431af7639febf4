package engine

import (
	"context"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

// WindowHandle is an opaque backend reference to a resolved window. The
// engine never inspects it; it only passes it back into the owning backend.
type WindowHandle interface{}

// ElementHandle is an opaque backend reference to a resolved UI element.
type ElementHandle interface{}

// ElementQuery is a single concrete lookup against a backend's element
// enumeration. The resolver issues queries in decreasing specificity order;
// each query carries only the fields that define it.
type ElementQuery struct {
	// AutomationID queries by automation identifier alone.
	AutomationID string `json:"automation_id,omitempty"`

	// ControlType queries by control type, alone or with Name.
	ControlType string `json:"control_type,omitempty"`

	// ClassName queries by class name together with Name.
	ClassName string `json:"class_name,omitempty"`

	// Name queries by element name, alone or combined with the above.
	Name string `json:"name,omitempty"`
}

// UIBackend drives the target application's user interface. Implementations
// cache window and application references per application identity for their
// lifetime; Close invalidates the cache.
//
// Methods return NotFound or NotReady classified errors (see StepError) when
// the target is absent or not interactable, so the step state machine can
// retry.
type UIBackend interface {
	// FindWindow resolves a window by selector. The app hint, when
	// non-empty, scopes the search to that application's windows.
	FindWindow(ctx context.Context, sel recipe.WindowSelector, app string) (WindowHandle, error)

	// ForegroundWindow returns the tracked application's foremost window.
	// Used when a step has no window selector.
	ForegroundWindow(ctx context.Context, app string) (WindowHandle, error)

	// FindElements enumerates the elements under win matching the query.
	// An empty result with a nil error means the query matched nothing.
	FindElements(ctx context.Context, win WindowHandle, q ElementQuery) ([]ElementHandle, error)

	// Click clicks the element. When verify is set the backend confirms
	// the element is still accessible afterwards.
	Click(ctx context.Context, el ElementHandle, verify bool) error

	// TypeText types text into the element, or into the active window
	// when el is nil. When verify is set the backend re-reads the element
	// to confirm the text landed.
	TypeText(ctx context.Context, el ElementHandle, text string, verify bool) error

	// SendHotkey sends a key combination such as "ctrl+s". A non-nil win
	// is focused first.
	SendHotkey(ctx context.Context, win WindowHandle, keys string) error

	// ReadText reads the element's text content.
	ReadText(ctx context.Context, el ElementHandle) (string, error)

	// VerifyState reports whether the element is in the expected state
	// (visible, enabled, focused, or selected).
	VerifyState(ctx context.Context, el ElementHandle, state string) (bool, error)

	// CaptureDiagnostic captures a screen image for failure diagnostics
	// and returns a reference to the stored artifact.
	CaptureDiagnostic(ctx context.Context) (string, error)

	// CaptureScreen captures the full screen to the named artifact file
	// and returns its path.
	CaptureScreen(ctx context.Context, filename string) (string, error)

	// Close releases cached application and window references.
	Close() error
}

// ProcessBackend manages the target application's process lifecycle.
type ProcessBackend interface {
	// Launch starts the application unless it is already running.
	// Returns the process id and whether the application was already up.
	Launch(ctx context.Context, path string, args []string, workDir string) (pid int, alreadyRunning bool, err error)

	// IsRunning reports whether a process with the given name is running.
	IsRunning(ctx context.Context, name string) (bool, error)

	// Terminate stops the named application, forcefully when force is set.
	Terminate(ctx context.Context, name string, force bool) error
}

// FilesystemBackend performs file operations restricted to an allow-listed
// set of base directories. Paths outside the allow-list are rejected with a
// validation-classified error.
type FilesystemBackend interface {
	// ReadFile reads the file's text content.
	ReadFile(path string) (string, error)

	// WriteFile writes content to the file, creating parent directories.
	WriteFile(path, content string) error

	// CopyFile copies src to dst, creating parent directories.
	CopyFile(src, dst string) error
}

// OCRBackend extracts text via optical character recognition.
type OCRBackend interface {
	// ExtractTextFromRegion captures the screen region and extracts its
	// text. An empty result means nothing was recognized.
	ExtractTextFromRegion(ctx context.Context, region recipe.Region) (string, error)

	// ExtractTextFromImage extracts text from an image file.
	ExtractTextFromImage(ctx context.Context, imagePath string) (string, error)

	// Available reports whether the recognition engine is usable.
	Available() bool
}
