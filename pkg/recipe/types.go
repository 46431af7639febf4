package recipe

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ActionType identifies the kind of automation a step performs.
type ActionType string

const (
	// ActionLaunch launches (or connects to) the target application.
	ActionLaunch ActionType = "launch"

	// ActionWaitFor waits for a window or element to become ready.
	ActionWaitFor ActionType = "wait_for"

	// ActionClick clicks a UI element.
	ActionClick ActionType = "click"

	// ActionTypeText types text into a UI element or the active window.
	ActionTypeText ActionType = "type"

	// ActionHotkey sends a hotkey combination (e.g. "ctrl+s").
	ActionHotkey ActionType = "hotkey"

	// ActionVerify verifies a UI element is in an expected state.
	ActionVerify ActionType = "verify"

	// ActionReadText reads text from a UI element into the variable map.
	ActionReadText ActionType = "read_text"

	// ActionFileWrite writes text content to a file.
	ActionFileWrite ActionType = "file_write"

	// ActionFileRead reads file content into the variable map.
	ActionFileRead ActionType = "file_read"

	// ActionFileCopy copies a file to a destination path.
	ActionFileCopy ActionType = "file_copy"

	// ActionScreenshot captures the screen to the artifacts directory.
	ActionScreenshot ActionType = "screenshot"

	// ActionOCRText extracts text from a screen region or image file.
	ActionOCRText ActionType = "ocr_text"
)

// ActionTypes lists every supported action kind. The dispatch table in the
// engine is keyed by this set; an action outside it is rejected as
// unsupported at execution time.
var ActionTypes = []ActionType{
	ActionLaunch, ActionWaitFor, ActionClick, ActionTypeText, ActionHotkey,
	ActionVerify, ActionReadText, ActionFileWrite, ActionFileRead,
	ActionFileCopy, ActionScreenshot, ActionOCRText,
}

// Valid reports whether a is one of the supported action kinds.
func (a ActionType) Valid() bool {
	for _, t := range ActionTypes {
		if a == t {
			return true
		}
	}
	return false
}

// WindowSelector targets an application window.
type WindowSelector struct {
	// Name is the window title or a substring of it. When present it must
	// be at least two characters long.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// ClassName is the window class name.
	ClassName string `yaml:"class_name,omitempty" json:"class_name,omitempty"`

	// ProcessID pins the window to a specific process.
	ProcessID int `yaml:"process_id,omitempty" json:"process_id,omitempty"`
}

// IsZero reports whether no selector criteria are set.
func (w WindowSelector) IsZero() bool {
	return w.Name == "" && w.ClassName == "" && w.ProcessID == 0
}

// ElementSelector targets a UI element within a window. All fields are
// optional; specificity is ranked by the entropy score (see EntropyScore).
type ElementSelector struct {
	// AutomationID is the accessibility automation identifier. It is the
	// most specific selector and the anchor for fallback generation.
	AutomationID string `yaml:"automation_id,omitempty" json:"automation_id,omitempty"`

	// ControlType is the accessibility control type (e.g. "Button").
	ControlType string `yaml:"control_type,omitempty" json:"control_type,omitempty"`

	// ClassName is the element class name.
	ClassName string `yaml:"class_name,omitempty" json:"class_name,omitempty"`

	// Name is the element name or title.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Value is the element value.
	Value string `yaml:"value,omitempty" json:"value,omitempty"`

	// HelpText is the element help text.
	HelpText string `yaml:"help_text,omitempty" json:"help_text,omitempty"`

	// AccessibleName is the accessible name.
	AccessibleName string `yaml:"accessible_name,omitempty" json:"accessible_name,omitempty"`

	// Index selects among multiple matches of the same query. Defaults to 0.
	Index int `yaml:"index,omitempty" json:"index,omitempty"`
}

// Region is a rectangular screen region. All four fields are required when a
// region is present; values must be non-negative.
type Region struct {
	X      int `yaml:"x" json:"x"`
	Y      int `yaml:"y" json:"y"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// UnmarshalYAML decodes a region and rejects documents that omit any of the
// four coordinates. A plain struct decode would silently default missing
// keys to zero, which is indistinguishable from an explicit zero.
func (r *Region) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]int
	if err := value.Decode(&raw); err != nil {
		return err
	}
	for _, key := range []string{"x", "y", "width", "height"} {
		if _, ok := raw[key]; !ok {
			return fmt.Errorf("region is missing required key %q", key)
		}
	}
	r.X = raw["x"]
	r.Y = raw["y"]
	r.Width = raw["width"]
	r.Height = raw["height"]
	return nil
}

// Target describes what a step operates on. Which fields are meaningful
// depends on the action kind; handlers reject targets missing their
// required fields.
type Target struct {
	// App is the target application executable name or path.
	App string `yaml:"app,omitempty" json:"app,omitempty"`

	// Window selects the window to operate in.
	Window *WindowSelector `yaml:"window,omitempty" json:"window,omitempty"`

	// Element selects the element to operate on.
	Element *ElementSelector `yaml:"element,omitempty" json:"element,omitempty"`

	// FilePath is the file path for file and screenshot operations.
	FilePath string `yaml:"file_path,omitempty" json:"file_path,omitempty"`

	// Text is the text payload: typed text, hotkey combination, expected
	// state for verify, file content for file_write, or the destination
	// path for file_copy.
	Text string `yaml:"text,omitempty" json:"text,omitempty"`

	// Region is the screen region for OCR extraction.
	Region *Region `yaml:"region,omitempty" json:"region,omitempty"`
}

// Default step tuning applied when a recipe omits the fields.
const (
	DefaultTimeoutSeconds = 10
	DefaultRetryAttempts  = 3
	DefaultRetryDelay     = 1.0

	// MinSteps and MaxSteps bound the recipe step list.
	MinSteps = 1
	MaxSteps = 100
)

// ActionStep is a single automation step within a recipe.
type ActionStep struct {
	// Name is the human-readable step name.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Action is the action kind to perform.
	Action ActionType `yaml:"action" json:"action" validate:"required"`

	// Target is what the action operates on.
	Target Target `yaml:"target" json:"target"`

	// Timeout bounds the step in seconds. Range 1-300.
	Timeout int `yaml:"timeout" json:"timeout" validate:"min=1,max=300"`

	// RetryAttempts is the total attempt budget for the step. Range 1-10.
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts" validate:"min=1,max=10"`

	// RetryDelay is the blocking delay between attempts in seconds.
	RetryDelay float64 `yaml:"retry_delay" json:"retry_delay" validate:"min=0"`

	// VerifyAfter requests post-action verification where the handler
	// supports it.
	VerifyAfter bool `yaml:"verify_after" json:"verify_after"`

	// ContinueOnFailure lets the run proceed past this step if it fails.
	ContinueOnFailure bool `yaml:"continue_on_failure" json:"continue_on_failure"`
}

// UnmarshalYAML decodes a step with the documented defaults applied before
// the document's own values are set.
func (s *ActionStep) UnmarshalYAML(value *yaml.Node) error {
	type rawStep ActionStep
	raw := rawStep{
		Timeout:       DefaultTimeoutSeconds,
		RetryAttempts: DefaultRetryAttempts,
		RetryDelay:    DefaultRetryDelay,
		VerifyAfter:   true,
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*s = ActionStep(raw)
	return nil
}

// TimeoutDuration returns the step timeout as a duration.
func (s ActionStep) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// RetryDelayDuration returns the retry delay as a duration.
func (s ActionStep) RetryDelayDuration() time.Duration {
	return time.Duration(s.RetryDelay * float64(time.Second))
}

// Recipe is a complete declarative automation recipe: metadata, a variable
// mapping, and an ordered list of steps. The orchestrator owns the single
// live instance for a run; only the Variables map mutates during execution.
type Recipe struct {
	// Name identifies the recipe. Must match ^[A-Za-z][A-Za-z0-9_-]*$.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Description explains what the recipe automates.
	Description string `yaml:"description" json:"description" validate:"required"`

	// Version is the recipe version string.
	Version string `yaml:"version" json:"version"`

	// Author is the recipe author.
	Author string `yaml:"author,omitempty" json:"author,omitempty"`

	// Tags label the recipe for organization. Order carries no meaning.
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty"`

	// Variables seeds the mutable variable mapping consulted by ${name}
	// substitution. Result-producing steps write back into it under
	// step_<index>_result keys.
	Variables map[string]any `yaml:"variables,omitempty" json:"variables,omitempty"`

	// Steps is the ordered step list. Length 1-100.
	Steps []ActionStep `yaml:"steps" json:"steps" validate:"min=1,max=100,dive"`
}

// UnmarshalYAML decodes a recipe with defaults for optional metadata.
func (r *Recipe) UnmarshalYAML(value *yaml.Node) error {
	type rawRecipe Recipe
	raw := rawRecipe{Version: "1.0"}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Variables == nil {
		raw.Variables = make(map[string]any)
	}
	*r = Recipe(raw)
	return nil
}
