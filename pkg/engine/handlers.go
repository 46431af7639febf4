package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

// launchSettleDelay is how long a freshly launched application gets before
// the post-launch running check.
const launchSettleDelay = 1 * time.Second

func (o *Orchestrator) handleLaunch(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
	app := step.Target.App
	if app == "" {
		return false, NewValidationError("launch requires target.app", nil)
	}

	running, err := o.process.IsRunning(ctx, app)
	if err != nil {
		return false, NewBackendError("failed to check process state", err)
	}
	if running {
		o.log.Debug().Str("app", app).Msg("application already running")
		return true, nil
	}

	pid, alreadyRunning, err := o.process.Launch(ctx, app, nil, "")
	if err != nil {
		return false, NewBackendError(fmt.Sprintf("failed to launch %q", app), err)
	}
	if alreadyRunning {
		return true, nil
	}
	o.log.Info().Str("app", app).Int("pid", pid).Msg("application launched")

	if !step.VerifyAfter {
		return true, nil
	}
	o.sleep(ctx, launchSettleDelay)
	running, err = o.process.IsRunning(ctx, app)
	if err != nil {
		return false, NewBackendError("failed to verify launched process", err)
	}
	if !running {
		return false, NewNotReadyError(fmt.Sprintf("%q exited immediately after launch", app), nil)
	}
	return true, nil
}

func (o *Orchestrator) handleWaitFor(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
	if step.Target.Element == nil && step.Target.Window == nil {
		return false, NewValidationError("wait_for requires target.element or target.window", nil)
	}

	predicate := func(ctx context.Context) (bool, error) {
		if step.Target.Element != nil {
			_, err := o.resolver.ResolveElement(ctx, step.Target)
			if err != nil {
				return false, err
			}
			return true, nil
		}
		_, err := o.resolver.ResolveWindow(ctx, step.Target.Window, step.Target.App)
		if err != nil {
			return false, err
		}
		return true, nil
	}

	if Wait(ctx, o.log, step.TimeoutDuration(), DefaultPollInterval, predicate) {
		return true, nil
	}
	return false, NewNotFoundError(fmt.Sprintf("target did not appear within %ds", step.Timeout), nil)
}

func (o *Orchestrator) handleClick(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
	el, err := o.resolver.ResolveElement(ctx, step.Target)
	if err != nil {
		return false, err
	}
	if err := o.ui.Click(ctx, el, step.VerifyAfter); err != nil {
		return false, err
	}
	return true, nil
}

func (o *Orchestrator) handleType(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
	if step.Target.Text == "" {
		return false, NewValidationError("type requires target.text", nil)
	}

	// Without an element selector, text goes to the active window.
	var el ElementHandle
	if step.Target.Element != nil {
		resolved, err := o.resolver.ResolveElement(ctx, step.Target)
		if err != nil {
			return false, err
		}
		el = resolved
	}
	if err := o.ui.TypeText(ctx, el, step.Target.Text, step.VerifyAfter); err != nil {
		return false, err
	}
	return true, nil
}

func (o *Orchestrator) handleHotkey(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
	if step.Target.Text == "" {
		return false, NewValidationError("hotkey requires target.text with the key combination", nil)
	}

	var win WindowHandle
	if step.Target.Window != nil {
		resolved, err := o.resolver.ResolveWindow(ctx, step.Target.Window, step.Target.App)
		if err != nil {
			return false, err
		}
		win = resolved
	}
	if err := o.ui.SendHotkey(ctx, win, step.Target.Text); err != nil {
		return false, err
	}
	return true, nil
}

func (o *Orchestrator) handleVerify(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
	el, err := o.resolver.ResolveElement(ctx, step.Target)
	if err != nil {
		return false, err
	}
	state := step.Target.Text
	if state == "" {
		state = "visible"
	}
	ok, err := o.ui.VerifyState(ctx, el, state)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, NewNotReadyError(fmt.Sprintf("element is not %s", state), nil)
	}
	return true, nil
}

func (o *Orchestrator) handleReadText(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
	el, err := o.resolver.ResolveElement(ctx, step.Target)
	if err != nil {
		return false, err
	}
	text, err := o.ui.ReadText(ctx, el)
	if err != nil {
		return false, err
	}
	o.vars.StoreStepResult(index, text)
	o.log.Debug().Int("step", index).Int("chars", len(text)).Msg("stored element text")
	return true, nil
}

func (o *Orchestrator) handleFileWrite(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
	if step.Target.FilePath == "" {
		return false, NewValidationError("file_write requires target.file_path", nil)
	}
	if err := o.fs.WriteFile(step.Target.FilePath, step.Target.Text); err != nil {
		return false, err
	}
	return true, nil
}

func (o *Orchestrator) handleFileRead(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
	if step.Target.FilePath == "" {
		return false, NewValidationError("file_read requires target.file_path", nil)
	}
	content, err := o.fs.ReadFile(step.Target.FilePath)
	if err != nil {
		return false, err
	}
	o.vars.StoreStepResult(index, content)
	return true, nil
}

func (o *Orchestrator) handleFileCopy(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
	if step.Target.FilePath == "" {
		return false, NewValidationError("file_copy requires target.file_path as the source", nil)
	}
	if step.Target.Text == "" {
		return false, NewValidationError("file_copy requires target.text with the destination path", nil)
	}
	if err := o.fs.CopyFile(step.Target.FilePath, step.Target.Text); err != nil {
		return false, err
	}
	return true, nil
}

func (o *Orchestrator) handleScreenshot(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
	filename := step.Target.FilePath
	if filename == "" {
		filename = fmt.Sprintf("screenshot_step_%d.png", index)
	}
	path, err := o.ui.CaptureScreen(ctx, filename)
	if err != nil {
		return false, err
	}
	o.log.Info().Str("path", path).Msg("screenshot captured")
	return true, nil
}

func (o *Orchestrator) handleOCRText(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
	if o.ocr == nil || !o.ocr.Available() {
		return false, NewBackendError("OCR engine is not available", nil)
	}

	var (
		text string
		err  error
	)
	switch {
	case step.Target.Region != nil:
		text, err = o.ocr.ExtractTextFromRegion(ctx, *step.Target.Region)
	case step.Target.FilePath != "":
		text, err = o.ocr.ExtractTextFromImage(ctx, step.Target.FilePath)
	default:
		return false, NewValidationError("ocr_text requires target.region or target.file_path", nil)
	}
	if err != nil {
		return false, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false, NewNotFoundError("no text recognized", nil)
	}
	o.vars.StoreStepResult(index, text)
	return true, nil
}
