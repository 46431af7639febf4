package native

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/go-vgo/robotgo"
	"github.com/rs/zerolog"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/engine"
)

// ProcessBackend implements engine.ProcessBackend with os/exec for launching
// and robotgo's process enumeration for discovery.
type ProcessBackend struct {
	log zerolog.Logger
}

var _ engine.ProcessBackend = (*ProcessBackend)(nil)

// NewProcessBackend creates a native process backend.
func NewProcessBackend(log zerolog.Logger) *ProcessBackend {
	return &ProcessBackend{
		log: log.With().Str("component", "native_process").Logger(),
	}
}

// Launch starts the application unless a process with the same name is
// already running. The child is started detached; its lifetime is not tied
// to the automator's.
func (p *ProcessBackend) Launch(ctx context.Context, path string, args []string, workDir string) (int, bool, error) {
	running, err := p.IsRunning(ctx, path)
	if err != nil {
		return 0, false, err
	}
	if running {
		return 0, true, nil
	}

	cmd := exec.Command(path, args...)
	cmd.Dir = workDir
	if err := cmd.Start(); err != nil {
		return 0, false, engine.NewBackendError(fmt.Sprintf("failed to start %q", path), err)
	}
	pid := cmd.Process.Pid

	// Reap the child when it exits so it never lingers as a zombie.
	go func() {
		_ = cmd.Wait()
	}()

	p.log.Info().Str("path", path).Int("pid", pid).Msg("process started")
	return pid, false, nil
}

// IsRunning reports whether a process with the given name is running. Names
// compare case-insensitively with path and .exe stripped.
func (p *ProcessBackend) IsRunning(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	procs, err := robotgo.Process()
	if err != nil {
		return false, engine.NewBackendError("failed to enumerate processes", err)
	}
	want := normalizeProcName(name)
	for _, proc := range procs {
		if normalizeProcName(proc.Name) == want {
			return true, nil
		}
	}
	return false, nil
}

// Terminate stops every process matching the name. force is accepted for
// interface completeness; the kill is unconditional either way.
func (p *ProcessBackend) Terminate(ctx context.Context, name string, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	procs, err := robotgo.Process()
	if err != nil {
		return engine.NewBackendError("failed to enumerate processes", err)
	}

	want := normalizeProcName(name)
	found := false
	for _, proc := range procs {
		if normalizeProcName(proc.Name) != want {
			continue
		}
		found = true
		if err := robotgo.Kill(proc.Pid); err != nil {
			return engine.NewBackendError(fmt.Sprintf("failed to kill process %d", proc.Pid), err)
		}
		p.log.Info().Str("name", name).Int("pid", proc.Pid).Msg("process terminated")
	}
	if !found {
		return engine.NewNotFoundError(fmt.Sprintf("no running process named %q", name), nil)
	}
	return nil
}
