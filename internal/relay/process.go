package relay

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Process is a running subprocess with piped stdin and stdout.
type Process interface {
	Stdin() io.WriteCloser
	Stdout() io.Reader
	Wait() error
}

// Launcher starts subprocesses.
type Launcher interface {
	Launch(ctx context.Context, name string, args ...string) (Process, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, name string, args ...string) (Process, error)

// Launch calls f.
func (f LauncherFunc) Launch(ctx context.Context, name string, args ...string) (Process, error) {
	return f(ctx, name, args...)
}

// SpawnError reports a subprocess that could not be started.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExecLauncher starts local programs with os/exec. Stderr is inherited
// unless set.
type ExecLauncher struct {
	Stderr io.Writer
}

// Launch starts name with args. The process is killed if ctx is cancelled.
func (l ExecLauncher) Launch(ctx context.Context, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = l.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &SpawnError{Name: name, Err: fmt.Errorf("failed to create stdin pipe: %w", err)}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Name: name, Err: fmt.Errorf("failed to create stdout pipe: %w", err)}
	}
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Name: name, Err: err}
	}
	return &execProcess{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
}

func (p *execProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *execProcess) Stdout() io.Reader     { return p.stdout }
func (p *execProcess) Wait() error           { return p.cmd.Wait() }
