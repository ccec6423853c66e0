//go:build e2e

// cli_harness_test.go provides a test harness for E2E testing of the shelly CLI.
//
// The CLIHarness builds the shelly binary and runs commands against an
// isolated $SHELLY_HOME.
package integration

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thruflo/shelly/internal/config"
)

var (
	buildOnce   sync.Once
	builtBinary string
	buildErr    error
	buildOutput []byte
)

// CLIHarness manages a shelly CLI binary for E2E testing.
type CLIHarness struct {
	// BinaryPath is the path to the built shelly binary.
	BinaryPath string

	// Home is the config directory commands run against.
	Home config.Paths

	// EnvVars contains environment variables to set for command execution.
	EnvVars map[string]string

	t *testing.T
}

// CLIResult contains the output from a CLI command execution.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Success returns true if the command completed with exit code 0.
func (r *CLIResult) Success() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// NewCLIHarness builds the shelly binary once per test run and points
// $SHELLY_HOME at a fresh directory that does not exist yet.
func NewCLIHarness(t *testing.T) *CLIHarness {
	t.Helper()

	root := findProjectRootForHarness(t)
	require.NotEmpty(t, root, "could not find project root (directory containing go.mod)")

	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "shelly-e2e-")
		if err != nil {
			buildErr = err
			return
		}
		builtBinary = filepath.Join(dir, "shelly")
		cmd := exec.Command("go", "build", "-o", builtBinary, "./cmd/shelly")
		cmd.Dir = root
		buildOutput, buildErr = cmd.CombinedOutput()
	})
	require.NoError(t, buildErr, "failed to build shelly binary: %s", buildOutput)

	home := config.Paths{Dir: filepath.Join(t.TempDir(), ".shelly")}
	return &CLIHarness{
		BinaryPath: builtBinary,
		Home:       home,
		EnvVars:    map[string]string{config.HomeEnv: home.Dir},
		t:          t,
	}
}

// SetEnv sets an environment variable for subsequent command executions.
func (h *CLIHarness) SetEnv(key, value string) {
	h.EnvVars[key] = value
}

// Run executes a shelly command with a 30 second timeout and no input.
func (h *CLIHarness) Run(args ...string) *CLIResult {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return h.RunWithContext(ctx, nil, args...)
}

// RunWithInput executes a shelly command reading stdin from input.
func (h *CLIHarness) RunWithInput(input string, args ...string) *CLIResult {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return h.RunWithContext(ctx, bytes.NewBufferString(input), args...)
}

// RunWithContext executes a shelly command with the given context and
// stdin.
func (h *CLIHarness) RunWithContext(ctx context.Context, stdin io.Reader, args ...string) *CLIResult {
	h.t.Helper()

	cmd := exec.CommandContext(ctx, h.BinaryPath, args...)
	cmd.Dir = filepath.Dir(h.Home.Dir)
	cmd.Env = h.buildEnv()
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &CLIResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.Err = err
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}
	return result
}

func (h *CLIHarness) buildEnv() []string {
	env := append([]string{}, os.Environ()...)
	for k, v := range h.EnvVars {
		env = append(env, k+"="+v)
	}
	return env
}

// WriteConfig writes content as the config file, creating the home
// directory.
func (h *CLIHarness) WriteConfig(content string) {
	h.t.Helper()
	require.NoError(h.t, os.MkdirAll(h.Home.ToolboxDir(), 0o755))
	require.NoError(h.t, os.WriteFile(h.Home.ConfigFile(), []byte(content), 0o644))
}

// findProjectRootForHarness walks up from the current directory to the
// directory containing go.mod.
func findProjectRootForHarness(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "failed to get working directory")
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// RequireSuccess fails the test if the command result indicates failure.
func (h *CLIHarness) RequireSuccess(result *CLIResult, msg string) {
	h.t.Helper()
	if !result.Success() {
		h.t.Fatalf("%s: exit=%d err=%v\nstdout: %s\nstderr: %s",
			msg, result.ExitCode, result.Err, result.Stdout, result.Stderr)
	}
}

// RequireFailure fails the test if the command result indicates success.
func (h *CLIHarness) RequireFailure(result *CLIResult, msg string) {
	h.t.Helper()
	if result.Success() {
		h.t.Fatalf("%s: command succeeded unexpectedly\nstdout: %s\nstderr: %s",
			msg, result.Stdout, result.Stderr)
	}
}
